// Package amadeus adapts the Amadeus Self-Service flight offers API.
package amadeus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/flight-search/offer-aggregation-engine/internal/adapter/provider"
	"github.com/flight-search/offer-aggregation-engine/internal/domain"
)

// ProviderName is the unique identifier for the Amadeus provider.
const ProviderName = "amadeus"

const (
	tokenPath  = "/v1/security/oauth2/token"
	offersPath = "/v2/shopping/flight-offers"
)

// Config holds the adapter settings.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration

	// MockPath serves a recorded response instead of calling the API
	MockPath string
}

// Adapter implements domain.OfferProvider for Amadeus.
type Adapter struct {
	cfg    Config
	client *http.Client
	log    zerolog.Logger
}

// NewAdapter creates an Amadeus adapter. The HTTP client obtains and refreshes
// access tokens with the client-credentials grant.
func NewAdapter(cfg Config, log zerolog.Logger) *Adapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	base := &http.Client{Timeout: cfg.Timeout}
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.BaseURL + tokenPath,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	return &Adapter{
		cfg:    cfg,
		client: cc.Client(tokenCtx),
		log:    log.With().Str("provider", ProviderName).Logger(),
	}
}

// Name implements domain.OfferProvider.
func (a *Adapter) Name() string {
	return ProviderName
}

// Search implements domain.OfferProvider.
func (a *Adapter) Search(ctx context.Context, s domain.SubSearch) ([]domain.Offer, error) {
	body, err := a.fetch(ctx, s)
	if err != nil || body == nil {
		return []domain.Offer{}, err
	}

	var resp FlightOffersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return []domain.Offer{}, provider.DecodeError(ProviderName, err)
	}

	offers, skipped := normalize(resp.Data, s)
	if skipped > 0 {
		a.log.Warn().Int("skipped", skipped).Str("route", s.Origin+"-"+s.Destination).Msg("skipped unreadable offers")
	}
	return offers, nil
}

// fetch returns the raw body, or nil when the route has no offers.
func (a *Adapter) fetch(ctx context.Context, s domain.SubSearch) ([]byte, error) {
	if a.cfg.MockPath != "" {
		return provider.ReadFixture(ctx, ProviderName, a.cfg.MockPath)
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.NewProviderError(ProviderName, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.BaseURL+offersPath+"?"+query(s).Encode(), nil)
	if err != nil {
		return nil, domain.NewProviderError(ProviderName, err)
	}
	req.Header.Set("Accept", "application/vnd.amadeus+json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode >= 300:
		return nil, provider.StatusError(ProviderName, resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.TransportError(ProviderName, err)
	}
	return body, nil
}

// classifyTransport separates token-endpoint rejections from network failures.
func classifyTransport(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		if re.Response.StatusCode >= 500 {
			return domain.NewRetryableProviderError(ProviderName,
				fmt.Errorf("%w: token endpoint status %d", domain.ErrProviderUnavailable, re.Response.StatusCode))
		}
		return domain.NewProviderError(ProviderName,
			fmt.Errorf("%w: token endpoint status %d", domain.ErrProviderAuth, re.Response.StatusCode))
	}
	return provider.TransportError(ProviderName, err)
}

func query(s domain.SubSearch) url.Values {
	q := url.Values{}
	q.Set("originLocationCode", s.Origin)
	q.Set("destinationLocationCode", s.Destination)
	q.Set("departureDate", s.DepartureDate)
	if s.ReturnDate != "" {
		q.Set("returnDate", s.ReturnDate)
	}
	q.Set("adults", strconv.Itoa(s.Adults))
	if s.Children > 0 {
		q.Set("children", strconv.Itoa(s.Children))
	}
	if s.Infants > 0 {
		q.Set("infants", strconv.Itoa(s.Infants))
	}
	q.Set("travelClass", travelClass(s.CabinClass))
	q.Set("nonStop", strconv.FormatBool(s.NonStop))
	if s.Currency != "" {
		q.Set("currencyCode", s.Currency)
	}
	if s.MaxResults > 0 {
		q.Set("max", strconv.Itoa(s.MaxResults))
	}
	return q
}
