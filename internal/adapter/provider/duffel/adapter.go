// Package duffel adapts the Duffel NDC offer request API. Duffel returns one
// offer per fare brand of the same flight; the pipeline groups them into fare families.
package duffel

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/flight-search/offer-aggregation-engine/internal/adapter/provider"
	"github.com/flight-search/offer-aggregation-engine/internal/domain"
)

// ProviderName is the unique identifier for the Duffel provider.
const ProviderName = "duffel"

const (
	offerRequestsPath = "/air/offer_requests"
	apiVersion        = "v2"

	// childAge is sent for child passengers; Duffel prices children by age.
	childAge = 8
)

// Config holds the adapter settings.
type Config struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration

	// MockPath serves a recorded response instead of calling the API
	MockPath string
}

// Adapter implements domain.OfferProvider for Duffel.
type Adapter struct {
	cfg    Config
	client *http.Client
	log    zerolog.Logger
}

// NewAdapter creates a Duffel adapter authenticating with a bearer access token.
func NewAdapter(cfg Config, log zerolog.Logger) *Adapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	base := &http.Client{Timeout: cfg.Timeout}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"}))
	client.Timeout = cfg.Timeout

	return &Adapter{
		cfg:    cfg,
		client: client,
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

	var resp OfferRequestResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return []domain.Offer{}, provider.DecodeError(ProviderName, err)
	}

	offers, skipped := normalize(resp.Data.Offers, s)
	if skipped > 0 {
		a.log.Warn().Int("skipped", skipped).Str("route", s.Origin+"-"+s.Destination).Msg("skipped unreadable offers")
	}
	return offers, nil
}

func (a *Adapter) fetch(ctx context.Context, s domain.SubSearch) ([]byte, error) {
	if a.cfg.MockPath != "" {
		return provider.ReadFixture(ctx, ProviderName, a.cfg.MockPath)
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.NewProviderError(ProviderName, err)
	}

	payload, err := json.Marshal(requestBody(s))
	if err != nil {
		return nil, domain.NewProviderError(ProviderName, err)
	}

	url := a.cfg.BaseURL + offerRequestsPath + "?return_offers=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, domain.NewProviderError(ProviderName, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Duffel-Version", apiVersion)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, provider.TransportError(ProviderName, err)
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
