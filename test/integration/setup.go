// Package integration provides helpers and integration tests for the offer aggregation service.
// Integration tests drive the HTTP layer, the search pipeline and a real cache store
// together, with mock providers standing in for the upstream APIs.
package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/flight-search/offer-aggregation-engine/internal/adapter/commission"
	httpAdapter "github.com/flight-search/offer-aggregation-engine/internal/adapter/http"
	"github.com/flight-search/offer-aggregation-engine/internal/adapter/http/middleware"
	"github.com/flight-search/offer-aggregation-engine/internal/domain"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/cache"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/metrics"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/timeutil"
	"github.com/flight-search/offer-aggregation-engine/internal/usecase"
	"github.com/flight-search/offer-aggregation-engine/test/testutil"
)

// Now is the wall clock every integration test runs at.
var Now = time.Date(2026, 11, 1, 12, 0, 0, 0, time.UTC)

// TravelDay is the default departure date, one month after Now.
var TravelDay = time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)

// Options customize the stack built by NewTestServer.
type Options struct {
	// Config overrides the pipeline configuration; nil uses the defaults
	Config *usecase.Config

	// Store overrides the cache store; nil uses an in-process store
	Store cache.Store
}

// TestServer wraps an Echo instance and provides helper methods for integration testing.
type TestServer struct {
	Echo     *echo.Echo
	UseCase  usecase.OfferSearchUseCase
	Clock    *timeutil.MockClock
	Registry *prometheus.Registry
}

// NewTestServer wires the full stack around the given providers.
// Commission rates come from configs/commission.yaml.
func NewTestServer(t *testing.T, providers []domain.OfferProvider, opts Options) *TestServer {
	t.Helper()

	clock := timeutil.NewMockClock(Now)
	store := opts.Store
	if store == nil {
		store = cache.NewMemoryStore(clock)
	}
	t.Cleanup(func() { _ = store.Close() })

	rates, err := commission.LoadFile(testutil.ProjectPath(t, "configs", "commission.yaml"))
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	uc := usecase.NewOfferSearchUseCase(usecase.Dependencies{
		Providers: providers,
		Store:     store,
		Rates:     rates,
		Calendar:  timeutil.NewCalendar(clock, "UTC"),
		Recorder:  metrics.NewRecorder(registry),
		Logger:    zerolog.Nop(),
	}, opts.Config)

	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	middleware.Setup(e, zerolog.Nop())

	handler := httpAdapter.NewOfferHandler(uc, httpAdapter.WithHealthInfo(names, "memory"))
	httpAdapter.RegisterRoutes(e, handler)

	return &TestServer{
		Echo:     e,
		UseCase:  uc,
		Clock:    clock,
		Registry: registry,
	}
}

// Request represents a test HTTP request configuration.
type Request struct {
	Method      string
	Path        string
	Body        interface{}
	ContentType string
}

// Response represents a test HTTP response.
type Response struct {
	Code    int
	Body    []byte
	Headers http.Header
}

// Do executes a test request and returns the response.
func (ts *TestServer) Do(req Request) Response {
	var bodyReader *bytes.Reader
	if req.Body != nil {
		bodyBytes, _ := json.Marshal(req.Body)
		bodyReader = bytes.NewReader(bodyBytes)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	httpReq := httptest.NewRequest(req.Method, req.Path, bodyReader)

	if req.ContentType != "" {
		httpReq.Header.Set(echo.HeaderContentType, req.ContentType)
	} else if req.Body != nil {
		httpReq.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec := httptest.NewRecorder()
	ts.Echo.ServeHTTP(rec, httpReq)

	return Response{
		Code:    rec.Code,
		Body:    rec.Body.Bytes(),
		Headers: rec.Header(),
	}
}

// SearchRequest posts a search.
func (ts *TestServer) SearchRequest(body interface{}) Response {
	return ts.Do(Request{
		Method: http.MethodPost,
		Path:   "/api/v1/flights/search",
		Body:   body,
	})
}

// HealthRequest makes a health check request.
func (ts *TestServer) HealthRequest() Response {
	return ts.Do(Request{
		Method: http.MethodGet,
		Path:   "/health",
	})
}

// Get issues a GET request to path.
func (ts *TestServer) Get(path string) Response {
	return ts.Do(Request{Method: http.MethodGet, Path: path})
}

// ParseSearchResponse parses the response body as a search response.
func (r *Response) ParseSearchResponse(t *testing.T) *httpAdapter.SearchResponseDTO {
	t.Helper()
	var resp httpAdapter.SearchResponseDTO
	require.NoError(t, json.Unmarshal(r.Body, &resp), string(r.Body))
	return &resp
}

// ParseError parses the response body as an error detail.
func (r *Response) ParseError(t *testing.T) map[string]interface{} {
	t.Helper()
	var errResp map[string]interface{}
	require.NoError(t, json.Unmarshal(r.Body, &errResp), string(r.Body))
	return errResp
}

// SearchRequestBody is a helper struct for building search request bodies.
type SearchRequestBody struct {
	Origin                 string                 `json:"origin"`
	Destination            string                 `json:"destination"`
	DepartureDate          string                 `json:"departureDate"`
	ReturnDate             string                 `json:"returnDate,omitempty"`
	Adults                 int                    `json:"adults,omitempty"`
	TravelClass            string                 `json:"travelClass,omitempty"`
	NonStop                bool                   `json:"nonStop,omitempty"`
	Max                    int                    `json:"max,omitempty"`
	SortBy                 string                 `json:"sortBy,omitempty"`
	IncludeSeparateTickets *bool                  `json:"includeSeparateTickets,omitempty"`
	ForceRefresh           bool                   `json:"forceRefresh,omitempty"`
	Filters                map[string]interface{} `json:"filters,omitempty"`
}

// DefaultSearchRequest returns a one-way JFK-MIA search on TravelDay.
func DefaultSearchRequest() SearchRequestBody {
	return SearchRequestBody{
		Origin:        "JFK",
		Destination:   "MIA",
		DepartureDate: TravelDay.Format("2006-01-02"),
		Adults:        1,
	}
}

// DefaultSearchCriteria returns the criteria of DefaultSearchRequest for driving the use case directly.
func DefaultSearchCriteria() domain.SearchCriteria {
	return domain.SearchCriteria{
		Origins:        []string{"JFK"},
		Destinations:   []string{"MIA"},
		DepartureDates: []string{TravelDay.Format("2006-01-02")},
		Adults:         1,
	}
}
