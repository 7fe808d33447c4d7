package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/flight-search/offer-aggregation-engine/internal/adapter/http/response"
	"github.com/flight-search/offer-aggregation-engine/internal/domain"
	"github.com/flight-search/offer-aggregation-engine/internal/usecase"
)

// setupTestHandler creates a test Echo instance backed by a mocked use case.
func setupTestHandler(t *testing.T) (*echo.Echo, *usecase.MockOfferSearchUseCase) {
	ctrl := gomock.NewController(t)
	uc := usecase.NewMockOfferSearchUseCase(ctrl)

	e := echo.New()
	h := NewOfferHandler(uc, WithHealthInfo([]string{"amadeus", "duffel"}, "redis"))
	RegisterRoutes(e, h)
	return e, uc
}

// makeRequest is a helper to make test requests.
func makeRequest(e *echo.Echo, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorDetail {
	t.Helper()
	var detail response.ErrorDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	return detail
}

func sampleOffer() domain.Offer {
	dep := time.Date(2026, 12, 1, 8, 0, 0, 0, time.UTC)
	return domain.Offer{
		ID:     "am-1",
		Source: "amadeus",
		Itineraries: []domain.Itinerary{{
			Segments: []domain.Segment{{
				MarketingCarrier: "AA",
				FlightNumber:     "100",
				OperatingCarrier: "AA",
				Origin:           "JFK",
				Destination:      "MIA",
				DepartureAt:      dep,
				ArrivalAt:        dep.Add(3 * time.Hour),
				Cabin:            domain.CabinEconomy,
				DurationMinutes:  180,
			}},
			Duration: domain.DurationInfo{TotalMinutes: 180, Formatted: "3h 0m"},
		}},
		Price:             domain.Price{Base: 180, Taxes: 42, Total: 222, Currency: "USD"},
		PassengerCount:    1,
		PricePerPassenger: 222,
		Net:               200,
		Markup:            &domain.MarkupInfo{Net: 200, Customer: 222, Amount: 22, Percentage: 11},
		ValidatingCarrier: "AA",
		FareBasis:         "QLAXNR",
		Score:             87.5,
		Badges:            []string{"Lowest Price"},
	}
}

func sampleResult(criteria domain.SearchCriteria) *domain.SearchResult {
	return &domain.SearchResult{
		Offers: []domain.Offer{sampleOffer()},
		Metadata: domain.SearchMetadata{
			TotalResults:       1,
			Criteria:           criteria,
			SubSearches:        1,
			ProvidersQueried:   []string{"amadeus", "duffel"},
			ProvidersSucceeded: []string{"amadeus"},
			ProvidersFailed:    []string{"duffel"},
			SearchTimeMs:       120,
		},
		RoutingSessionID: "session-1",
	}
}

// =====================================================
// Search Handler Tests
// =====================================================

func TestSearchOffers_Success(t *testing.T) {
	e, uc := setupTestHandler(t)

	uc.EXPECT().
		Search(gomock.Any(), gomock.Any(), usecase.SearchOptions{SortBy: domain.SortByCheapest}).
		DoAndReturn(func(_ context.Context, criteria domain.SearchCriteria, _ usecase.SearchOptions) (*domain.SearchResult, error) {
			assert.Equal(t, []string{"JFK"}, criteria.Origins)
			assert.Equal(t, []string{"MIA"}, criteria.Destinations)
			assert.Equal(t, []string{"2026-12-01"}, criteria.DepartureDates)
			assert.Equal(t, 1, criteria.Adults)
			return sampleResult(criteria), nil
		})

	rec := makeRequest(e, http.MethodPost, "/api/v1/flights/search", map[string]interface{}{
		"origin":        "New York (JFK)",
		"destination":   "MIA",
		"departureDate": "2026-12-01",
		"sortBy":        "cheapest",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var body SearchResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Metadata.TotalResults)
	assert.Equal(t, "cheapest", body.Metadata.SearchParams.SortBy)
	assert.Equal(t, []string{"duffel"}, body.Metadata.ProvidersFailed)
	assert.Equal(t, "session-1", body.RoutingSessionID)
	require.Len(t, body.Offers, 1)
	assert.Equal(t, 222.0, body.Offers[0].Price.Total)
	assert.Equal(t, "AA100", body.Offers[0].Itineraries[0].Segments[0].FlightNumber)
}

func TestSearchOffers_HidesInternalPricing(t *testing.T) {
	e, uc := setupTestHandler(t)

	uc.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, criteria domain.SearchCriteria, _ usecase.SearchOptions) (*domain.SearchResult, error) {
			return sampleResult(criteria), nil
		})

	rec := makeRequest(e, http.MethodPost, "/api/v1/flights/search", map[string]interface{}{
		"origin": "JFK", "destination": "MIA", "departureDate": "2026-12-01",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "\"net\"")
	assert.NotContains(t, body, "markup")
	assert.NotContains(t, body, "QLAXNR")
	assert.NotContains(t, body, "channel")
}

func TestSearchOffers_MapsRequestOptions(t *testing.T) {
	e, uc := setupTestHandler(t)

	var captured domain.SearchCriteria
	uc.EXPECT().Search(gomock.Any(), gomock.Any(), usecase.SearchOptions{SortBy: domain.SortByBest}).
		DoAndReturn(func(_ context.Context, criteria domain.SearchCriteria, _ usecase.SearchOptions) (*domain.SearchResult, error) {
			captured = criteria
			return &domain.SearchResult{Metadata: domain.SearchMetadata{Criteria: criteria}}, nil
		})

	maxPrice := 600.0
	maxStops := 1
	off := false
	adults := 2
	rec := makeRequest(e, http.MethodPost, "/api/v1/flights/search", SearchOffersRequest{
		Origin:                 "JFK, EWR",
		Destination:            "mia",
		DepartureDate:          "2026-12-01,2026-12-03",
		ReturnDate:             "2026-12-10",
		Adults:                 &adults,
		Infants:                1,
		TravelClass:            "Business",
		CurrencyCode:           "eur",
		UseMultiDate:           true,
		IncludeSeparateTickets: &off,
		NoCache:                true,
		Filters: &FilterDTO{
			MaxPrice: &maxPrice,
			MaxStops: &maxStops,
			Airlines: []string{" aa", "dl"},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"JFK", "EWR"}, captured.Origins)
	assert.Equal(t, []string{"MIA"}, captured.Destinations)
	assert.Equal(t, []string{"2026-12-01", "2026-12-03"}, captured.DepartureDates)
	assert.Equal(t, []string{"2026-12-10"}, captured.ReturnDates)
	assert.Equal(t, 2, captured.Adults)
	assert.Equal(t, 1, captured.Infants)
	assert.Equal(t, domain.CabinBusiness, captured.CabinClass)
	assert.Equal(t, "EUR", captured.Currency)
	assert.True(t, captured.ForceRefresh)
	require.NotNil(t, captured.IncludeSeparateTickets)
	assert.False(t, *captured.IncludeSeparateTickets)
	require.NotNil(t, captured.Filters)
	assert.Equal(t, &maxPrice, captured.Filters.MaxPrice)
	assert.Equal(t, []string{"AA", "DL"}, captured.Filters.Airlines)

	var body SearchResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotNil(t, body.Offers)
	assert.Empty(t, body.Offers)
}

func TestSearchOffers_InvalidJSON(t *testing.T) {
	e, _ := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/flights/search", strings.NewReader("{invalid json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, response.CodeInvalidRequest, decodeError(t, rec).Code)
}

func TestSearchOffers_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      map[string]interface{}
		wantField string
	}{
		{
			name:      "missing origin",
			body:      map[string]interface{}{"destination": "MIA", "departureDate": "2026-12-01"},
			wantField: "origin",
		},
		{
			name:      "same origin and destination",
			body:      map[string]interface{}{"origin": "JFK", "destination": "JFK", "departureDate": "2026-12-01"},
			wantField: "destination",
		},
		{
			name:      "bad date",
			body:      map[string]interface{}{"origin": "JFK", "destination": "MIA", "departureDate": "01/12/2026"},
			wantField: "departureDate",
		},
		{
			name:      "zero adults",
			body:      map[string]interface{}{"origin": "JFK", "destination": "MIA", "departureDate": "2026-12-01", "adults": 0},
			wantField: "adults",
		},
		{
			name:      "unknown sort",
			body:      map[string]interface{}{"origin": "JFK", "destination": "MIA", "departureDate": "2026-12-01", "sortBy": "price"},
			wantField: "sortBy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := setupTestHandler(t)

			rec := makeRequest(e, http.MethodPost, "/api/v1/flights/search", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			detail := decodeError(t, rec)
			assert.Equal(t, response.CodeValidationError, detail.Code)
			assert.Contains(t, detail.Details, tt.wantField)
		})
	}
}

func TestSearchOffers_ErrorMapping(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantStatus     int
		wantCode       string
		wantRetryAfter string
	}{
		{
			name:       "use case validation",
			err:        domain.NewValidationError("departureDate", "too many sub-searches"),
			wantStatus: http.StatusBadRequest,
			wantCode:   response.CodeValidationError,
		},
		{
			name: "every provider rate limited",
			err: &domain.AllProvidersFailedError{Failures: []error{
				domain.NewRateLimitedError("amadeus", 12*time.Second),
				domain.NewRateLimitedError("duffel", 40*time.Second),
			}},
			wantStatus:     http.StatusTooManyRequests,
			wantCode:       response.CodeRateLimited,
			wantRetryAfter: "40",
		},
		{
			name: "every provider timed out",
			err: &domain.AllProvidersFailedError{Failures: []error{
				domain.NewProviderTimeoutError("amadeus"),
				domain.NewProviderTimeoutError("duffel"),
			}},
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   response.CodeTimeout,
		},
		{
			name:       "global deadline",
			err:        fmt.Errorf("search: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   response.CodeTimeout,
		},
		{
			name: "mixed provider failures",
			err: &domain.AllProvidersFailedError{Failures: []error{
				domain.NewProviderTimeoutError("amadeus"),
				domain.NewProviderUnavailableError("duffel"),
			}},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   response.CodeServiceUnavailable,
		},
		{
			name:       "credentials rejected",
			err:        domain.NewProviderError("amadeus", domain.ErrProviderAuth),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   response.CodeServiceUnavailable,
		},
		{
			name:       "unexpected",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   response.CodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, uc := setupTestHandler(t)
			uc.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tt.err)

			rec := makeRequest(e, http.MethodPost, "/api/v1/flights/search", map[string]interface{}{
				"origin": "JFK", "destination": "MIA", "departureDate": "2026-12-01",
			})

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
			if tt.wantRetryAfter != "" {
				assert.Equal(t, tt.wantRetryAfter, rec.Header().Get("Retry-After"))
			}
		})
	}
}

// =====================================================
// Calendar, Routing and Health Tests
// =====================================================

func TestCalendar_Success(t *testing.T) {
	e, uc := setupTestHandler(t)

	observed := time.Date(2026, 11, 1, 12, 0, 0, 0, time.UTC)
	uc.EXPECT().LowestPrices(gomock.Any(), "JFK", "MIA", "2026-12-01", "2026-12-07").
		Return([]domain.LowestPrice{
			{Origin: "JFK", Destination: "MIA", Date: "2026-12-01", Price: 222, Currency: "USD", OfferID: "am-1", ObservedAt: observed},
			{Origin: "JFK", Destination: "MIA", Date: "2026-12-03", Price: 198, Currency: "USD", OfferID: "df-7", ObservedAt: observed},
		}, nil)

	rec := makeRequest(e, http.MethodGet, "/api/v1/flights/calendar?origin=JFK&destination=MIA&from=2026-12-01&to=2026-12-07", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body CalendarResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "JFK", body.Origin)
	require.Len(t, body.Prices, 2)
	assert.Equal(t, 198.0, body.Prices[1].Price)
	assert.Equal(t, "2026-11-01T12:00:00Z", body.Prices[0].ObservedAt)
}

func TestCalendar_MissingParams(t *testing.T) {
	e, _ := setupTestHandler(t)

	rec := makeRequest(e, http.MethodGet, "/api/v1/flights/calendar?origin=JFK", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	detail := decodeError(t, rec)
	assert.Contains(t, detail.Details, "destination")
	assert.Contains(t, detail.Details, "from")
	assert.Contains(t, detail.Details, "to")
}

func TestCalendar_RangeRejectedByUseCase(t *testing.T) {
	e, uc := setupTestHandler(t)
	uc.EXPECT().LowestPrices(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, domain.NewValidationError("to", "range cannot exceed 62 days"))

	rec := makeRequest(e, http.MethodGet, "/api/v1/flights/calendar?origin=JFK&destination=MIA&from=2026-12-01&to=2027-06-01", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoutingDecision(t *testing.T) {
	e, uc := setupTestHandler(t)

	uc.EXPECT().LookupRouting(gomock.Any(), "session-1", "am-1").
		Return(&domain.RoutingDecision{OfferID: "am-1", Channel: domain.ChannelProviderDirect, Reason: "under_500_direct"}, nil)
	uc.EXPECT().LookupRouting(gomock.Any(), "session-1", "missing").
		Return(nil, domain.ErrRoutingNotFound)

	rec := makeRequest(e, http.MethodGet, "/internal/v1/routing/session-1/am-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var decision domain.RoutingDecision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.Equal(t, domain.ChannelProviderDirect, decision.Channel)

	rec = makeRequest(e, http.MethodGet, "/internal/v1/routing/session-1/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, response.CodeNotFound, decodeError(t, rec).Code)
}

func TestHealth(t *testing.T) {
	e, _ := setupTestHandler(t)

	rec := makeRequest(e, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body response.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, []string{"amadeus", "duffel"}, body.Providers)
	assert.Equal(t, "redis", body.Cache)
}
