// Package http provides the HTTP handler layer for the offer search API.
// It handles request parsing, validation, response formatting, and error mapping.
package http

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/flight-search/offer-aggregation-engine/internal/adapter/http/middleware"
	"github.com/flight-search/offer-aggregation-engine/internal/adapter/http/response"
	"github.com/flight-search/offer-aggregation-engine/internal/domain"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/logger"
	"github.com/flight-search/offer-aggregation-engine/internal/usecase"
)

// OfferHandler handles HTTP requests for offer-related endpoints.
type OfferHandler struct {
	useCase   usecase.OfferSearchUseCase
	providers []string
	cache     string
	log       zerolog.Logger
}

// HandlerOption customizes an OfferHandler.
type HandlerOption func(*OfferHandler)

// WithHealthInfo sets what the health endpoint reports.
func WithHealthInfo(providers []string, cache string) HandlerOption {
	return func(h *OfferHandler) {
		h.providers = providers
		h.cache = cache
	}
}

// WithLogger sets the logger requests inherit.
func WithLogger(log zerolog.Logger) HandlerOption {
	return func(h *OfferHandler) {
		h.log = log
	}
}

// NewOfferHandler creates a new OfferHandler with the given use case.
func NewOfferHandler(uc usecase.OfferSearchUseCase, opts ...HandlerOption) *OfferHandler {
	h := &OfferHandler{
		useCase: uc,
		cache:   "memory",
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SearchOffers handles POST /api/v1/flights/search
//
// @Summary Search for flight offers
// @Description Search every provider, merge and price the offers, and return them ranked
// @Tags flights
// @Accept json
// @Produce json
// @Param request body SearchOffersRequest true "Search criteria"
// @Success 200 {object} SearchResponseDTO
// @Failure 400 {object} response.ErrorDetail "Validation error"
// @Failure 429 {object} response.ErrorDetail "Providers rate limited"
// @Failure 503 {object} response.ErrorDetail "Service unavailable"
// @Failure 504 {object} response.ErrorDetail "Gateway timeout"
// @Router /flights/search [post]
func (h *OfferHandler) SearchOffers(c echo.Context) error {
	var req SearchOffersRequest

	if err := c.Bind(&req); err != nil {
		return response.InvalidRequestBody(c)
	}

	if err := req.Validate(); err != nil {
		return h.handleValidationError(c, err)
	}

	criteria := ToDomainCriteria(&req)
	opts := ToSearchOptions(&req)

	result, err := h.useCase.Search(h.requestContext(c), criteria, opts)
	if err != nil {
		return h.handleError(c, err)
	}

	return response.SearchResults(c, ToSearchResponseDTO(result, opts))
}

// Calendar handles GET /api/v1/flights/calendar
//
// @Summary Lowest observed price per date
// @Description Returns the cheapest price seen by recent searches for each date of a route
// @Tags flights
// @Produce json
// @Param origin query string true "Origin airport" example(JFK)
// @Param destination query string true "Destination airport" example(MIA)
// @Param from query string true "First date (YYYY-MM-DD)"
// @Param to query string true "Last date (YYYY-MM-DD)"
// @Success 200 {object} CalendarResponseDTO
// @Failure 400 {object} response.ErrorDetail "Validation error"
// @Router /flights/calendar [get]
func (h *OfferHandler) Calendar(c echo.Context) error {
	var req CalendarRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid query parameters")
	}
	if err := req.Validate(); err != nil {
		return h.handleValidationError(c, err)
	}

	prices, err := h.useCase.LowestPrices(h.requestContext(c), req.Origin, req.Destination, req.From, req.To)
	if err != nil {
		return h.handleError(c, err)
	}

	origin, _ := domain.ExtractAirportCode(req.Origin)
	destination, _ := domain.ExtractAirportCode(req.Destination)
	return response.OK(c, ToCalendarResponseDTO(origin, destination, prices))
}

// RoutingDecision handles GET /internal/v1/routing/:session/:offer
// It serves the booking step and is not part of the public API.
func (h *OfferHandler) RoutingDecision(c echo.Context) error {
	decision, err := h.useCase.LookupRouting(h.requestContext(c), c.Param("session"), c.Param("offer"))
	if err != nil {
		return h.handleError(c, err)
	}
	return response.OK(c, decision)
}

// Health handles GET /health
//
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} response.HealthResponse
// @Router /health [get]
func (h *OfferHandler) Health(c echo.Context) error {
	return response.Health(c, h.providers, h.cache)
}

// requestContext attaches a request-scoped logger to the request context.
func (h *OfferHandler) requestContext(c echo.Context) context.Context {
	ctx := c.Request().Context()
	if zerolog.Ctx(ctx).GetLevel() != zerolog.Disabled {
		return ctx
	}
	log := h.log
	if id := middleware.GetRequestID(c); id != "" {
		log = log.With().Str("request_id", id).Logger()
	}
	return logger.IntoContext(ctx, log)
}

// handleValidationError handles validation errors and returns a 400 response.
func (h *OfferHandler) handleValidationError(c echo.Context, err error) error {
	var validationErrs *ValidationErrors
	if errors.As(err, &validationErrs) {
		return response.ValidationError(c, validationErrs.ToMap())
	}

	return response.ValidationErrorWithMessage(c, err.Error())
}

// handleError maps domain errors to appropriate HTTP responses.
func (h *OfferHandler) handleError(c echo.Context, err error) error {
	if errors.Is(err, domain.ErrInvalidRequest) {
		return response.ValidationErrorWithMessage(c, err.Error())
	}

	if errors.Is(err, domain.ErrRoutingNotFound) {
		return response.NotFound(c, "Routing decision not found or expired")
	}

	// Rate limiting is only reported when every provider refused
	if errors.Is(err, domain.ErrProviderRateLimited) {
		var apf *domain.AllProvidersFailedError
		if errors.As(err, &apf) {
			return response.TooManyRequests(c, apf.RetryAfter())
		}
		return response.TooManyRequests(c, 0)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return response.GatewayTimeout(c)
	}

	if errors.Is(err, context.Canceled) {
		return response.RequestCancelled(c)
	}

	if errors.Is(err, domain.ErrProviderAuth) {
		return response.ServiceUnavailableWithMessage(c, "Offer providers rejected the service credentials")
	}

	if errors.Is(err, domain.ErrAllProvidersFailed) || errors.Is(err, domain.ErrProviderUnavailable) {
		return response.ServiceUnavailable(c)
	}

	h.log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	return response.InternalServerError(c)
}
