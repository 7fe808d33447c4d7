package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string   `json:"status"`
	Providers []string `json:"providers"`
	Cache     string   `json:"cache"`
}

// Health writes a health check response.
func Health(c echo.Context, providers []string, cache string) error {
	if providers == nil {
		providers = []string{}
	}
	return c.JSON(http.StatusOK, &HealthResponse{
		Status:    "ok",
		Providers: providers,
		Cache:     cache,
	})
}

// SearchResults writes a 200 OK response with search results.
func SearchResults(c echo.Context, results interface{}) error {
	return c.JSON(http.StatusOK, results)
}
