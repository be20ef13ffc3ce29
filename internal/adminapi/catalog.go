package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vitrine/storefront/internal/domain"
	"github.com/vitrine/storefront/internal/webserver"
)

type catalogPage struct {
	Items      []domain.Product `json:"items"`
	Page       int              `json:"page"`
	Total      int64            `json:"total"`
	TotalPages int              `json:"total_pages"`
}

// registerCatalogRoutes exposes the storefront product listing without the admin guard.
// Pages share the admin list cache keys, so admin mutations refresh them too.
func registerCatalogRoutes() {
	webserver.PublicGET("/products", listCatalog)
}

func listCatalog(c echo.Context) error {
	var q listQuery
	if err := c.Bind(&q); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse query parameters", nil)
	}
	if err := c.Validate(&q); err != nil {
		return handleValidationError(c, err)
	}

	state := productsWorkflow(c).List().Load(c.Request().Context(), q.Page)
	if state.Err != nil {
		return fail(c, http.StatusBadGateway, "REMOTE_ERROR", state.Err.Error(), nil)
	}
	items := state.Rows
	if items == nil {
		items = []domain.Product{}
	}
	return ok(c, catalogPage{
		Items:      items,
		Page:       state.Page,
		Total:      state.Total,
		TotalPages: state.TotalPages,
	})
}
