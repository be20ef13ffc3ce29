package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vitrine/storefront/internal/webserver"
)

func registerHealthRoutes() {
	webserver.ApiGET("/health", health)
}

func health(c echo.Context) error {
	status := map[string]interface{}{
		"status":  "ok",
		"backend": GetAppContext(c).Config().Backend.Mode,
	}
	if db := GetDB(c); db != nil {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request().Context())
		}
		if err != nil {
			return fail(c, http.StatusServiceUnavailable, "DATABASE_ERROR", "Database unavailable", err.Error())
		}
	}
	return ok(c, status)
}
