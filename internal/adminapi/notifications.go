package adminapi

import (
	"github.com/labstack/echo/v4"

	"github.com/vitrine/storefront/internal/notify"
	"github.com/vitrine/storefront/internal/webserver"
)

func registerNotificationRoutes() {
	webserver.ApiGET("/notifications", listNotifications)
	webserver.ApiGET("/cache/stats", cacheStats)
}

// listNotifications hands pending toasts to the browser once
func listNotifications(c echo.Context) error {
	toasts := GetAppContext(c).Feed().Drain()
	if toasts == nil {
		toasts = []notify.Toast{}
	}
	return ok(c, toasts)
}

func cacheStats(c echo.Context) error {
	return ok(c, GetAppContext(c).Cache().Stats())
}
