package adminapi

import (
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/vitrine/storefront/internal/app"
	"github.com/vitrine/storefront/internal/webserver"
)

// Response is the JSON envelope of every admin api answer
type Response struct {
	Code    string      `json:"code"`
	Msg     string      `json:"msg"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

var initOnce sync.Once

// Init registers all admin api routes and the public catalog
func Init() {
	initOnce.Do(func() {
		registerCatalogRoutes()
		registerHealthRoutes()
		registerProductRoutes()
		registerResourceRoutes("/product-types", productTypesWorkflow)
		registerResourceRoutes("/carriers", carriersWorkflow)
		registerNotificationRoutes()
	})
}

func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(webserver.AppContextKey).(app.AppContext)
}

// GetDB returns the gorm handle, nil with the rest backend
func GetDB(c echo.Context) *gorm.DB {
	return GetAppContext(c).DB()
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{Code: "OK", Msg: "success", Data: data})
}

func created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{Code: "OK", Msg: "created", Data: data})
}

func fail(c echo.Context, status int, code, msg string, details interface{}) error {
	return c.JSON(status, Response{Code: code, Msg: msg, Details: details})
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func handleValidationError(c echo.Context, err error) error {
	verrs, isValidation := err.(validator.ValidationErrors)
	if !isValidation {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request parameters", details)
}
