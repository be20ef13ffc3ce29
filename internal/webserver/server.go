package webserver

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/vitrine/storefront/config"
	"github.com/vitrine/storefront/internal/app"
	"github.com/vitrine/storefront/pkg/common"
)

const (
	ApiPrefix     = "/api/v1/admin"
	PublicPrefix  = "/api/v1"
	AppContextKey = "appctx"
)

type route struct {
	method      string
	path        string
	handler     echo.HandlerFunc
	middlewares []echo.MiddlewareFunc
}

var (
	apiRoutes    []route
	publicRoutes []route
)

func addRoute(method, path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	apiRoutes = append(apiRoutes, route{method: method, path: path, handler: h, middlewares: m})
}

// ApiGET registers a GET handler under the admin api prefix
func ApiGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(http.MethodGet, path, h, m...)
}

func ApiPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(http.MethodPost, path, h, m...)
}

func ApiPUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(http.MethodPut, path, h, m...)
}

func ApiDELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(http.MethodDelete, path, h, m...)
}

// PublicGET registers a read-only handler under the public prefix, outside the admin guard
func PublicGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	publicRoutes = append(publicRoutes, route{method: http.MethodGet, path: path, handler: h, middlewares: m})
}

// AdminServer serves the admin api
type AdminServer struct {
	root   *echo.Echo
	appCtx app.AppContext
	cfg    *config.AppConfig
}

func NewAdminServer(appCtx app.AppContext) *AdminServer {
	cfg := appCtx.Config()
	s := &AdminServer{root: echo.New(), appCtx: appCtx, cfg: cfg}
	s.root.HideBanner = true
	s.root.HidePort = true
	s.root.Validator = NewValidator()
	s.root.HTTPErrorHandler = s.errorHandler

	s.root.Use(middleware.Recover())
	s.root.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return strconv.FormatInt(common.UUIDint64(), 10)
		},
	}))
	s.root.Use(requestLogger())
	s.root.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-Form-Token"},
	}))

	if cfg.Storage.Mode != "rest" {
		s.root.Static("/uploads", cfg.GetUploadDir())
	}

	withApp := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(AppContextKey, appCtx)
			return next(c)
		}
	}

	public := s.root.Group(PublicPrefix)
	for _, r := range publicRoutes {
		public.Add(r.method, r.path, r.handler, append([]echo.MiddlewareFunc{withApp}, r.middlewares...)...)
	}

	api := s.root.Group(ApiPrefix, withApp)
	if cfg.Web.JwtSecret != "" {
		api.Use(AdminGuard(cfg.Web.JwtSecret)...)
	} else {
		zap.L().Warn("web.jwt_secret is empty, admin api is not protected", zap.String("namespace", "webserver"))
	}
	for _, r := range apiRoutes {
		api.Add(r.method, r.path, r.handler, r.middlewares...)
	}
	return s
}

// Echo exposes the router, mainly for tests
func (s *AdminServer) Echo() *echo.Echo {
	return s.root
}

func (s *AdminServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Web.Host, s.cfg.Web.Port)
	zap.L().Info("admin api server listening", zap.String("namespace", "webserver"), zap.String("addr", addr))
	err := s.root.Start(addr)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *AdminServer) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.root.Shutdown(ctx)
}

func (s *AdminServer) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := err.Error()
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}
	if code >= http.StatusInternalServerError {
		zap.L().Error("request failed", zap.String("namespace", "webserver"), zap.String("path", c.Path()), zap.Error(err))
	}
	_ = c.JSON(code, map[string]interface{}{
		"code": http.StatusText(code),
		"msg":  msg,
	})
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("namespace", "webserver"),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			zap.L().Debug("request", fields...)
			return nil
		},
	})
}
