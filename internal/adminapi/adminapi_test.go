package adminapi

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vitrine/storefront/config"
	"github.com/vitrine/storefront/internal/admin"
	"github.com/vitrine/storefront/internal/domain"
	"github.com/vitrine/storefront/internal/gateway"
	"github.com/vitrine/storefront/internal/notify"
	"github.com/vitrine/storefront/internal/querycache"
	"github.com/vitrine/storefront/internal/storage"
	"github.com/vitrine/storefront/internal/webserver"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type testAppContext struct {
	cfg     *config.AppConfig
	db      *gorm.DB
	console *admin.Console
	feed    *notify.Feed
	cache   *querycache.Client
}

func (a *testAppContext) Config() *config.AppConfig { return a.cfg }
func (a *testAppContext) DB() *gorm.DB              { return a.db }
func (a *testAppContext) Console() *admin.Console   { return a.console }
func (a *testAppContext) Feed() *notify.Feed        { return a.feed }
func (a *testAppContext) Cache() *querycache.Client { return a.cache }

func setupServer(t *testing.T, jwtSecret string) (*echo.Echo, *testAppContext) {
	t.Helper()
	Init()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.Tables...))

	cfg := *config.DefaultAppConfig
	cfg.System.Workdir = t.TempDir()
	cfg.Web.JwtSecret = jwtSecret
	cfg.Storage.Mode = "local"

	images, err := storage.NewLocalStore(cfg.GetUploadDir(), "/uploads")
	require.NoError(t, err)

	appCtx := &testAppContext{
		cfg:   &cfg,
		db:    db,
		feed:  notify.NewFeed(),
		cache: querycache.NewClient(querycache.NewMemoryStore(time.Minute), time.Minute),
	}
	appCtx.console = admin.NewConsole(admin.Gateways{
		Products:     gateway.NewGormGateway[domain.Product](db, gateway.GormOptions{Resource: "products", Preloads: []string{"Category"}}),
		ProductTypes: gateway.NewGormGateway[domain.ProductType](db, gateway.GormOptions{Resource: "categories"}),
		Carriers:     gateway.NewGormGateway[domain.Carrier](db, gateway.GormOptions{Resource: "carriers"}),
	}, appCtx.cache, appCtx.feed, images)

	return webserver.NewAdminServer(appCtx).Echo(), appCtx
}

type envelope struct {
	Code    string              `json:"code"`
	Msg     string              `json:"msg"`
	Data    jsoniter.RawMessage `json:"data"`
	Details jsoniter.RawMessage `json:"details"`
}

func call(t *testing.T, e *echo.Echo, method, path, body string, headers ...string) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, webserver.ApiPrefix+path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestCarrierLifecycleOverHTTP(t *testing.T) {
	e, appCtx := setupServer(t, "")

	code, env := call(t, e, http.MethodPost, "/carriers", `{"name":"DHL"}`)
	require.Equal(t, http.StatusCreated, code, env.Msg)
	var saved saveResponse[domain.Carrier]
	require.NoError(t, json.Unmarshal(env.Data, &saved))
	assert.Equal(t, "/admin/carriers", saved.Redirect)
	assert.Equal(t, "DHL", saved.Record.Name)
	id := saved.Record.ID
	require.NotZero(t, id)

	code, env = call(t, e, http.MethodGet, "/carriers", "")
	require.Equal(t, http.StatusOK, code)
	var list listResponse[domain.Carrier]
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "DHL", list.Items[0].Name)
	assert.Equal(t, []string{"edit", "delete"}, list.Table.Rows[0].Actions)

	code, env = call(t, e, http.MethodPut, fmt.Sprintf("/carriers/%d", id), `{"name":"DHL Express"}`)
	require.Equal(t, http.StatusOK, code, env.Msg)
	require.NoError(t, json.Unmarshal(env.Data, &saved))
	assert.Equal(t, id, saved.Record.ID)
	assert.Equal(t, "DHL Express", saved.Record.Name)

	code, env = call(t, e, http.MethodDelete, fmt.Sprintf("/carriers/%d", id), "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, fmt.Sprintf(`{"id":%d,"deleted":false}`, id), string(env.Data))

	code, env = call(t, e, http.MethodGet, fmt.Sprintf("/carriers/%d", id), "")
	require.Equal(t, http.StatusOK, code)

	code, env = call(t, e, http.MethodDelete, fmt.Sprintf("/carriers/%d?confirm=true", id), "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, fmt.Sprintf(`{"id":%d,"deleted":true}`, id), string(env.Data))

	code, env = call(t, e, http.MethodGet, "/carriers", "")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Empty(t, list.Items)
	require.Len(t, list.Table.Rows, 1)
	assert.True(t, list.Table.Rows[0].Placeholder)

	code, env = call(t, e, http.MethodGet, "/notifications", "")
	require.Equal(t, http.StatusOK, code)
	var toasts []notify.Toast
	require.NoError(t, json.Unmarshal(env.Data, &toasts))
	var messages []string
	for _, toast := range toasts {
		messages = append(messages, toast.Message)
	}
	assert.Equal(t, []string{"Carrier created", "Carrier updated", "Carrier deleted"}, messages)
	assert.Equal(t, 0, appCtx.feed.Len())
}

func TestCreateWithBlankNameIsRejected(t *testing.T) {
	e, appCtx := setupServer(t, "")
	code, env := call(t, e, http.MethodPost, "/product-types", `{"nome":"   "}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)
	assert.JSONEq(t, `{"nome":"Name is required"}`, string(env.Details))

	var count int64
	require.NoError(t, appCtx.db.Model(&domain.ProductType{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEditProductTypeOverHTTP(t *testing.T) {
	e, appCtx := setupServer(t, "")
	for _, name := range []string{"Livros", "Games", "Eletrônicos"} {
		require.NoError(t, appCtx.db.Create(&domain.ProductType{Name: name}).Error)
	}

	code, env := call(t, e, http.MethodPut, "/product-types/3", `{"nome":"Eletro"}`)
	require.Equal(t, http.StatusOK, code, env.Msg)

	code, env = call(t, e, http.MethodGet, "/product-types", "")
	require.Equal(t, http.StatusOK, code)
	var list listResponse[domain.ProductType]
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Items, 3)
	assert.Equal(t, "Eletro", list.Items[0].Name)
	assert.EqualValues(t, 3, list.Items[0].ID)
}

func TestUpdateMissingRecord(t *testing.T) {
	e, _ := setupServer(t, "")
	code, env := call(t, e, http.MethodPut, "/carriers/99", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", env.Code)

	code, _ = call(t, e, http.MethodGet, "/carriers/abc", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestConcurrentSaveIsRejected(t *testing.T) {
	e, appCtx := setupServer(t, "")
	require.NoError(t, appCtx.db.Create(&domain.Carrier{Name: "Jadlog"}).Error)

	release, busy := acquire("carriers:edit:1")
	require.False(t, busy)
	code, env := call(t, e, http.MethodPut, "/carriers/1", `{"name":"Jadlog Log"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "SUBMIT_IN_PROGRESS", env.Code)

	release2, busy := acquire("carriers:new:form-1")
	require.False(t, busy)
	code, _ = call(t, e, http.MethodPost, "/carriers", `{"name":"Loggi"}`, FormTokenHeader, "form-1")
	assert.Equal(t, http.StatusConflict, code)
	release2()
	release()

	code, _ = call(t, e, http.MethodPost, "/carriers", `{"name":"Loggi"}`, FormTokenHeader, "form-1")
	assert.Equal(t, http.StatusCreated, code)
}

func TestProductsPagedOverHTTP(t *testing.T) {
	e, appCtx := setupServer(t, "")
	cat := domain.ProductType{Name: "Games"}
	require.NoError(t, appCtx.db.Create(&cat).Error)

	code, env := call(t, e, http.MethodPost, "/products", `{"title":"Console","category_id":"abc"}`)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.JSONEq(t, `{"category_id":"Category must be a number"}`, string(env.Details))

	for i := 1; i <= 13; i++ {
		body := fmt.Sprintf(`{"title":"Jogo %02d","category_id":%d}`, i, cat.ID)
		code, env := call(t, e, http.MethodPost, "/products", body)
		require.Equal(t, http.StatusCreated, code, env.Msg)
	}

	code, env = call(t, e, http.MethodGet, "/products?page=2", "")
	require.Equal(t, http.StatusOK, code)
	var list listResponse[domain.Product]
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 2, list.Page)
	assert.EqualValues(t, 13, list.Total)
	assert.Equal(t, 2, list.TotalPages)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Jogo 13", list.Items[0].Title)
	require.NotNil(t, list.Items[0].Category)
	assert.Equal(t, "Games", list.Items[0].Category.Name)

	code, _ = call(t, e, http.MethodGet, "/products?page=-1", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestUploadProductImage(t *testing.T) {
	e, appCtx := setupServer(t, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "capa.jpg")
	require.NoError(t, err)
	_, _ = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, webserver.ApiPrefix+"/products/images", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var out map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.True(t, strings.HasSuffix(out["image_url"], ".jpg"))
	assert.Equal(t, "/uploads/"+out["image_url"], out["public_url"])
	assert.FileExists(t, appCtx.cfg.GetUploadDir()+"/"+out["image_url"])
}

func TestHealthAndGuard(t *testing.T) {
	e, _ := setupServer(t, "secret")

	code, env := call(t, e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK", env.Code)

	code, _ = call(t, e, http.MethodGet, "/carriers", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	token, err := webserver.IssueAdminToken("secret", "ana", time.Hour)
	require.NoError(t, err)
	code, _ = call(t, e, http.MethodGet, "/carriers", "", echo.HeaderAuthorization, "Bearer "+token)
	assert.Equal(t, http.StatusOK, code)
}

func TestLargeIntegerValuesKeepPrecision(t *testing.T) {
	e, appCtx := setupServer(t, "")

	code, env := call(t, e, http.MethodPost, "/products", `{"title":"Console","category_id":9007199254740993}`)
	require.Equal(t, http.StatusCreated, code, env.Msg)

	var saved domain.Product
	require.NoError(t, appCtx.db.First(&saved, "title = ?", "Console").Error)
	assert.EqualValues(t, int64(9007199254740993), saved.CategoryID)
}

func TestBindValuesReadsNumbersAsText(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"category_id":9007199254740993,"title":"TV","image_url":null}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := echo.New().NewContext(req, httptest.NewRecorder())

	values, err := bindValues(c)
	require.NoError(t, err)
	assert.Equal(t, admin.Values{"category_id": "9007199254740993", "title": "TV", "image_url": ""}, values)
}

func publicCall(t *testing.T, e *echo.Echo, method, path string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, webserver.PublicPrefix+path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestPublicCatalogNeedsNoToken(t *testing.T) {
	e, appCtx := setupServer(t, "secret")
	cat := domain.ProductType{Name: "Livros"}
	require.NoError(t, appCtx.db.Create(&cat).Error)
	for i := 1; i <= 13; i++ {
		require.NoError(t, appCtx.db.Create(&domain.Product{Title: fmt.Sprintf("Livro %02d", i), CategoryID: cat.ID}).Error)
	}

	code, env := publicCall(t, e, http.MethodGet, "/products?page=2")
	require.Equal(t, http.StatusOK, code, env.Msg)
	var page catalogPage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 2, page.Page)
	assert.EqualValues(t, 13, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Livro 13", page.Items[0].Title)
	require.NotNil(t, page.Items[0].Category)
	assert.Equal(t, "Livros", page.Items[0].Category.Name)

	code, _ = publicCall(t, e, http.MethodGet, "/products?page=-1")
	assert.Equal(t, http.StatusBadRequest, code)

	// writes stay behind the admin guard
	code, _ = publicCall(t, e, http.MethodPost, "/products")
	assert.Contains(t, []int{http.StatusNotFound, http.StatusMethodNotAllowed}, code)
	code, _ = call(t, e, http.MethodGet, "/products", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	// an admin save refreshes the cached storefront page
	token, err := webserver.IssueAdminToken("secret", "ana", time.Hour)
	require.NoError(t, err)
	body := fmt.Sprintf(`{"title":"Livro 14","category_id":%d}`, cat.ID)
	code, env = call(t, e, http.MethodPost, "/products", body, echo.HeaderAuthorization, "Bearer "+token)
	require.Equal(t, http.StatusCreated, code, env.Msg)

	code, env = publicCall(t, e, http.MethodGet, "/products?page=2")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.EqualValues(t, 14, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Livro 14", page.Items[1].Title)
}
