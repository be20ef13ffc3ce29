package adminapi

import (
	stdjson "encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/vitrine/storefront/internal/admin"
	"github.com/vitrine/storefront/internal/domain"
	"github.com/vitrine/storefront/internal/gateway"
	"github.com/vitrine/storefront/internal/webserver"
)

// FormTokenHeader identifies one open create form so double submits are rejected
const FormTokenHeader = "X-Form-Token"

type listQuery struct {
	Page int `query:"page" validate:"omitempty,min=1"`
}

type deleteQuery struct {
	Confirm bool `query:"confirm"`
}

type listResponse[T any] struct {
	Items      []T         `json:"items"`
	Table      admin.Table `json:"table"`
	Page       int         `json:"page"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"total_pages"`
}

type saveResponse[T any] struct {
	Record   T      `json:"record"`
	Redirect string `json:"redirect"`
}

func productsWorkflow(c echo.Context) *admin.Workflow[domain.Product] {
	return GetAppContext(c).Console().Products
}

func productTypesWorkflow(c echo.Context) *admin.Workflow[domain.ProductType] {
	return GetAppContext(c).Console().ProductTypes
}

func carriersWorkflow(c echo.Context) *admin.Workflow[domain.Carrier] {
	return GetAppContext(c).Console().Carriers
}

// pendingSaves holds the forms with a save in flight, keyed by resource and record
var pendingSaves sync.Map

type resourceHandlers[T domain.Record] struct {
	workflow func(c echo.Context) *admin.Workflow[T]
}

// registerResourceRoutes registers list, read, create, update and delete routes of one resource
func registerResourceRoutes[T domain.Record](prefix string, wf func(c echo.Context) *admin.Workflow[T]) {
	h := resourceHandlers[T]{workflow: wf}
	webserver.ApiGET(prefix, h.list)
	webserver.ApiGET(prefix+"/:id", h.get)
	webserver.ApiPOST(prefix, h.create)
	webserver.ApiPUT(prefix+"/:id", h.update)
	webserver.ApiDELETE(prefix+"/:id", h.delete)
}

func (h resourceHandlers[T]) list(c echo.Context) error {
	var q listQuery
	if err := c.Bind(&q); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse query parameters", nil)
	}
	if err := c.Validate(&q); err != nil {
		return handleValidationError(c, err)
	}

	state := h.workflow(c).List().Load(c.Request().Context(), q.Page)
	table := state.Table()
	if state.Err != nil {
		return fail(c, http.StatusBadGateway, "REMOTE_ERROR", table.Banner, nil)
	}
	items := state.Rows
	if items == nil {
		items = []T{}
	}
	return ok(c, listResponse[T]{
		Items:      items,
		Table:      table,
		Page:       state.Page,
		Total:      state.Total,
		TotalPages: state.TotalPages,
	})
}

func (h resourceHandlers[T]) get(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid record ID", nil)
	}
	rec, err := h.workflow(c).Resource.Gateway.GetByID(c.Request().Context(), id)
	if err != nil {
		return remoteFailure(c, err)
	}
	return ok(c, rec)
}

func (h resourceHandlers[T]) create(c echo.Context) error {
	wf := h.workflow(c)
	values, err := bindValues(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request body", err.Error())
	}

	if token := strings.TrimSpace(c.Request().Header.Get(FormTokenHeader)); token != "" {
		release, busy := acquire(wf.Resource.Name + ":new:" + token)
		if busy {
			return fail(c, http.StatusConflict, "SUBMIT_IN_PROGRESS", "A save for this form is already in progress", nil)
		}
		defer release()
	}

	form := wf.NewForm(nil)
	form.SetAll(values)
	return writeSubmission(c, form.Submit(c.Request().Context()), http.StatusCreated)
}

func (h resourceHandlers[T]) update(c echo.Context) error {
	wf := h.workflow(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid record ID", nil)
	}
	values, err := bindValues(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request body", err.Error())
	}

	release, busy := acquire(wf.Resource.Name + ":edit:" + strconv.FormatInt(id, 10))
	if busy {
		return fail(c, http.StatusConflict, "SUBMIT_IN_PROGRESS", "A save for this record is already in progress", nil)
	}
	defer release()

	rec, err := wf.Resource.Gateway.GetByID(c.Request().Context(), id)
	if err != nil {
		return remoteFailure(c, err)
	}
	nav := wf.List().Edit(rec)
	form := wf.NewForm(&nav)
	form.SetAll(values)
	return writeSubmission(c, form.Submit(c.Request().Context()), http.StatusOK)
}

func (h resourceHandlers[T]) delete(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid record ID", nil)
	}
	var q deleteQuery
	if err := c.Bind(&q); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse query parameters", nil)
	}

	confirm := admin.ConfirmFunc(func(string) bool { return q.Confirm })
	outcome, err := h.workflow(c).List().Delete(c.Request().Context(), id, confirm)
	if outcome == admin.DeleteFailed {
		return remoteFailure(c, err)
	}
	return ok(c, map[string]interface{}{
		"id":      id,
		"deleted": outcome == admin.DeleteSucceeded,
	})
}

func acquire(key string) (release func(), busy bool) {
	if _, loaded := pendingSaves.LoadOrStore(key, struct{}{}); loaded {
		return nil, true
	}
	return func() { pendingSaves.Delete(key) }, false
}

// numberJSON keeps numbers as their literal text so large ids survive decoding
var numberJSON = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// bindValues reads the request body as raw form values
func bindValues(c echo.Context) (admin.Values, error) {
	body := map[string]interface{}{}
	req := c.Request()
	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if req.ContentLength != 0 {
			if err := numberJSON.NewDecoder(req.Body).Decode(&body); err != nil && err != io.EOF {
				return nil, err
			}
		}
	} else if err := (&echo.DefaultBinder{}).BindBody(c, &body); err != nil {
		return nil, err
	}
	values := make(admin.Values, len(body))
	for k, v := range body {
		if v == nil {
			values[k] = ""
			continue
		}
		if n, isNumber := v.(stdjson.Number); isNumber {
			values[k] = n.String()
			continue
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", k)
		}
		values[k] = s
	}
	return values, nil
}

func writeSubmission[T any](c echo.Context, sub admin.Submission[T], successStatus int) error {
	switch sub.Status {
	case admin.StatusInvalid:
		return fail(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid field values", sub.Errors)
	case admin.StatusBusy:
		return fail(c, http.StatusConflict, "SUBMIT_IN_PROGRESS", "A save for this form is already in progress", nil)
	case admin.StatusFailed:
		return remoteFailure(c, sub.Err)
	}
	resp := saveResponse[T]{Record: sub.Record, Redirect: sub.Redirect}
	if successStatus == http.StatusCreated {
		return created(c, resp)
	}
	return ok(c, resp)
}

func remoteFailure(c echo.Context, err error) error {
	if errors.Is(err, gateway.ErrNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	}
	return fail(c, http.StatusBadGateway, "REMOTE_ERROR", err.Error(), nil)
}
