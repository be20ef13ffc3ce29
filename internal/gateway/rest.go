package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/guonaihong/gout"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RestConfig addresses one table behind a PostgREST endpoint (the hosted Supabase project)
type RestConfig struct {
	URL      string // project url, e.g. https://xyz.supabase.co
	APIKey   string
	Table    string
	Resource string        // resource name used in error messages, defaults to Table
	Select   string        // select expression, defaults to "*"
	Timeout  time.Duration // per request, defaults to 10s
	Client   *http.Client  // optional, overrides Timeout
}

// RestGateway implements Gateway over the PostgREST HTTP interface
type RestGateway[T any] struct {
	cfg    RestConfig
	client *http.Client
}

var _ Gateway[struct{}] = (*RestGateway[struct{}])(nil)

func NewRestGateway[T any](cfg RestConfig) *RestGateway[T] {
	if cfg.Select == "" {
		cfg.Select = "*"
	}
	if cfg.Resource == "" {
		cfg.Resource = cfg.Table
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &RestGateway[T]{cfg: cfg, client: client}
}

// restError is the error body returned by PostgREST
type restError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

type rangeHeader struct {
	ContentRange string `header:"Content-Range"`
}

func (g *RestGateway[T]) endpoint() string {
	return strings.TrimRight(g.cfg.URL, "/") + "/rest/v1/" + g.cfg.Table
}

func (g *RestGateway[T]) headers(extra gout.H) gout.H {
	h := gout.H{
		"apikey":        g.cfg.APIKey,
		"Authorization": "Bearer " + g.cfg.APIKey,
		"Accept":        "application/json",
	}
	for k, v := range extra {
		h[k] = v
	}
	return h
}

func orderParam(opts ListOptions) string {
	if opts.OrderBy == "" {
		return ""
	}
	dir := "asc"
	if opts.Desc {
		dir = "desc"
	}
	return opts.OrderBy + "." + dir
}

// check converts transport failures and non 2xx answers into a RemoteOperationError
func (g *RestGateway[T]) check(op string, err error, code int, body string) error {
	if err != nil {
		return remoteError(g.cfg.Resource, op, err)
	}
	if code >= 200 && code < 300 {
		return nil
	}
	var re restError
	msg := ""
	if json.Unmarshal([]byte(body), &re) == nil {
		msg = re.Message
	}
	if msg == "" {
		msg = fmt.Sprintf("%s %s failed: %d %s", g.cfg.Resource, op, code, http.StatusText(code))
	}
	return &RemoteOperationError{
		Resource: g.cfg.Resource,
		Op:       op,
		Message:  msg,
		Err:      errors.Errorf("postgrest status %d code %s", code, re.Code),
	}
}

func (g *RestGateway[T]) decodeRows(op, body string) ([]T, error) {
	rows := make([]T, 0)
	if strings.TrimSpace(body) == "" {
		return rows, nil
	}
	if err := json.Unmarshal([]byte(body), &rows); err != nil {
		return nil, remoteError(g.cfg.Resource, op, errors.Wrap(err, "decode response"))
	}
	return rows, nil
}

func (g *RestGateway[T]) List(ctx context.Context, opts ListOptions) ([]T, error) {
	query := gout.H{"select": g.cfg.Select}
	if o := orderParam(opts); o != "" {
		query["order"] = o
	}
	var body string
	var code int
	err := gout.New(g.client).GET(g.endpoint()).
		WithContext(ctx).
		SetHeader(g.headers(nil)).
		SetQuery(query).
		BindBody(&body).
		Code(&code).
		Do()
	if err := g.check("list", err, code, body); err != nil {
		return nil, err
	}
	return g.decodeRows("list", body)
}

func (g *RestGateway[T]) ListPage(ctx context.Context, req PageRequest, opts ListOptions) (Page[T], error) {
	req = req.Normalize()
	offset, upper := req.Bounds()
	query := gout.H{
		"select": g.cfg.Select,
		"offset": offset,
		"limit":  req.Limit,
	}
	if o := orderParam(opts); o != "" {
		query["order"] = o
	}
	var body string
	var code int
	var hdr rangeHeader
	err := gout.New(g.client).GET(g.endpoint()).
		WithContext(ctx).
		SetHeader(g.headers(gout.H{
			"Prefer":     "count=exact",
			"Range-Unit": "items",
			"Range":      fmt.Sprintf("%d-%d", offset, upper),
		})).
		SetQuery(query).
		BindBody(&body).
		BindHeader(&hdr).
		Code(&code).
		Do()
	if err := g.check("list", err, code, body); err != nil {
		return Page[T]{}, err
	}
	rows, err := g.decodeRows("list", body)
	if err != nil {
		return Page[T]{}, err
	}
	total, ok := parseContentRangeTotal(hdr.ContentRange)
	if !ok {
		total = int64(offset + len(rows))
	}
	return newPage(rows, total, req), nil
}

// parseContentRangeTotal reads the total from "0-11/25" or "*/0"
func parseContentRangeTotal(v string) (int64, bool) {
	idx := strings.LastIndex(v, "/")
	if idx < 0 {
		return 0, false
	}
	total, err := strconv.ParseInt(strings.TrimSpace(v[idx+1:]), 10, 64)
	if err != nil {
		return 0, false
	}
	return total, true
}

func (g *RestGateway[T]) GetByID(ctx context.Context, id int64) (T, error) {
	var zero T
	var body string
	var code int
	err := gout.New(g.client).GET(g.endpoint()).
		WithContext(ctx).
		SetHeader(g.headers(nil)).
		SetQuery(gout.H{"select": g.cfg.Select, "id": eq(id)}).
		BindBody(&body).
		Code(&code).
		Do()
	if err := g.check("get", err, code, body); err != nil {
		return zero, err
	}
	rows, err := g.decodeRows("get", body)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, notFound(g.cfg.Resource, "get", id)
	}
	return rows[0], nil
}

func (g *RestGateway[T]) Create(ctx context.Context, fields Fields) (T, error) {
	var zero T
	var body string
	var code int
	err := gout.New(g.client).POST(g.endpoint()).
		WithContext(ctx).
		SetHeader(g.headers(gout.H{"Prefer": "return=representation"})).
		SetQuery(gout.H{"select": g.cfg.Select}).
		SetJSON([]Fields{fields.Clone()}).
		BindBody(&body).
		Code(&code).
		Do()
	if err := g.check("create", err, code, body); err != nil {
		return zero, err
	}
	rows, err := g.decodeRows("create", body)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, remoteError(g.cfg.Resource, "create", errors.New("backend returned no row"))
	}
	return rows[0], nil
}

func (g *RestGateway[T]) Update(ctx context.Context, id int64, fields Fields) (T, error) {
	var zero T
	var body string
	var code int
	err := gout.New(g.client).PATCH(g.endpoint()).
		WithContext(ctx).
		SetHeader(g.headers(gout.H{"Prefer": "return=representation"})).
		SetQuery(gout.H{"select": g.cfg.Select, "id": eq(id)}).
		SetJSON(fields.Clone()).
		BindBody(&body).
		Code(&code).
		Do()
	if err := g.check("update", err, code, body); err != nil {
		return zero, err
	}
	rows, err := g.decodeRows("update", body)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, notFound(g.cfg.Resource, "update", id)
	}
	return rows[0], nil
}

func (g *RestGateway[T]) Delete(ctx context.Context, id int64) error {
	var body string
	var code int
	err := gout.New(g.client).DELETE(g.endpoint()).
		WithContext(ctx).
		SetHeader(g.headers(nil)).
		SetQuery(gout.H{"id": eq(id)}).
		BindBody(&body).
		Code(&code).
		Do()
	return g.check("delete", err, code, body)
}

func eq(id int64) string {
	return "eq." + strconv.FormatInt(id, 10)
}
