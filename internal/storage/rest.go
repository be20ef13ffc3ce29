package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/guonaihong/gout"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// RestStore uploads into a Supabase Storage bucket
type RestStore struct {
	url    string
	apiKey string
	bucket string
	client *http.Client
}

func NewRestStore(url, apiKey, bucket string, timeout time.Duration) *RestStore {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RestStore{
		url:    strings.TrimRight(url, "/"),
		apiKey: apiKey,
		bucket: bucket,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *RestStore) Upload(ctx context.Context, originalName string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", errors.Wrap(err, "read upload")
	}
	name := ObjectName(originalName)
	contentType := mime.TypeByExtension(filepath.Ext(originalName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var body string
	var code int
	err = gout.New(s.client).POST(fmt.Sprintf("%s/storage/v1/object/%s/%s", s.url, s.bucket, name)).
		WithContext(ctx).
		SetHeader(gout.H{
			"apikey":        s.apiKey,
			"Authorization": "Bearer " + s.apiKey,
			"Content-Type":  contentType,
		}).
		SetBody(data).
		BindBody(&body).
		Code(&code).
		Do()
	if err != nil {
		return "", errors.Wrap(err, "upload object")
	}
	if code < 200 || code >= 300 {
		var resp struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		_ = jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal([]byte(body), &resp)
		msg := resp.Message
		if msg == "" {
			msg = resp.Error
		}
		if msg == "" {
			msg = http.StatusText(code)
		}
		return "", errors.New(msg)
	}
	return name, nil
}

func (s *RestStore) PublicURL(name string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.url, s.bucket, name)
}
