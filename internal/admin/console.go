package admin

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vitrine/storefront/internal/domain"
	"github.com/vitrine/storefront/internal/gateway"
	"github.com/vitrine/storefront/internal/notify"
	"github.com/vitrine/storefront/internal/querycache"
	"github.com/vitrine/storefront/internal/storage"
)

// Gateways groups the gateway of every managed resource
type Gateways struct {
	Products     gateway.Gateway[domain.Product]
	ProductTypes gateway.Gateway[domain.ProductType]
	Carriers     gateway.Gateway[domain.Carrier]
}

// Console is the admin workflow of the whole catalog
type Console struct {
	Products     *Workflow[domain.Product]
	ProductTypes *Workflow[domain.ProductType]
	Carriers     *Workflow[domain.Carrier]

	Cache    *querycache.Client
	Notifier notify.Notifier
	Images   storage.ObjectStore
}

func NewConsole(gws Gateways, cache *querycache.Client, notifier notify.Notifier, images storage.ObjectStore) *Console {
	return &Console{
		Products:     NewWorkflow(Products(gws.Products), cache, notifier),
		ProductTypes: NewWorkflow(ProductTypes(gws.ProductTypes), cache, notifier),
		Carriers:     NewWorkflow(Carriers(gws.Carriers), cache, notifier),
		Cache:        cache,
		Notifier:     notifier,
		Images:       images,
	}
}

// Resources returns the route names of the managed resources
func (c *Console) Resources() []string {
	return []string{c.Products.Resource.Name, c.ProductTypes.Resource.Name, c.Carriers.Resource.Name}
}

// UploadImage stores a product image and returns the generated object name,
// which is what products keep as image reference.
func (c *Console) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	if c.Images == nil {
		return "", errors.New("image storage is not configured")
	}
	name, err := c.Images.Upload(ctx, filename, r)
	if err != nil {
		zap.L().Error("upload product image failed",
			zap.String("namespace", "admin"),
			zap.String("filename", filename),
			zap.Error(err))
		c.Notifier.Error(fmt.Sprintf("Failed to upload image: %s", err.Error()))
		return "", err
	}
	return name, nil
}
