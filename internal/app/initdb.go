package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/vitrine/storefront/internal/gateway"
)

var (
	defaultProductTypes = []string{"Eletrônicos", "Livros", "Games", "Casa e Cozinha"}
	defaultCarriers     = []string{"Correios", "Jadlog", "Loggi"}
)

// checkProductTypes creates the default categories when there are none
func (a *Application) checkProductTypes(ctx context.Context) {
	gw := a.console.ProductTypes.Resource.Gateway
	rows, err := gw.List(ctx, gateway.ListOptions{})
	if err != nil {
		zap.L().Error("failed to query product types", zap.Error(err))
		return
	}
	if len(rows) > 0 {
		return
	}
	for _, name := range defaultProductTypes {
		if _, err := gw.Create(ctx, gateway.Fields{"nome": name}); err != nil {
			zap.L().Error("failed to create default product type", zap.String("name", name), zap.Error(err))
		} else {
			zap.L().Info("initialized default product type", zap.String("name", name))
		}
	}
}

// checkCarriers creates the default carriers when there are none
func (a *Application) checkCarriers(ctx context.Context) {
	gw := a.console.Carriers.Resource.Gateway
	rows, err := gw.List(ctx, gateway.ListOptions{})
	if err != nil {
		zap.L().Error("failed to query carriers", zap.Error(err))
		return
	}
	if len(rows) > 0 {
		return
	}
	for _, name := range defaultCarriers {
		if _, err := gw.Create(ctx, gateway.Fields{"name": name}); err != nil {
			zap.L().Error("failed to create default carrier", zap.String("name", name), zap.Error(err))
		} else {
			zap.L().Info("initialized default carrier", zap.String("name", name))
		}
	}
}
