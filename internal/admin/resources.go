package admin

import (
	"strconv"

	"github.com/vitrine/storefront/internal/domain"
	"github.com/vitrine/storefront/internal/gateway"
)

// Products lists the catalog twelve per page, ordered by title
func Products(gw gateway.Gateway[domain.Product]) *Resource[domain.Product] {
	return &Resource[domain.Product]{
		Name:  "products",
		Title: "Product",
		Fields: []Field{
			{Name: "title", Label: "Title", Kind: KindString, Required: true},
			{Name: "category_id", Label: "Category", Kind: KindInt, Required: true},
			{Name: "image_url", Label: "Image", Kind: KindString},
		},
		OrderBy:   "title",
		PageLimit: gateway.DefaultPageLimit,
		Columns:   []string{"ID", "Title", "Category", "Image"},
		Cells: func(p domain.Product) []string {
			category := ""
			if p.Category != nil {
				category = p.Category.Name
			}
			return []string{formatID(p.ID), p.Title, category, p.ImageURL}
		},
		Values: func(p domain.Product) Values {
			category := ""
			if p.CategoryID != 0 {
				category = formatID(p.CategoryID)
			}
			return Values{"title": p.Title, "category_id": category, "image_url": p.ImageURL}
		},
		Gateway: gw,
	}
}

// ProductTypes manages the product categories; the backend column is "nome"
func ProductTypes(gw gateway.Gateway[domain.ProductType]) *Resource[domain.ProductType] {
	return &Resource[domain.ProductType]{
		Name:    "product-types",
		Title:   "Product type",
		Fields:  []Field{{Name: "nome", Label: "Name", Kind: KindString, Required: true}},
		OrderBy: "nome",
		Columns: []string{"ID", "Name"},
		Cells: func(t domain.ProductType) []string {
			return []string{formatID(t.ID), t.Name}
		},
		Values: func(t domain.ProductType) Values {
			return Values{"nome": t.Name}
		},
		Gateway: gw,
	}
}

func Carriers(gw gateway.Gateway[domain.Carrier]) *Resource[domain.Carrier] {
	return &Resource[domain.Carrier]{
		Name:    "carriers",
		Title:   "Carrier",
		Fields:  []Field{{Name: "name", Label: "Name", Kind: KindString, Required: true}},
		OrderBy: "name",
		Columns: []string{"ID", "Name"},
		Cells: func(c domain.Carrier) []string {
			return []string{formatID(c.ID), c.Name}
		},
		Values: func(c domain.Carrier) Values {
			return Values{"name": c.Name}
		},
		Gateway: gw,
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
