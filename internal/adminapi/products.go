package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vitrine/storefront/internal/webserver"
)

// registerProductRoutes registers product CRUD plus the image upload used by the product form
func registerProductRoutes() {
	registerResourceRoutes("/products", productsWorkflow)
	webserver.ApiPOST("/products/images", uploadProductImage)
}

func uploadProductImage(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Missing image file", err.Error())
	}
	src, err := file.Open()
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to read image file", err.Error())
	}
	defer src.Close()

	console := GetAppContext(c).Console()
	name, err := console.UploadImage(c.Request().Context(), file.Filename, src)
	if err != nil {
		return fail(c, http.StatusBadGateway, "STORAGE_ERROR", err.Error(), nil)
	}
	return ok(c, map[string]interface{}{
		"image_url":  name,
		"public_url": console.Images.PublicURL(name),
	})
}
