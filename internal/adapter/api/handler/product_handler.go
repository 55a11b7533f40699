package handler

import (
	"github.com/labstack/echo/v4"

	"emprende/internal/usecase"
	"emprende/pkg/errors"
	"emprende/pkg/response"
	"emprende/pkg/utils"
)

type ProductHandler struct {
	productUseCase *usecase.ProductUseCase
}

func NewProductHandler(productUseCase *usecase.ProductUseCase) *ProductHandler {
	return &ProductHandler{
		productUseCase: productUseCase,
	}
}

func (h *ProductHandler) ListProducts(c echo.Context) error {
	products, err := h.productUseCase.ListProducts(c.Request().Context(), c.QueryParam("q"), c.QueryParam("category"))
	if err != nil {
		return response.Error(c, err)
	}

	pagination := utils.GetPaginationParams(c)
	return response.Paginated(c, utils.Paginate(products, pagination), int64(len(products)), pagination.Page, pagination.PageSize)
}

func (h *ProductHandler) ListCategories(c echo.Context) error {
	return response.Success(c, h.productUseCase.Categories())
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return response.Error(c, errors.BadRequest("Product ID is required", nil))
	}

	product, err := h.productUseCase.GetProduct(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, product)
}

// CreateProduct reads a multipart form with name, price, description, category and image.
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	uid := c.Get("uid").(string)

	img, closer, err := imageFromForm(c, "image")
	if err != nil {
		return response.Error(c, err)
	}
	if closer != nil {
		defer closer.Close()
	}

	form := usecase.ProductForm{
		Name:        c.FormValue("name"),
		Price:       c.FormValue("price"),
		Description: c.FormValue("description"),
		Category:    c.FormValue("category"),
	}

	product, err := h.productUseCase.CreateProduct(c.Request().Context(), uid, form, img)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, product)
}

func (h *ProductHandler) ListMyProducts(c echo.Context) error {
	uid := c.Get("uid").(string)

	products, err := h.productUseCase.ListSellerProducts(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, products)
}
