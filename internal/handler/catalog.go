package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront-api/internal/apperr"
	"storefront-api/internal/dto"
	"storefront-api/internal/middleware"
	"storefront-api/internal/service"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

func (h *CatalogHandler) List(c echo.Context) error {
	products, err := h.catalogService.List(c.Request().Context())
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, "products fetched", products)
}

func (h *CatalogHandler) Get(c echo.Context) error {
	product, err := h.catalogService.Get(c.Request().Context(), c.Param("productId"))
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, "product fetched", product)
}

func (h *CatalogHandler) Create(c echo.Context) error {
	var req dto.ProductRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	product, err := h.catalogService.Create(c.Request().Context(), &req)
	if err != nil {
		return err
	}

	return respond(c, http.StatusCreated, "product created", product)
}

func (h *CatalogHandler) Update(c echo.Context) error {
	var req dto.ProductRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	product, err := h.catalogService.Update(c.Request().Context(), c.Param("productId"), &req)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, "product updated", product)
}

func (h *CatalogHandler) Delete(c echo.Context) error {
	if err := h.catalogService.Delete(c.Request().Context(), c.Param("productId")); err != nil {
		return err
	}

	return respond(c, http.StatusOK, "product deleted", nil)
}

func (h *CatalogHandler) SetStock(c echo.Context) error {
	var req struct {
		Stock int64 `json:"stock"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	if err := h.catalogService.SetStock(c.Request().Context(), c.Param("productId"), req.Stock); err != nil {
		return err
	}

	return respond(c, http.StatusOK, "stock updated", nil)
}

func (h *CatalogHandler) AddReview(c echo.Context) error {
	var req dto.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	err := h.catalogService.AddReview(c.Request().Context(), c.Param("productId"), middleware.UserID(c), &req)
	if err != nil {
		return err
	}

	return respond(c, http.StatusCreated, "review added", nil)
}
