package marketplace

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/peermart/peermart/internal/catalog"
	"github.com/peermart/peermart/internal/escrow"
	"github.com/peermart/peermart/internal/ledger"
	"github.com/peermart/peermart/internal/query"
)

// Handlers is the HTTP surface of the marketplace. The store is only used
// for participant email lookups when enqueueing notifications; all state
// changes go through the catalog and the engine.
type Handlers struct {
	Catalog *catalog.Catalog
	Engine  *escrow.Engine
	Views   *query.Views
	Store   ledger.Store
}

type createListingRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Category    string `json:"category"`
	ImageRef    string `json:"image_ref"`
}

// CreateListing - POST /marketplace/products
func (h *Handlers) CreateListing(c echo.Context) error {
	seller, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(createListingRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	p, err := h.Catalog.CreateListing(c.Request().Context(),
		seller, req.Name, req.Description, req.Price, req.Category, req.ImageRef)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// GetAllProducts - GET /marketplace/products (public discovery, active only)
func (h *Handlers) GetAllProducts(c echo.Context) error {
	products, err := h.Catalog.ListActive(c.Request().Context(),
		c.QueryParam("category"), c.QueryParam("q"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"products": products})
}

// GetProduct - GET /marketplace/products/:id (active-only view)
func (h *Handlers) GetProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	p, err := h.Catalog.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// GetMyListings - GET /marketplace/products/me (includes deactivated)
func (h *Handlers) GetMyListings(c echo.Context) error {
	seller, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	products, err := h.Catalog.ListBySeller(c.Request().Context(), seller)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"products": products})
}

// DeactivateProduct - POST /marketplace/products/:id/deactivate
func (h *Handlers) DeactivateProduct(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	if err := h.Catalog.Deactivate(c.Request().Context(), id, caller); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "listing deactivated"})
}
