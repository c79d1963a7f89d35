package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"storefront-client/internal/domain"
)

type handlers struct {
	deps          Deps
	logger        zerolog.Logger
	refreshWithin time.Duration
}

func (h *handlers) listProducts(c *gin.Context) {
	ws := mustWorkspace(c)
	products, err := h.deps.Catalog.List(c.Request.Context(), ws.Session)
	if err != nil {
		writeError(c, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, productListResponse{Count: len(products), Results: products})
}

func (h *handlers) getProduct(c *gin.Context) {
	ws := mustWorkspace(c)
	product, err := h.deps.Catalog.Get(c.Request.Context(), ws.Session, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *handlers) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, toCartResponse(mustWorkspace(c).Cart.Snapshot()))
}

// addItem resolves the product against the catalog so the captured price
// is the catalog's, not the caller's.
func (h *handlers) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ws := mustWorkspace(c)
	product, err := h.deps.Catalog.Get(c.Request.Context(), ws.Session, req.ProductID)
	if err != nil {
		writeError(c, err)
		return
	}
	cart := ws.Cart.AddItem(product)
	h.deps.Metrics.CartMutation("add")
	c.JSON(http.StatusOK, toCartResponse(cart))
}

func (h *handlers) removeItem(c *gin.Context) {
	cart := mustWorkspace(c).Cart.RemoveItem(c.Param("id"))
	h.deps.Metrics.CartMutation("remove")
	c.JSON(http.StatusOK, toCartResponse(cart))
}

func (h *handlers) setQuantity(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity is required", "field": "quantity"})
		return
	}
	cart, err := mustWorkspace(c).Cart.SetQuantity(c.Param("id"), *req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	h.deps.Metrics.CartMutation("set_quantity")
	c.JSON(http.StatusOK, toCartResponse(cart))
}

func (h *handlers) incrementItem(c *gin.Context) {
	cart, err := mustWorkspace(c).Cart.IncrementQuantity(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	h.deps.Metrics.CartMutation("increment")
	c.JSON(http.StatusOK, toCartResponse(cart))
}

func (h *handlers) decrementItem(c *gin.Context) {
	cart, err := mustWorkspace(c).Cart.DecrementQuantity(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	h.deps.Metrics.CartMutation("decrement")
	c.JSON(http.StatusOK, toCartResponse(cart))
}

func (h *handlers) clearCart(c *gin.Context) {
	cart := mustWorkspace(c).Cart.Clear()
	h.deps.Metrics.CartMutation("clear")
	c.JSON(http.StatusOK, toCartResponse(cart))
}

func (h *handlers) checkout(c *gin.Context) {
	ws := mustWorkspace(c)
	order, err := h.deps.Checkout.Submit(c.Request.Context(), ws.ID, ws.Session, ws.Cart)
	h.deps.Metrics.Checkout(err)
	if err != nil {
		writeError(c, err)
		return
	}
	h.logger.Info().
		Str("workspace_id", ws.ID).
		Str("order_id", order.ID).
		Int("items", order.TotalItems).
		Int64("total_cents", order.TotalCents).
		Msg("order submitted")
	c.JSON(http.StatusCreated, order)
}
