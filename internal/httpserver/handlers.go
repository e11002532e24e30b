package httpserver

import (
	"net/http"

	ordersvc "produce-marketplace/internal/service/order"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *handlers) listProducts(c *gin.Context) {
	products, err := h.deps.ProductSvc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": products, "count": len(products)})
}

func (h *handlers) getCart(c *gin.Context) {
	cart, err := h.deps.CartSvc.Get(c.Request.Context(), customerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(cart))
}

func (h *handlers) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	cart, err := h.deps.CartSvc.AddItem(c.Request.Context(), customerID(c), req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(cart))
}

func (h *handlers) setCartItemQuantity(c *gin.Context) {
	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		badRequest(c, "quantity required")
		return
	}
	cart, err := h.deps.CartSvc.SetQuantity(c.Request.Context(), customerID(c), c.Param("productId"), *req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(cart))
}

func (h *handlers) removeCartItem(c *gin.Context) {
	cart, err := h.deps.CartSvc.RemoveItem(c.Request.Context(), customerID(c), c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(cart))
}

func (h *handlers) clearCart(c *gin.Context) {
	cart, err := h.deps.CartSvc.Clear(c.Request.Context(), customerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(cart))
}

func (h *handlers) mergeCart(c *gin.Context) {
	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	cart, err := h.deps.CartSvc.Merge(c.Request.Context(), customerID(c), req.Lines)
	if err != nil {
		h.logger.Warn("cart merge rejected", zap.String("customer_id", customerID(c)), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(cart))
}

func (h *handlers) placeOrder(c *gin.Context) {
	var req ordersvc.PlaceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	order, err := h.deps.OrderSvc.Place(c.Request.Context(), customerID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(order))
}

func (h *handlers) getOrder(c *gin.Context) {
	order, err := h.deps.OrderSvc.Get(c.Request.Context(), customerID(c), c.Param("orderId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *handlers) settlePayment(c *gin.Context) {
	var req settlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	order, err := h.deps.OrderSvc.Settle(c.Request.Context(), req.OrderID, req.Settled)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *handlers) getProfile(c *gin.Context) {
	customer, err := h.deps.CustomerSvc.Profile(c.Request.Context(), customerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *handlers) listAddresses(c *gin.Context) {
	addrs, err := h.deps.CustomerSvc.Addresses(c.Request.Context(), customerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": addrs})
}
