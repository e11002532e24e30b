package httpserver

import (
	"context"
	"errors"
	"time"

	"produce-marketplace/internal/auth"
	"produce-marketplace/internal/domain"
	"produce-marketplace/internal/logging"
	cartrepo "produce-marketplace/internal/repository/cart"
	ordersvc "produce-marketplace/internal/service/order"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type productService interface {
	List(ctx context.Context) ([]domain.Product, error)
}

type cartService interface {
	Get(ctx context.Context, customerID string) (domain.Cart, error)
	AddItem(ctx context.Context, customerID, productID string, quantity int) (domain.Cart, error)
	SetQuantity(ctx context.Context, customerID, productID string, quantity int) (domain.Cart, error)
	RemoveItem(ctx context.Context, customerID, productID string) (domain.Cart, error)
	Clear(ctx context.Context, customerID string) (domain.Cart, error)
	Merge(ctx context.Context, customerID string, lines []cartrepo.LineInput) (domain.Cart, error)
}

type orderService interface {
	Place(ctx context.Context, customerID string, in ordersvc.PlaceInput) (*domain.Order, error)
	Get(ctx context.Context, customerID, orderID string) (*domain.Order, error)
	Settle(ctx context.Context, orderID string, settled bool) (*domain.Order, error)
}

type customerService interface {
	Profile(ctx context.Context, customerID string) (*domain.Customer, error)
	Addresses(ctx context.Context, customerID string) ([]domain.Address, error)
}

type tokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

// Deps carries the services the router dispatches to.
type Deps struct {
	ProductSvc    productService
	CartSvc       cartService
	OrderSvc      orderService
	CustomerSvc   customerService
	Tokens        tokenVerifier
	WebhookSecret string
	CORSOrigins   []string
}

func (d Deps) validate() error {
	switch {
	case d.ProductSvc == nil:
		return errors.New("product service required")
	case d.CartSvc == nil:
		return errors.New("cart service required")
	case d.OrderSvc == nil:
		return errors.New("order service required")
	case d.CustomerSvc == nil:
		return errors.New("customer service required")
	case d.Tokens == nil:
		return errors.New("token verifier required")
	case d.WebhookSecret == "":
		return errors.New("webhook secret required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	logger = logging.OrNop(logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logging.Writer(logger.Named("http"))), gin.Recovery())
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{deps: deps, logger: logger}

	api := router.Group("/api")
	api.GET("/products", h.listProducts)
	api.POST("/payments/settlement", webhookMiddleware(deps.WebhookSecret), h.settlePayment)

	customer := api.Group("", bearerMiddleware(deps.Tokens, domain.RoleCustomer))
	customer.GET("/cart", h.getCart)
	customer.DELETE("/cart", h.clearCart)
	customer.POST("/cart/items", h.addCartItem)
	customer.PATCH("/cart/items/:productId", h.setCartItemQuantity)
	customer.DELETE("/cart/items/:productId", h.removeCartItem)
	customer.POST("/cart/merge", h.mergeCart)
	customer.POST("/orders", h.placeOrder)
	customer.GET("/orders/:orderId", h.getOrder)
	customer.GET("/me", h.getProfile)
	customer.GET("/me/addresses", h.listAddresses)

	return router, nil
}

type handlers struct {
	deps   Deps
	logger *zap.Logger
}
