package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"storefront-client/internal/domain"
	"storefront-client/internal/metrics"
	"storefront-client/internal/service/catalog"
	"storefront-client/internal/service/checkout"
	"storefront-client/internal/workspace"
)

// WorkspaceRegistry resolves the workspace a request belongs to.
type WorkspaceRegistry interface {
	Open(ctx context.Context, id string) (*workspace.Workspace, error)
	Persist(ctx context.Context, ws *workspace.Workspace) error
}

// CatalogService lists and looks up products with the workspace credential.
type CatalogService interface {
	List(ctx context.Context, cred catalog.Credential) ([]domain.Product, error)
	Get(ctx context.Context, cred catalog.Credential, id string) (domain.Product, error)
}

// CheckoutService submits a workspace cart as an order.
type CheckoutService interface {
	Submit(ctx context.Context, workspaceID string, identity checkout.Identity, cart checkout.Cart) (*domain.Order, error)
}

// Deps are the services the router dispatches to.
type Deps struct {
	Workspaces WorkspaceRegistry
	Catalog    CatalogService
	Checkout   CheckoutService
	Metrics    *metrics.Metrics
	// Ready is nil when no database is configured.
	Ready Pinger
}

// Options tune cookies, CORS, throttling and token refresh.
type Options struct {
	CORSOrigins       []string
	CookieSecure      bool
	AuthRatePerSecond float64
	AuthRateBurst     int
	// RefreshWithin renews the access token on protected routes when it
	// expires within this window. Zero disables proactive refresh.
	RefreshWithin time.Duration
}

// buildRouter wires routes for the client shell.
func buildRouter(logger zerolog.Logger, deps Deps, opts Options) (*gin.Engine, error) {
	if deps.Workspaces == nil || deps.Catalog == nil || deps.Checkout == nil {
		return nil, errors.New("httpserver: workspaces, catalog and checkout are required")
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger, deps.Metrics))
	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Ready))
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	h := &handlers{deps: deps, logger: logger, refreshWithin: opts.RefreshWithin}
	limiter := newClientLimiter(rate.Limit(opts.AuthRatePerSecond), opts.AuthRateBurst)

	api := router.Group("/api", workspaceMiddleware(deps.Workspaces, opts.CookieSecure, logger))

	sessionGroup := api.Group("/session")
	sessionGroup.GET("", h.getSession)
	sessionGroup.POST("/login", limiter.middleware(), h.login)
	sessionGroup.POST("/register", limiter.middleware(), h.register)
	sessionGroup.POST("/refresh", limiter.middleware(), h.refresh)
	sessionGroup.POST("/logout", h.logout)

	protected := api.Group("", h.viewGate())
	protected.GET("/products", h.listProducts)
	protected.GET("/products/:id", h.getProduct)
	protected.GET("/cart", h.getCart)
	protected.DELETE("/cart", h.clearCart)
	protected.POST("/cart/items", h.addItem)
	protected.PUT("/cart/items/:id", h.setQuantity)
	protected.DELETE("/cart/items/:id", h.removeItem)
	protected.POST("/cart/items/:id/increment", h.incrementItem)
	protected.POST("/cart/items/:id/decrement", h.decrementItem)
	protected.POST("/checkout", h.checkout)

	return router, nil
}
