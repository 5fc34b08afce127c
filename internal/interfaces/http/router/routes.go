package router

import (
	"github.com/flowershop/storefront/internal/domain/identity"
	"github.com/flowershop/storefront/internal/infrastructure/auth"
	"github.com/flowershop/storefront/internal/infrastructure/logger"
	"github.com/flowershop/storefront/internal/interfaces/http/handler"
	"github.com/flowershop/storefront/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Handlers bundles every HTTP handler of the storefront
type Handlers struct {
	Auth         *handler.AuthHandler
	Catalog      *handler.CatalogHandler
	AdminCatalog *handler.AdminCatalogHandler
	Cart         *handler.CartHandler
	Orders       *handler.OrderHandler
	AdminOrders  *handler.AdminOrderHandler
	Health       *handler.HealthHandler
}

// EngineConfig carries the cross-cutting HTTP settings
type EngineConfig struct {
	ServiceName    string
	Logger         *zap.Logger
	JWTService     *auth.JWTService
	TokenBlacklist auth.TokenBlacklist
	CORS           middleware.CORSConfig
	MaxBodySize    int64
	TrustedProxies []string
	// RateLimiter guards the whole API; nil disables it
	RateLimiter middleware.Limiter
	// AuthRateLimiter additionally guards login and registration; nil disables it
	AuthRateLimiter middleware.Limiter
	Tracing         bool
	Swagger         bool
}

// NewEngine builds the gin engine with the middleware stack and all routes
func NewEngine(cfg EngineConfig, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: the request id must exist before the logger and the
	// tracing span read it.
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	if cfg.Tracing {
		engine.Use(middleware.Tracing(cfg.ServiceName))
		engine.Use(middleware.SpanEnricher())
	}
	engine.Use(middleware.CORS(cfg.CORS))
	engine.Use(middleware.SecureHeaders())
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}
	if cfg.RateLimiter != nil {
		engine.Use(middleware.RateLimit(cfg.RateLimiter, middleware.ClientIPKey, log))
	}

	if h.Health != nil {
		engine.GET("/health", h.Health.Health)
	}
	if cfg.Swagger {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	jwt := middleware.JWTAuth(middleware.JWTMiddlewareConfig{
		JWTService:     cfg.JWTService,
		TokenBlacklist: cfg.TokenBlacklist,
		Logger:         log,
	})

	r := NewRouter(engine)
	r.Register(
		authRoutes(h.Auth, jwt, cfg.AuthRateLimiter, log),
		catalogRoutes(h.Catalog),
		cartRoutes(h.Cart, jwt),
		orderRoutes(h.Orders, jwt),
		adminRoutes(h.AdminCatalog, h.AdminOrders, jwt, log),
	)
	r.Setup()

	return engine
}

func authRoutes(h *handler.AuthHandler, jwt gin.HandlerFunc, limiter middleware.Limiter, log *zap.Logger) *DomainGroup {
	g := NewDomainGroup("auth", "/auth")

	public := []gin.HandlerFunc{}
	if limiter != nil {
		public = append(public, middleware.RateLimit(limiter, middleware.ClientIPKey, log))
	}
	g.POST("/register", append(public, h.Register)...)
	g.POST("/login", append(public, h.Login)...)
	g.POST("/refresh", h.RefreshToken)

	g.POST("/logout", jwt, h.Logout)
	g.GET("/me", jwt, h.GetCurrentUser)
	g.PUT("/password", jwt, h.ChangePassword)
	return g
}

func catalogRoutes(h *handler.CatalogHandler) *DomainGroup {
	g := NewDomainGroup("catalog", "/catalog")
	g.GET("/categories", h.ListCategories)
	g.GET("/products", h.ListProducts)
	g.GET("/products/:id", h.GetProduct)
	return g
}

func cartRoutes(h *handler.CartHandler, jwt gin.HandlerFunc) *DomainGroup {
	g := NewDomainGroup("cart", "/cart").Use(jwt)
	g.GET("", h.View)
	g.POST("/items", h.AddItem)
	g.PUT("/items/:id", h.UpdateItem)
	g.DELETE("/items/:id", h.RemoveItem)
	return g
}

func orderRoutes(h *handler.OrderHandler, jwt gin.HandlerFunc) *DomainGroup {
	g := NewDomainGroup("orders", "/orders").Use(jwt)
	g.POST("/checkout", h.Checkout)
	g.GET("", h.ListMine)
	g.GET("/:id", h.GetByID)
	g.POST("/:id/cancel", h.Cancel)
	g.GET("/:id/receipt", h.Receipt)
	return g
}

func adminRoutes(catalog *handler.AdminCatalogHandler, orders *handler.AdminOrderHandler, jwt gin.HandlerFunc, log *zap.Logger) *DomainGroup {
	g := NewDomainGroup("admin", "/admin").Use(jwt)

	cg := g.Group("admin-catalog", "/catalog").Use(middleware.RequirePermission(log, identity.PermissionCatalogManage))
	cg.POST("/categories", catalog.CreateCategory)
	cg.GET("/products", catalog.ListProducts)
	cg.POST("/products", catalog.CreateProduct)
	cg.GET("/products/:id", catalog.GetProduct)
	cg.PUT("/products/:id", catalog.UpdateProduct)
	cg.PUT("/products/:id/price", catalog.ChangePrice)
	cg.POST("/products/:id/stock", catalog.AdjustStock)
	cg.PUT("/products/:id/availability", catalog.SetAvailability)
	cg.POST("/products/:id/image-upload", catalog.RequestImageUpload)
	cg.PUT("/products/:id/image", catalog.ConfirmImage)

	og := g.Group("admin-orders", "/orders").Use(middleware.RequirePermission(log, identity.PermissionOrderManage))
	og.GET("", orders.List)
	og.GET("/stats", orders.Stats)
	og.POST("/bulk-confirm", orders.BulkConfirm)
	og.POST("/bulk-cancel", orders.BulkCancel)
	og.GET("/:id", orders.Get)
	og.POST("/:id/confirm", orders.Confirm)
	og.POST("/:id/cancel", orders.Cancel)
	og.GET("/:id/receipt", orders.Receipt)
	return g
}
