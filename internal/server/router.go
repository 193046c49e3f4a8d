package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/rogaciano/rotadomarPLM/internal/config"
	"github.com/rogaciano/rotadomarPLM/internal/handlers"
	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/middleware"
)

type RouterConfig struct {
	Log                *logger.Logger
	CORS               config.CORSConfig
	IdentityMiddleware *middleware.IdentityMiddleware
	UserHandler        *handlers.UserHandler
	ProductHandler     *handlers.ProductHandler
	CatalogHandler     *handlers.CatalogHandler
	LocationHandler    *handlers.LocationHandler
	CapacityHandler    *handlers.CapacityHandler
	AllocationHandler  *handlers.AllocationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("rotadomar"))
	router.Use(middleware.RequestLogger(cfg.Log))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: cfg.CORS.AllowCredentials,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.IdentityMiddleware.RequireIdentity())

	// Users
	api.GET("/me", cfg.UserHandler.GetMe)
	api.POST("/users", cfg.UserHandler.Create)

	// Catalog
	api.POST("/brands", cfg.CatalogHandler.CreateBrand)
	api.GET("/brands", cfg.CatalogHandler.ListBrands)
	api.PUT("/brands/:id", cfg.CatalogHandler.UpdateBrand)
	api.DELETE("/brands/:id", cfg.CatalogHandler.DeleteBrand)
	api.POST("/fabrics", cfg.CatalogHandler.CreateFabric)
	api.GET("/fabrics", cfg.CatalogHandler.ListFabrics)
	api.PUT("/fabrics/:id", cfg.CatalogHandler.UpdateFabric)
	api.DELETE("/fabrics/:id", cfg.CatalogHandler.DeleteFabric)
	api.POST("/designers", cfg.CatalogHandler.CreateDesigner)
	api.GET("/designers", cfg.CatalogHandler.ListDesigners)
	api.POST("/groups", cfg.CatalogHandler.CreateGroup)
	api.GET("/groups", cfg.CatalogHandler.ListGroups)
	api.POST("/statuses", cfg.CatalogHandler.CreateStatus)
	api.GET("/statuses", cfg.CatalogHandler.ListStatuses)

	// Locations + capacity
	api.POST("/locations", cfg.LocationHandler.Create)
	api.GET("/locations", cfg.LocationHandler.List)
	api.GET("/locations/:id", cfg.LocationHandler.Get)
	api.PUT("/locations/:id", cfg.LocationHandler.Update)
	api.DELETE("/locations/:id", cfg.LocationHandler.Delete)
	api.PUT("/locations/:id/capacities", cfg.CapacityHandler.Upsert)
	api.GET("/locations/:id/capacities", cfg.CapacityHandler.List)
	api.GET("/locations/:id/occupancy", cfg.CapacityHandler.Occupancy)

	// Products
	api.POST("/products", cfg.ProductHandler.Create)
	api.GET("/products", cfg.ProductHandler.List)
	api.GET("/products/:id", cfg.ProductHandler.Get)
	api.PUT("/products/:id", cfg.ProductHandler.Update)
	api.DELETE("/products/:id", cfg.ProductHandler.Delete)
	api.POST("/products/:id/copy", cfg.ProductHandler.Copy)
	api.GET("/products/:id/events", cfg.ProductHandler.ListEvents)

	// Allocation rows + monthly ledger
	api.POST("/products/:id/locations", cfg.AllocationHandler.Assign)
	api.GET("/products/:id/locations", cfg.AllocationHandler.ListRows)
	api.PATCH("/product-locations/:rowId", cfg.AllocationHandler.Update)
	api.DELETE("/product-locations/:rowId", cfg.AllocationHandler.Remove)
	api.GET("/products/:id/allocations", cfg.AllocationHandler.Ledger)
	api.GET("/products/:id/allocations/check", cfg.AllocationHandler.Check)
	api.POST("/products/:id/allocations/rebuild", cfg.AllocationHandler.Rebuild)

	return router
}
