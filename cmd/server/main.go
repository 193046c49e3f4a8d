package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rogaciano/rotadomarPLM/internal/allocation"
	"github.com/rogaciano/rotadomarPLM/internal/cache"
	"github.com/rogaciano/rotadomarPLM/internal/config"
	"github.com/rogaciano/rotadomarPLM/internal/db"
	"github.com/rogaciano/rotadomarPLM/internal/handlers"
	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/middleware"
	"github.com/rogaciano/rotadomarPLM/internal/observability"
	"github.com/rogaciano/rotadomarPLM/internal/repos"
	"github.com/rogaciano/rotadomarPLM/internal/server"
	"github.com/rogaciano/rotadomarPLM/internal/services"
	"github.com/rogaciano/rotadomarPLM/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config + env
	log.Info("Loading configuration from main...")
	cfg, err := config.Load(log)
	if err != nil {
		log.Error("Could not load config", "error", err)
		os.Exit(1)
	}
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)

	// Tracing
	shutdownOtel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "rotadomar",
		Environment: cfg.Server.Mode,
	})
	if shutdownOtel != nil {
		defer shutdownOtel(context.Background())
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	brandRepo := repos.NewBrandRepo(thePG, log)
	fabricRepo := repos.NewFabricRepo(thePG, log)
	designerRepo := repos.NewDesignerRepo(thePG, log)
	groupRepo := repos.NewProductGroupRepo(thePG, log)
	statusRepo := repos.NewStatusRepo(thePG, log)
	locationRepo := repos.NewLocationRepo(thePG, log)
	productRepo := repos.NewProductRepo(thePG, log)
	rowRepo := repos.NewProductLocationRepo(thePG, log)
	ledgerRepo := repos.NewMonthlyAllocationRepo(thePG, log)
	capacityRepo := repos.NewLocationCapacityRepo(thePG, log)
	eventRepo := repos.NewProductEventRepo(thePG, log)

	// Occupancy cache (optional)
	var occCache cache.OccupancyCache
	if c, err := cache.NewOccupancyCache(log); err != nil {
		log.Warn("Occupancy cache disabled", "error", err)
	} else {
		occCache = c
		defer occCache.Close()
	}

	// Allocation core
	log.Info("Setting up allocation core from main...")
	reconciler := allocation.NewReconciler(log, rowRepo, ledgerRepo)
	allocStore := allocation.NewStore(thePG, log, productRepo, locationRepo, rowRepo, reconciler, occCache)
	checker := allocation.NewChecker(log, rowRepo, ledgerRepo)
	rebuilder := allocation.NewRebuilder(thePG, log, rowRepo, ledgerRepo, eventRepo, reconciler, occCache)

	// Services
	log.Info("Setting up Services from main...")
	userService := services.NewUserService(thePG, log, userRepo)
	productService := services.NewProductService(thePG, log, productRepo, eventRepo)
	catalogService := services.NewCatalogService(thePG, log, brandRepo, fabricRepo, designerRepo, groupRepo, statusRepo)
	locationService := services.NewLocationService(thePG, log, locationRepo)
	allocationService := services.NewAllocationService(thePG, log, allocStore, checker, rebuilder, rowRepo, ledgerRepo)
	capacityService := services.NewCapacityService(thePG, log, capacityRepo, ledgerRepo, locationRepo, occCache)

	// Handlers
	log.Info("Setting up handlers from main...")
	userHandler := handlers.NewUserHandler(log, userService)
	productHandler := handlers.NewProductHandler(log, productService)
	catalogHandler := handlers.NewCatalogHandler(log, catalogService)
	locationHandler := handlers.NewLocationHandler(log, locationService)
	capacityHandler := handlers.NewCapacityHandler(log, capacityService)
	allocationHandler := handlers.NewAllocationHandler(log, allocationService)

	// Middleware
	log.Info("Setting up middleware from main...")
	identityMiddleware := middleware.NewIdentityMiddleware(log, jwtSecretKey)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		Log:                log,
		CORS:               cfg.CORS,
		IdentityMiddleware: identityMiddleware,
		UserHandler:        userHandler,
		ProductHandler:     productHandler,
		CatalogHandler:     catalogHandler,
		LocationHandler:    locationHandler,
		CapacityHandler:    capacityHandler,
		AllocationHandler:  allocationHandler,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Server listening", "addr", addr)
	if err := router.Run(addr); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
