package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "facture/api/swagger" // swagger docs
	"facture/internal/config"
	"facture/internal/database"
	"facture/internal/handler"
	"facture/internal/logger"
	"facture/internal/metrics"
	"facture/internal/middleware"
	"facture/internal/pdf"
	"facture/internal/repository"
	"facture/internal/service"
	"facture/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           FactureApp API
// @version         1.0
// @description     Invoicing, clients, inventory and tax rules for the local FactureApp server.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	zlog, err := logger.New(cfg.App, cfg.Log)
	if err != nil {
		log.Fatalf("Logger setup failed: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := os.MkdirAll(cfg.App.DataDir, 0o755); err != nil {
		zlog.Fatal("cannot create data directory", zap.String("dir", cfg.App.DataDir), zap.Error(err))
	}

	db, err := database.NewConnection(cfg.Database, zlog)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.SeedDefaultVAT(db, cfg.Tax.DefaultVATRate); err != nil {
		zlog.Fatal("seeding default VAT rule failed", zap.Error(err))
	}
	zlog.Info("database ready", zap.String("driver", cfg.Database.Driver))

	defaultRate, err := decimal.NewFromString(cfg.Tax.DefaultVATRate)
	if err != nil {
		zlog.Fatal("invalid tax.default_vat_rate", zap.String("value", cfg.Tax.DefaultVATRate), zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(zlog)
	go wsHub.Run(ctx)

	m := metrics.New()

	var tokens *middleware.TokenIssuer
	if cfg.Auth.Enabled {
		tokens = middleware.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	}

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	productRepo := repository.NewProductRepository(db)
	invTxRepo := repository.NewInventoryTxRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	clientRepo := repository.NewClientRepository(db)
	taxRepo := repository.NewTaxRuleRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)

	renderer := pdf.NewRenderer(pdf.Options{
		TopMarginMM: cfg.PDF.TopMarginMM,
		CompanyName: cfg.PDF.CompanyName,
		CompanyICE:  cfg.PDF.CompanyICE,
	})

	taxService := service.NewTaxService(taxRepo, auditRepo, txManager, defaultRate)
	inventoryService := service.NewInventoryService(productRepo, invTxRepo, auditRepo, txManager, wsHub, m, zlog)
	invoiceService := service.NewInvoiceService(invoiceRepo, auditRepo, txManager, inventoryService, taxService, wsHub, m, zlog)
	clientService := service.NewClientService(clientRepo, invoiceRepo, auditRepo, txManager, wsHub)
	pdfService := service.NewPDFService(invoiceRepo, renderer, cfg.PDF.OutputDir, m, zlog)
	exportService := service.NewExportService(statsRepo)
	statisticsService := service.NewStatisticsService(statsRepo, productRepo)
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, pdfService, exportService)
	clientHandler := handler.NewClientHandler(clientService)
	inventoryHandler := handler.NewInventoryHandler(inventoryService)
	taxHandler := handler.NewTaxHandler(taxService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), logger.GinMiddleware(zlog), m.GinMiddleware())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		var authenticate func(string) error
		if tokens != nil {
			authenticate = tokens.Authenticate
		}
		websocket.ServeWs(wsHub, c, authenticate)
	})

	// API Routing
	api := router.Group("", middleware.RequireToken(tokens))
	invoiceHandler.RegisterRoutes(api)
	clientHandler.RegisterRoutes(api)
	inventoryHandler.RegisterRoutes(api)
	taxHandler.RegisterRoutes(api)
	statisticsHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("server listening", zap.String("addr", srv.Addr), zap.Bool("auth", cfg.Auth.Enabled))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}
