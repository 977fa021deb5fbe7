package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pragavigithub/Emerald-Barcode-20260129/internal/erp"
	"github.com/pragavigithub/Emerald-Barcode-20260129/internal/transfer/events"
	"github.com/pragavigithub/Emerald-Barcode-20260129/internal/transfer/handler"
	"github.com/pragavigithub/Emerald-Barcode-20260129/internal/transfer/service"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/config"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/database"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/httputil"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/logger"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("transfer-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("transfer-service", cfg.Server.Environment)
	log.Info().Msg("starting Transfer QC Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ. Event publishing is best-effort, so a broker
	// outage at startup degrades to no events instead of aborting.
	var publisher *events.Publisher
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Warn().Err(err).Msg("RabbitMQ unavailable, events disabled")
		publisher = events.NewPublisher(nil, log)
	} else {
		defer rmq.Close()
		pub, err := messaging.NewPublisher(rmq, messaging.ExchangeTransferEvents, "transfer-service", log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
		publisher = events.NewPublisher(pub, log)
	}

	// SAP Service Layer gateway
	sapClient := erp.New(&cfg.SAP, log.WithComponent("erp"))

	// Initialize service and handlers
	transferService := service.New(db, sapClient, publisher, log)
	sessionHandler := handler.NewSessionHandler(transferService, log)
	qcHandler := handler.NewQCHandler(transferService, log)
	postHandler := handler.NewPostHandler(transferService, log)
	labelHandler := handler.NewLabelHandler(transferService, log)
	lookupHandler := handler.NewLookupHandler(transferService, log)
	scanHandler := handler.NewScanHandler(log)

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(httputil.Actor)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-User-ID", "X-User-Email"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]interface{}{
			"status":   "healthy",
			"service":  "transfer-service",
			"database": db.Health(r.Context()),
		}
		if rmq != nil {
			health["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, health)
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/transfers", func(r chi.Router) {
			r.Get("/", sessionHandler.List)
			r.Post("/", sessionHandler.Create)
			r.Get("/{id}", sessionHandler.Get)
			r.Delete("/{id}", sessionHandler.Delete)

			r.Post("/{id}/qc", qcHandler.Apply)
			r.Put("/{id}/items/{itemID}", qcHandler.UpdateItem)

			r.Post("/{id}/post/approved", postHandler.PostApproved)
			r.Post("/{id}/post/rejected", postHandler.PostRejected)

			r.Post("/{id}/labels", labelHandler.Generate)
			r.Get("/{id}/labels", labelHandler.List)
		})

		r.Route("/lookups", func(r chi.Router) {
			r.Get("/warehouses", lookupHandler.Warehouses)
			r.Get("/warehouses/{whs}/bins", lookupHandler.Bins)
			r.Get("/series", lookupHandler.Series)
			r.Get("/series/{id}/docs/{num}", lookupHandler.SeriesDocument)
		})

		r.Post("/scan/decode", scanHandler.Decode)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
