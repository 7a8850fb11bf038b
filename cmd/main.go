package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restaurant-pos/internal/config"
	"restaurant-pos/internal/database"
	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/messaging"
	"restaurant-pos/internal/services/order"
	"restaurant-pos/internal/services/receipt"
	"restaurant-pos/internal/tables"
)

func main() {
	// Parse command line flags
	var (
		mode           = flag.String("mode", "", "Service mode (api, receipt-notifier)")
		port           = flag.Int("port", 3000, "HTTP port")
		configPath     = flag.String("config", "config.yaml", "Path to config file")
		migrationsPath = flag.String("migrations-path", "migrations", "Path to migration files")
	)
	flag.Parse()

	// Validate required mode flag
	if *mode == "" {
		fmt.Fprintf(os.Stderr, "Error: --mode flag is required\n")
		flag.Usage()
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log := logger.New(*mode)
	requestID := logger.GenerateRequestID()

	log.Info("service_started", fmt.Sprintf("Starting %s", *mode), requestID, map[string]interface{}{
		"mode": *mode,
		"port": *port,
	})

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
		cancel()
	}()

	// Route to appropriate service
	switch *mode {
	case "api":
		if err := runAPI(ctx, cfg, log, *port, *migrationsPath); err != nil {
			log.Error("service_failed", "API service failed", requestID, err, nil)
			os.Exit(1)
		}
	case "receipt-notifier":
		if err := runReceiptNotifier(ctx, cfg, log); err != nil {
			log.Error("service_failed", "Receipt notifier failed", requestID, err, nil)
			os.Exit(1)
		}
	default:
		log.Error("validation_failed", fmt.Sprintf("Unknown mode: %s", *mode), requestID, nil, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

// runAPI runs the HTTP API service
func runAPI(ctx context.Context, cfg *config.Config, log *logger.Logger, port int, migrationsPath string) error {
	requestID := logger.GenerateRequestID()

	// Initialize database
	db, err := database.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	log.Info("db_connected", "Connected to PostgreSQL database", requestID, nil)

	// Run database migrations
	if err := db.RunMigrations(ctx, migrationsPath); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Provision the configured table roster
	if err := tables.Provision(ctx, db, cfg.Tables); err != nil {
		return fmt.Errorf("failed to provision tables: %w", err)
	}

	log.Info("tables_provisioned", "Table roster provisioned", requestID, map[string]interface{}{
		"count": len(cfg.Tables),
	})

	// Initialize messaging; the API stays up without the broker, status
	// events are just not published.
	var publisher order.EventPublisher
	conn, err := messaging.New(cfg, log)
	if err != nil {
		log.Error("rabbitmq_unavailable", "Running without event publishing", requestID, err, nil)
	} else {
		defer conn.Close()
		log.Info("rabbitmq_connected", "Connected to RabbitMQ", requestID, nil)
		publisher = messaging.NewPublisher(conn, log)
	}

	// Initialize service and handler
	runner := order.NewRunner(db)
	service := order.NewService(runner, publisher, log)
	handler := order.NewHandler(service, log)

	mux := http.NewServeMux()
	handler.Register(mux)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	// Start HTTP server in goroutine
	go func() {
		log.Info("service_started", fmt.Sprintf("API started on port %d", port), requestID, map[string]interface{}{
			"port": port,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server_failed", "HTTP server failed", requestID, err, nil)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}

// runReceiptNotifier runs the receipt notification subscriber
func runReceiptNotifier(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()

	sub := receipt.NewSubscriber(conn, log, nil)
	if err := sub.Start(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
