// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"posbackend/internal/cart"
	"posbackend/internal/catalog"
	"posbackend/internal/cleanup"
	"posbackend/internal/config"
	"posbackend/internal/data"
	"posbackend/internal/info"
	"posbackend/internal/logger"
	"posbackend/internal/middleware"
	"posbackend/internal/payment"
	"posbackend/internal/security"
)

type App struct {
	addr          string
	mux           *http.ServeMux
	connections   sync.WaitGroup
	totalRequests int64
}

func init() {
	loc, err := time.LoadLocation("Asia/Bangkok")
	if err == nil {
		time.Local = loc // This affects the standard log package
	}
}

func main() {
	// Step 1: Setup configuration first
	config.LoadEnv()
	config.ConfigurePaths()

	// Step 2: Setup logging
	loggerConfig := config.LoggerConfig()
	if err := logger.SetupLogger(loggerConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Only NOW is logging safe to use!
	logger.LogInfo("Environment and paths loaded. Logger ready.")

	// Step 3: Load remaining settings
	config.LoadCatalogConfig()
	config.LoadStorageConfig()
	config.LoadCORSConfig()
	config.LoadRetentionConfig()
	config.LogCurrentEnvironment()

	// Step 4: Open the snapshot store
	if err := data.InitDB(config.DatabasePath); err != nil {
		logger.LogFatal("Failed to open snapshot store: %v", err)
	}

	// Step 5: Build the catalog loader and cart store
	source := catalog.SourceFor(config.CatalogSource)
	loader := catalog.NewLoader(source, data.OverrideStorage{})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := loader.Load(ctx); err != nil {
		// Recoverable: the grid shows an error state until a reload succeeds.
		logger.LogError("Initial catalog load failed: %v", err)
	}
	cancel()

	cartStore := cart.NewStore(data.CartStorage{}, loader)
	cartStore.Restore()

	// Step 6: Start background tasks
	go security.CleanExpiredTokens()
	cleanup.StartCleanupRoutine()

	// Step 7: Run server
	app := &App{
		addr: serverAddress(),
		mux:  routes(loader, cartStore),
	}
	app.Run()
}

// serverAddress builds the server address from environment variables
func serverAddress() string {
	host := os.Getenv("SERVER_HOST")
	if host == "" {
		host = "127.0.0.1"
	}
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "5052"
	}
	return host + ":" + port
}

// routes sets up all API routes
func routes(loader *catalog.Loader, cartStore *cart.Store) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	catalogHandler := catalog.NewHandler(loader)
	cartHandler := cart.NewHandler(cartStore, loader)
	checkoutHandler := payment.NewHandler(cartStore)
	infoHandler := info.NewHandler(loader, cartStore)

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/csrf-token", security.CSRFTokenHandler)
	apiMux.HandleFunc("/products", middleware.APIMiddleware(catalogHandler.ListProducts))
	apiMux.HandleFunc("/categories", middleware.APIMiddleware(catalogHandler.ListCategories))
	apiMux.HandleFunc("/catalog/reload", middleware.MutationMiddleware(catalogHandler.Reload))
	apiMux.HandleFunc("/cart", middleware.APIMiddleware(cartHandler.GetCart))
	apiMux.HandleFunc("/cart/add", middleware.MutationMiddleware(cartHandler.AddItem))
	apiMux.HandleFunc("/cart/quantity", middleware.MutationMiddleware(cartHandler.SetQuantity))
	apiMux.HandleFunc("/cart/remove", middleware.MutationMiddleware(cartHandler.RemoveItem))
	apiMux.HandleFunc("/checkout", middleware.CheckoutMiddleware(checkoutHandler.Checkout))
	apiMux.HandleFunc("/status", middleware.APIMiddleware(infoHandler.Status))

	mux.Handle("/api/", http.StripPrefix("/api", apiMux))

	return mux
}

// Run starts the HTTP server
func (a *App) Run() {
	server := &http.Server{
		Addr:         a.addr,
		Handler:      a.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in a separate goroutine
	go func() {
		logger.LogInfo("Starting server on %s", a.addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.LogFatal("Server failed: %v", err)
		}
	}()

	// Wait for a shutdown signal
	<-stop
	logger.LogInfo("Shutdown signal received")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the server gracefully
	if err := server.Shutdown(ctx); err != nil {
		logger.LogError("Server shutdown error: %v", err)
	} else {
		logger.LogInfo("Server shut down gracefully")
	}

	// Wait for active connections to finish
	logger.LogInfo("Waiting for active connections to finish...")
	a.connections.Wait()

	if err := data.CloseDB(); err != nil {
		logger.LogError("Failed to close snapshot store: %v", err)
	}

	logger.LogInfo("All connections closed. Total requests handled: %d", atomic.LoadInt64(&a.totalRequests))
}

// Handler assembles all middleware around the main mux
func (a *App) Handler() http.Handler {
	var handler http.Handler = a.mux

	handler = a.trackConnections(handler)
	handler = withTimeout(handler, 15*time.Second)

	return handler
}

// Middleware: timeout handler
func withTimeout(h http.Handler, timeout time.Duration) http.Handler {
	return http.TimeoutHandler(h, timeout, "Request timed out")
}

// Middleware: track active connections and total requests
func (a *App) trackConnections(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.connections.Add(1)
		atomic.AddInt64(&a.totalRequests, 1)
		defer a.connections.Done()

		h.ServeHTTP(w, r)
	})
}
