package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/therealutkarshpriyadarshi/vector/pkg/api/rest"
	"github.com/therealutkarshpriyadarshi/vector/pkg/api/rest/middleware"
	"github.com/therealutkarshpriyadarshi/vector/pkg/config"
	"github.com/therealutkarshpriyadarshi/vector/pkg/engine"
	"github.com/therealutkarshpriyadarshi/vector/pkg/observability"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	// Parse command-line flags
	var (
		showVersion = flag.Bool("version", false, "show version and exit")
		showHelp    = flag.Bool("help", false, "show help and exit")
		configFile  = flag.String("config", "", "path to configuration file (optional)")
		host        = flag.String("host", "", "server host (overrides config/env)")
		port        = flag.Int("port", 0, "server port (overrides config/env)")
	)
	flag.Parse()

	// Show version
	if *showVersion {
		fmt.Printf("Vector Database Server v%s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	// Show help
	if *showHelp {
		showUsage()
		os.Exit(0)
	}

	// Print banner
	printBanner()

	// Load configuration
	cfg := loadConfig(*configFile)

	// Override with command-line flags
	if *host != "" {
		cfg.REST.Host = *host
	}
	if *port > 0 {
		cfg.REST.Port = *port
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := observability.NewDefaultLogger()
	metrics := observability.NewMetrics()

	log.Println("Initializing Vector Database engine...")
	eng := engine.New(engine.Params{
		Algorithm:  cfg.Index.Algorithm,
		Metric:     cfg.Index.ParsedMetric(),
		HNSW:       cfg.Index.HNSW,
		SSG:        cfg.Index.SSG,
		PQ:         cfg.Index.PQ,
		IVFPQ:      cfg.Index.IVFPQ,
		BPT:        cfg.Index.BPT,
		BruteForce: cfg.Index.BruteForce,
	}, metrics, logger)

	// Print startup info
	printStartupInfo(cfg)

	var restServer *rest.Server
	errChan := make(chan error, 1)

	if cfg.REST.Enabled {
		restConfig := rest.Config{
			Host:        cfg.REST.Host,
			Port:        cfg.REST.Port,
			CORSEnabled: cfg.REST.CORSEnabled,
			CORSOrigins: cfg.REST.CORSOrigins,
			Version:     version,
			Auth: middleware.AuthConfig{
				Enabled:     cfg.REST.AuthEnabled,
				JWTSecret:   cfg.REST.JWTSecret,
				PublicPaths: cfg.REST.PublicPaths,
				AdminPaths:  cfg.REST.AdminPaths,
			},
			RateLimit: middleware.RateLimitConfig{
				Enabled:        cfg.REST.RateLimitEnabled,
				RequestsPerSec: cfg.REST.RateLimitPerSec,
				Burst:          cfg.REST.RateLimitBurst,
				PerIP:          cfg.REST.RateLimitPerIP,
				PerUser:        cfg.REST.RateLimitPerUser,
				GlobalLimit:    cfg.REST.RateLimitGlobal,
			},
		}

		var err error
		restServer, err = rest.NewServer(restConfig, eng)
		if err != nil {
			log.Fatalf("Failed to create REST server: %v", err)
		}

		go func() {
			log.Println("Starting REST API server...")
			if err := restServer.Start(); err != nil {
				errChan <- fmt.Errorf("REST server error: %w", err)
			}
		}()
	} else {
		log.Println("REST API server disabled (VECTOR_REST_ENABLED=false)")
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	log.Println("Server is ready. Press Ctrl+C to stop.")
	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-errChan:
		log.Printf("Server error: %v", err)
	}

	log.Println("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if restServer != nil {
		if err := restServer.Stop(ctx); err != nil {
			log.Printf("Error stopping REST server: %v", err)
		}
	}

	log.Printf("Engine uptime at shutdown: %v", eng.Uptime())
	log.Println("Server stopped. Goodbye!")
}

func loadConfig(configFile string) *config.Config {
	// Configuration files are not read; -config is accepted and ignored.
	if configFile != "" {
		log.Printf("Warning: config files are not supported, using environment variables")
	}

	// Load from environment variables
	cfg := config.LoadFromEnv()

	return cfg
}

func printBanner() {
	banner := `
╔═══════════════════════════════════════════════════════════╗
║                                                           ║
║   __     __        _              ____  ____              ║
║   \ \   / /__  ___| |_ ___  _ __ |  _ \| __ )             ║
║    \ \ / / _ \/ __| __/ _ \| '__|| | | |  _ \             ║
║     \ V /  __/ (__| || (_) | |   | |_| | |_) |            ║
║      \_/ \___|\___|\__\___/|_|   |____/|____/             ║
║                                                           ║
║   Approximate Nearest Neighbor search over six indexes   ║
║   HNSW, SSG, PQ, IVF-PQ, BPT forest, brute force          ║
║                                                           ║
╚═══════════════════════════════════════════════════════════╝
`
	fmt.Println(banner)
	fmt.Printf("Version: %s (commit: %s)\n\n", version, commit)
}

func printStartupInfo(cfg *config.Config) {
	fmt.Println("\n╔════════════════════════════════════════════════════════╗")
	fmt.Println("║            REST API Configuration                      ║")
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Printf("║ Enabled:          %-35v ║\n", cfg.REST.Enabled)
	if cfg.REST.Enabled {
		fmt.Printf("║ Address:          %-35s ║\n", fmt.Sprintf("%s:%d", cfg.REST.Host, cfg.REST.Port))
		fmt.Printf("║ Auth Enabled:     %-35v ║\n", cfg.REST.AuthEnabled)
		fmt.Printf("║ CORS Enabled:     %-35v ║\n", cfg.REST.CORSEnabled)
		fmt.Printf("║ Rate Limiting:    %-35v ║\n", cfg.REST.RateLimitEnabled)
		if cfg.REST.RateLimitEnabled {
			fmt.Printf("║ Rate:             %-35s ║\n", fmt.Sprintf("%.1f req/s (burst: %d)", cfg.REST.RateLimitPerSec, cfg.REST.RateLimitBurst))
		}
		fmt.Printf("║ API Docs:         %-35s ║\n", fmt.Sprintf("http://%s:%d/docs", cfg.REST.Host, cfg.REST.Port))
	}
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Println("║               Index Configuration                      ║")
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Printf("║ Algorithm:        %-35s ║\n", cfg.Index.Algorithm)
	fmt.Printf("║ Metric:           %-35s ║\n", cfg.Index.Metric)
	fmt.Printf("║ Dimensions:       %-35d ║\n", cfg.Index.Dimensions)
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Println("║               Cache Configuration                      ║")
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Printf("║ Enabled:          %-35v ║\n", cfg.Cache.Enabled)
	fmt.Printf("║ Capacity:         %-35d ║\n", cfg.Cache.Capacity)
	fmt.Printf("║ TTL:              %-35s ║\n", cfg.Cache.TTL)
	fmt.Println("╚════════════════════════════════════════════════════════╝")
	fmt.Println()
}

func showUsage() {
	fmt.Println("Vector Database Server - approximate nearest neighbor search over HNSW, SSG, PQ, IVF-PQ, BPT, and brute force")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  vector-server [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -help             Show this help message")
	fmt.Println("  -version          Show version information")
	fmt.Println("  -config PATH      Accepted but ignored; configuration comes from environment variables")
	fmt.Println("  -host HOST        REST API host (default: 0.0.0.0)")
	fmt.Println("  -port PORT        REST API port (default: 8080)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  VECTOR_REST_ENABLED        Enable REST API (true/false)")
	fmt.Println("  VECTOR_REST_PORT           REST API port")
	fmt.Println("  VECTOR_JWT_SECRET          JWT signing secret (enables auth)")
	fmt.Println("  VECTOR_ALGORITHM           Default index algorithm (hnsw, ssg, pq, ivfpq, bpt, bruteforce)")
	fmt.Println("  VECTOR_METRIC              Distance metric (euclidean, manhattan, dot_product, cosine_similarity, angular)")
	fmt.Println("  VECTOR_DIMENSIONS          Vector dimensions")
	fmt.Println("  VECTOR_HNSW_M              HNSW neighbor count")
	fmt.Println("  VECTOR_HNSW_EF_CONSTRUCTION HNSW build-time beam width")
	fmt.Println("  VECTOR_CACHE_ENABLED       Enable query cache (true/false)")
	fmt.Println("  VECTOR_CACHE_CAPACITY      Cache capacity")
	fmt.Println("  VECTOR_CACHE_TTL           Cache TTL (e.g., 5m)")
	fmt.Println("  VECTOR_DATA_DIR            Data directory path")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Start with default configuration")
	fmt.Println("  vector-server")
	fmt.Println()
	fmt.Println("  # Start on custom port")
	fmt.Println("  vector-server -port 9090")
	fmt.Println()
	fmt.Println("  # Start with environment variables")
	fmt.Println("  VECTOR_REST_PORT=9090 VECTOR_ALGORITHM=ssg vector-server")
	fmt.Println()
}
