// Package main provides the grid extraction HTTP server.
package main

import (
	"flag"
	"fmt"

	"go.ngs.io/extract-api/internal/adapter/store/netcdf"
	"go.ngs.io/extract-api/internal/config"
	httpHandler "go.ngs.io/extract-api/internal/http"
	"go.ngs.io/extract-api/internal/logger"
	"go.ngs.io/extract-api/internal/usecase"
)

const version = "0.1.0"

func main() {
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		fmt.Printf("extract-api version %s\n", version)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		return
	}

	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	log := logger.Get("server")

	log.Info().
		Str("data_dir", cfg.Data.Dir).
		Int("workers", cfg.Extract.Workers).
		Msg("starting extraction API server")

	store := netcdf.NewStore(cfg.Data.Dir)
	extractor := usecase.NewExtractor(store, cfg.Extract.Workers, logger.Get("extract"))

	router := httpHandler.SetupRouter(extractor, cfg.Server.CORSOrigins)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("server listening")

	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}

func printUsage() {
	fmt.Printf("Extraction API Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  server [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("CONFIGURATION:")
	fmt.Println("  Read from extract.toml (., /etc/extract/, ~/.extract/) and")
	fmt.Println("  EXTRACT_* environment variables. Keys:")
	fmt.Println("    data.dir              NetCDF dataset directory (default: ./data)")
	fmt.Println("    extract.workers       Concurrent samplers per dataset (default: 1)")
	fmt.Println("    log.level             Log level (default: info)")
	fmt.Println("    log.format            console or json (default: console)")
	fmt.Println("    server.host           Bind host (default: 0.0.0.0)")
	fmt.Println("    server.port           Bind port (default: 8080)")
	fmt.Println("    server.cors_origins   Allowed CORS origins (default: all)")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET /health                Health check")
	fmt.Println("  GET /v1/extract/instant    Sample variables at one point and timestamp")
	fmt.Println("  GET /v1/extract/series     Sample a time series at one point")
}
