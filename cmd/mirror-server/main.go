package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"animeharvest/internal/logging"
	"animeharvest/internal/mirror"
)

// mirror-server serves data/mirror.json with the same routes as the catalog
// API, so a harvest can be pointed at it with --base-url and --season-url.
func main() {
	var (
		dataPath  = flag.String("data", "data/mirror.json", "mirror file written by export-mirror")
		addr      = flag.String("addr", ":9000", "listen address")
		rps       = flag.Float64("rps", 2, "requests per second before answering 429 (0 = unlimited)")
		burst     = flag.Int("burst", 30, "request burst allowed by the limiter")
		logLevel  = flag.String("log-level", "info", "debug, info, warn or error")
		logFormat = flag.String("log-format", "auto", "auto, text or json")
	)
	flag.Parse()

	logger, closer, err := logging.New(logging.Options{Level: *logLevel, Format: *logFormat, Service: "mirror-server"})
	if err != nil {
		slog.Error("logger setup failed", "error", err)
		os.Exit(1)
	}
	defer closer.Close()

	ds, err := mirror.Load(*dataPath)
	if err != nil {
		logger.Error("cannot load mirror", "path", *dataPath, "error", err)
		os.Exit(1)
	}

	var limiter *rate.Limiter
	if *rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(*rps), *burst)
	}

	gin.SetMode(gin.ReleaseMode)
	router := mirror.NewRouter(ds, limiter)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", *addr)
	if err != nil {
		logger.Error("listen failed", "address", *addr, "error", err)
		os.Exit(1)
	}

	logger.Info("mirror loaded", "anime", len(ds.Anime), "seasons", len(ds.Seasons))
	if err := mirror.Serve(ctx, listener, router, logger); err != nil {
		logger.Error("mirror server failed", "error", err)
		os.Exit(1)
	}
}
