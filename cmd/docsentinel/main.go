package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/raaihank/docsentinel/internal/config"
	"github.com/raaihank/docsentinel/internal/errors"
	"github.com/raaihank/docsentinel/internal/events"
	"github.com/raaihank/docsentinel/internal/export"
	"github.com/raaihank/docsentinel/internal/logger"
	"github.com/raaihank/docsentinel/internal/session"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	// Parse command line flags
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		inPath      = flag.String("in", "", "Input document (pdf, png or jpeg)")
		outPath     = flag.String("out", "", "Output path for the redacted document")
		format      = flag.String("format", "", "Export format: pdf, png or jpg (defaults to config)")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("docsentinel %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *format != "" {
		cfg.Export.Format = *format
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Logging.File.Enabled {
		loggerConfig.File = &logger.FileConfig{
			Enabled:  cfg.Logging.File.Enabled,
			Path:     cfg.Logging.File.Path,
			MaxSize:  cfg.Logging.File.MaxSize,
			MaxAge:   cfg.Logging.File.MaxAge,
			Compress: cfg.Logging.File.Compress,
		}
	}

	log, err := logger.New(loggerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *inPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: docsentinel -in scan.png -out redacted.pdf [-format pdf]")
		os.Exit(2)
	}

	exportFormat, err := export.ParseFormat(cfg.Export.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid export format: %v\n", err)
		os.Exit(2)
	}

	log.Info("Starting docsentinel",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("build_date", date),
		zap.String("input", *inPath),
	)

	// Optional dashboard event feed
	var sessionOpts []session.Option
	if cfg.Events.Enabled {
		hub := events.NewHub(cfg.Events, log)
		go hub.Run()
		defer hub.Stop()
		go func() {
			log.Info("event feed listening", zap.String("addr", cfg.Events.Addr))
			if err := http.ListenAndServe(cfg.Events.Addr, hub.Router(cfg.Events.Path)); err != nil {
				log.Warn("event feed stopped", zap.Error(err))
			}
		}()
		sessionOpts = append(sessionOpts, session.WithHub(hub))
	}

	sess, err := session.New(cfg, log, sessionOpts...)
	if err != nil {
		log.Fatal("Failed to create session", zap.Error(err))
	}

	// Tear the session down on interrupt so outstanding extraction requests
	// are rejected instead of timing out.
	ctx, cancel := context.WithCancel(context.Background())
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))
		cancel()
		sess.Close()
	}()

	if err := run(ctx, sess, *inPath, *outPath, exportFormat, log); err != nil {
		log.Error("Pipeline failed", zap.Error(err))
		sess.Close()
		os.Exit(1)
	}

	if err := sess.Close(); err != nil {
		log.Warn("Session teardown reported an error", zap.Error(err))
	}
	log.Info("Done", zap.String("output", *outPath))
}

func run(ctx context.Context, sess *session.Session, inPath, outPath string, format export.Format, log *logger.Logger) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}
	if err := sess.LoadDocument(data); err != nil {
		return err
	}

	doc := sess.Document()
	for page := 1; page <= doc.PageCount(); page++ {
		pageLog := log.WithPage(page)
		detections, err := sess.DetectPage(ctx, page, func(percent float64, status string) {
			pageLog.Debug("extraction progress", zap.Float64("percent", percent), zap.String("status", status))
		})
		if err != nil {
			switch errors.CodeOf(err) {
			case errors.CodeOCRInitFailed, errors.CodeOCRFailed, errors.CodeOCRTimeout:
				// Extraction is unavailable; the document can still be
				// exported with manual regions only.
				pageLog.Warn("extraction unavailable, continuing without auto-detection", zap.Error(err))
			case errors.CodePIIDetectionFailed:
				pageLog.Warn("detection failed for page, continuing", zap.Error(err))
				continue
			default:
				return err
			}
			if sess.ManualOnly() {
				break
			}
			continue
		}
		created := sess.Store().AddAutoDetectedRegions(page, detections)
		pageLog.Info("page redactions prepared",
			zap.Int("detections", len(detections)),
			zap.Int("regions", len(created)),
		)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	return sess.Export(ctx, out, format)
}
