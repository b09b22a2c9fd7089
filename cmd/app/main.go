package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/local/passscan/internal/ai"
	cfgpkg "github.com/local/passscan/internal/config"
	"github.com/local/passscan/internal/filetype"
	"github.com/local/passscan/internal/imagerender"
	logpkg "github.com/local/passscan/internal/logger"
	"github.com/local/passscan/internal/metrics"
	"github.com/local/passscan/internal/ocr"
	"github.com/local/passscan/internal/pdftext"
	"github.com/local/passscan/internal/scanner"
)

func main() {
	_ = godotenv.Load()
	cfg := cfgpkg.FromEnv()

	// Init logging
	if err := logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer logpkg.Close()

	metrics.Init()

	// AI structuring client; an absent credential is fatal at startup.
	gemini, err := ai.NewGemini(context.Background(), ai.GeminiOptions{
		APIKey:    cfg.Gemini.APIKey,
		Model:     cfg.Gemini.Model,
		Timeout:   cfg.Gemini.Timeout,
		MaxTokens: cfg.Gemini.MaxTokens,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init gemini client")
	}

	scan, err := scanner.New(scanner.Config{
		Concurrency: cfg.Scan.Concurrency,
		FileTimeout: cfg.Scan.FileTimeout,
		MaxUploadMB: cfg.Scan.MaxUploadMB,
		TempDir:     cfg.Scan.TempDir,
	}, scanner.Dependencies{
		Classifier: filetype.New(),
		Text:       pdftext.New(cfg.Scan.MinTextChars),
		Renderer: imagerender.New(imagerender.Options{
			DPI:         cfg.OCR.DPI,
			JPEGQuality: cfg.OCR.JPEGQuality,
			ColorMode:   imagerender.ColorMode(cfg.OCR.ColorMode),
		}),
		OCR: ocr.NewEngine(cfg.OCR.Languages),
		AI:  gemini,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init scanner")
	}

	mux := http.NewServeMux()
	scan.RegisterRoutes(mux)
	mux.Handle("/metrics", metrics.Handler())

	// Sweep temp artifacts orphaned by earlier crashes, then hourly.
	scanner.SweepTemps(cfg.Scan.TempDir, time.Hour)
	go func() {
		for range time.Tick(time.Hour) {
			scanner.SweepTemps(cfg.Scan.TempDir, time.Hour)
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	srv := &http.Server{Addr: ":" + port, Handler: scanner.WithCORS(mux)}

	go func() {
		log.Info().Msgf("HTTP server listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("shutdown complete")
}
