package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tubedigest-backend/internal/config"
	"tubedigest-backend/internal/handlers"
	"tubedigest-backend/internal/router"
	"tubedigest-backend/internal/scheduler"
	"tubedigest-backend/internal/services"
	"tubedigest-backend/internal/storage"
)

func main() {
	log.Println("🚀 Starting TubeDigest Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Open Subscription Store ────
	store, err := storage.NewSubscriptionStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("✗ Subscription store initialization failed: %v", err)
	}
	log.Printf("✓ Subscription store ready (%s)", cfg.DataDir)

	// ──── Step 3: Initialize LLM Backend ────
	summarizer, err := services.NewSummarizer(cfg)
	if err != nil {
		log.Fatalf("✗ LLM backend initialization failed: %v", err)
	}
	log.Printf("✓ LLM backend initialized (%s)", summarizer.Name())

	probeCtx, probeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	status := summarizer.CheckConnection(probeCtx)
	probeCancel()
	if status.State == services.StateConnected {
		log.Printf("✓ %s reachable (model: %s)", summarizer.Name(), status.Model)
	} else {
		// Degraded, not fatal: videos fall back to basic info until it recovers.
		log.Printf("⚠ %s not reachable: %s", summarizer.Name(), status.Detail)
	}

	// ──── Initialize Services ────
	youtubeService := services.NewYouTubeService()
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	analyzerService := services.NewAnalyzerService(youtubeService, summarizer)

	// ──── Step 4: Start Subscription Scheduler ────
	daemon := scheduler.New(store, analyzerService, emailService, cfg.Timezone, cfg.ScheduleTimes)
	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	defer schedulerCancel()
	if err := daemon.Start(schedulerCtx); err != nil {
		log.Fatalf("✗ Scheduler startup failed: %v", err)
	}

	// ──── Initialize Handlers ────
	analysisHandler := handlers.NewAnalysisHandler(analyzerService, summarizer, daemon, cfg.ChannelLimit)
	subscriptionHandler := handlers.NewSubscriptionHandler(store)

	// ──── Step 5: Start HTTP Server ────
	r := router.New(analysisHandler, subscriptionHandler, cfg.FrontendURL)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// No write timeout: analysis streams stay open for minutes.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		daemon.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ TubeDigest Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
