// Command checker runs subscription checks without the HTTP server. With
// -once it performs a single tick and exits, which suits external cron; by
// default it stays up and ticks on the configured schedule.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tubedigest-backend/internal/config"
	"tubedigest-backend/internal/scheduler"
	"tubedigest-backend/internal/services"
	"tubedigest-backend/internal/storage"
)

func main() {
	once := flag.Bool("once", false, "run one subscription check and exit")
	flag.Parse()

	cfg := config.Load()

	store, err := storage.NewSubscriptionStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("✗ Subscription store initialization failed: %v", err)
	}

	summarizer, err := services.NewSummarizer(cfg)
	if err != nil {
		log.Fatalf("✗ LLM backend initialization failed: %v", err)
	}

	youtubeService := services.NewYouTubeService()
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	analyzerService := services.NewAnalyzerService(youtubeService, summarizer)

	daemon := scheduler.New(store, analyzerService, emailService, cfg.Timezone, cfg.ScheduleTimes)

	if *once {
		if err := daemon.RunOnce(context.Background()); err != nil {
			log.Fatalf("✗ Subscription check failed: %v", err)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := daemon.Start(ctx); err != nil {
		log.Fatalf("✗ Scheduler startup failed: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	daemon.Stop()
}
