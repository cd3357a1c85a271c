package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"tubedigest-backend/internal/handlers"
	"tubedigest-backend/internal/middleware"
)

func New(
	analysisHandler *handlers.AnalysisHandler,
	subscriptionHandler *handlers.SubscriptionHandler,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Analysis rate limiter (20 req/min per IP); each request fans out to
	// YouTube and the LLM backend.
	analysisLimiter := middleware.NewRateLimiter(20, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Analysis Routes ────
		r.Route("/analyze", func(r chi.Router) {
			r.Use(analysisLimiter.Middleware)
			r.Post("/video", analysisHandler.AnalyzeVideo)
			r.Post("/video/stream", analysisHandler.AnalyzeVideoStream)
			r.Post("/channel", analysisHandler.AnalyzeChannel)
			r.Post("/channel/stream", analysisHandler.AnalyzeChannelStream)
		})

		// ──── Subscription Routes ────
		r.Route("/subscriptions", func(r chi.Router) {
			r.Post("/", subscriptionHandler.Create)
			r.Get("/", subscriptionHandler.List)
			r.Get("/emails", subscriptionHandler.Emails)
			r.Delete("/{id}", subscriptionHandler.Delete)
			r.Post("/unsubscribe", subscriptionHandler.Unsubscribe)
		})

		// ──── Service Routes ────
		r.Get("/llm-service", analysisHandler.LLMService)
		r.Post("/check-subscriptions", analysisHandler.CheckSubscriptions)
		r.Get("/test-stream", analysisHandler.TestStream)
	})

	return r
}
