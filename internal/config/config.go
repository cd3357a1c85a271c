package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port        string
	Env         string
	FrontendURL string

	// Storage
	DataDir string

	// LLM backend selection ("ollama" or "gemini"), fixed for the process lifetime
	LLMService   string
	OllamaHost   string
	OllamaModel  string
	GeminiAPIKey string
	GeminiModel  string

	// Channel analysis
	ChannelLimit int

	// SMTP
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Scheduler
	ScheduleTimes []string
	Timezone      *time.Location
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:         getEnvOrDefault("PORT", "8000"),
		Env:          getEnvOrDefault("ENV", "development"),
		FrontendURL:  getEnvOrDefault("FRONTEND_URL", ""),
		DataDir:      getEnvOrDefault("DATA_DIR", "data"),
		LLMService:   strings.ToLower(getEnvOrDefault("LLM_SERVICE", "ollama")),
		OllamaHost:   getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:  getEnvOrDefault("OLLAMA_MODEL", "llama3.2"),
		GeminiAPIKey: getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:  getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		ChannelLimit: getEnvAsIntOrDefault("CHANNEL_LIMIT", 5),
		SMTPHost:     getEnvOrDefault("SMTP_SERVER", ""),
		SMTPPort:     getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser:     getEnvOrDefault("EMAIL_USER", ""),
		SMTPPass:     getEnvOrDefault("EMAIL_PASSWORD", ""),
	}
	cfg.SMTPFrom = getEnvOrDefault("FROM_EMAIL", cfg.SMTPUser)

	if cfg.LLMService == "gemini" && cfg.GeminiAPIKey == "" {
		panic("GEMINI_API_KEY is required when LLM_SERVICE=gemini")
	}

	cfg.Timezone = loadTimezone()
	cfg.ScheduleTimes = loadScheduleTimes()

	return cfg
}

// loadTimezone resolves TIMEZONE once at startup; unknown names degrade to UTC.
func loadTimezone() *time.Location {
	name := getEnvOrDefault("TIMEZONE", "UTC")
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("Unknown timezone %q, using UTC", name)
		return time.UTC
	}
	return loc
}

// loadScheduleTimes parses SCHEDULE_TIMES (comma-separated "HH:MM" local times,
// SCHEDULE_TIME as single-value fallback). Invalid entries fall back to 09:00.
func loadScheduleTimes() []string {
	raw := os.Getenv("SCHEDULE_TIMES")
	if raw == "" {
		raw = getEnvOrDefault("SCHEDULE_TIME", "09:00")
	}

	var times []string
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, err := time.Parse("15:04", entry); err != nil {
			log.Printf("Invalid schedule time %q, using default 09:00", entry)
			entry = "09:00"
		}
		times = append(times, entry)
	}
	if len(times) == 0 {
		times = []string{"09:00"}
	}
	return times
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
