package config

import (
	"os"
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestLoadScheduleTimes(t *testing.T) {
	tests := []struct {
		name     string
		times    string
		legacy   string
		expected []string
	}{
		{"single time", "07:30", "", []string{"07:30"}},
		{"multiple times", "07:30, 18:00", "", []string{"07:30", "18:00"}},
		{"invalid entry falls back", "25:99", "", []string{"09:00"}},
		{"legacy single-value variable", "", "12:15", []string{"12:15"}},
		{"nothing set", "", "", []string{"09:00"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			os.Unsetenv("SCHEDULE_TIMES")
			os.Unsetenv("SCHEDULE_TIME")
			if tc.times != "" {
				os.Setenv("SCHEDULE_TIMES", tc.times)
				defer os.Unsetenv("SCHEDULE_TIMES")
			}
			if tc.legacy != "" {
				os.Setenv("SCHEDULE_TIME", tc.legacy)
				defer os.Unsetenv("SCHEDULE_TIME")
			}

			result := loadScheduleTimes()
			if len(result) != len(tc.expected) {
				t.Fatalf("Expected %v, got %v", tc.expected, result)
			}
			for i := range result {
				if result[i] != tc.expected[i] {
					t.Errorf("Expected %v, got %v", tc.expected, result)
				}
			}
		})
	}
}

func TestLoadTimezone(t *testing.T) {
	t.Run("valid timezone", func(t *testing.T) {
		os.Setenv("TIMEZONE", "Europe/Berlin")
		defer os.Unsetenv("TIMEZONE")

		loc := loadTimezone()
		if loc.String() != "Europe/Berlin" {
			t.Errorf("Expected Europe/Berlin, got %s", loc)
		}
	})

	t.Run("unknown timezone falls back to UTC", func(t *testing.T) {
		os.Setenv("TIMEZONE", "Mars/Olympus")
		defer os.Unsetenv("TIMEZONE")

		if loc := loadTimezone(); loc != time.UTC {
			t.Errorf("Expected UTC, got %s", loc)
		}
	})
}

func TestLoad_GeminiRequiresKey(t *testing.T) {
	os.Setenv("LLM_SERVICE", "gemini")
	os.Unsetenv("GEMINI_API_KEY")
	defer os.Unsetenv("LLM_SERVICE")

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when gemini is selected without an API key")
		}
	}()

	Load()
}
