package config

import (
	"log"
	"math"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration.
type Config struct {
	Port               string
	CORSAllowOrigin    []string
	ObjectStoreType    string
	LocalStoreDir      string
	AWSRegion          string
	S3Bucket           string
	S3Prefix           string
	SSEKMSKeyID        string
	CatalogKey         string
	USDAAPIKey         string
	USDABaseURL        string
	OpenFoodFactsURL   string
	DatabaseURL        string
	Env                string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string
	QueueURL           string
	SNSPlatformARN     string
	ReminderTickSecs   int
	Recommendations    RecommendationOverrides
}

// RecommendationOverrides carries optional REC_* overrides. A nil field keeps
// the default; an explicit 0 is an override like any other value.
type RecommendationOverrides struct {
	WindowDays      *float64
	TopN            *int
	PreferenceBoost *float64
	DiversityWeight *float64
	DiversityCap    *int
	ReasonThreshold *float64

	WeightCalories *float64
	WeightProtein  *float64
	WeightCarbs    *float64
	WeightFats     *float64

	MinCalories *float64
	MinProtein  *float64
	MinCarbs    *float64
	MinFats     *float64
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:               getEnv("PORT", "8080"),
		CORSAllowOrigin:    splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:8081")),
		ObjectStoreType:    normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:      getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:          getEnv("AWS_REGION", ""),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Prefix:           getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:        getEnv("SSE_KMS_KEY_ID", ""),
		CatalogKey:         getEnv("CATALOG_KEY", ""),
		USDAAPIKey:         getEnv("USDA_API_KEY", "DEMO_KEY"),
		USDABaseURL:        getEnv("USDA_BASE_URL", "https://api.nal.usda.gov/fdc/v1"),
		OpenFoodFactsURL:   getEnv("OPENFOODFACTS_BASE_URL", "https://world.openfoodfacts.org"),
		DatabaseURL:        dbURL,
		Env:                env,
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		UIRedirectURL:      getEnv("UI_REDIRECT_URL", ""),
		QueueURL:           getEnv("NUTRI_SQS_QUEUE_URL", ""),
		SNSPlatformARN:     getEnv("SNS_PLATFORM_ARN", ""),
		ReminderTickSecs:   getEnvInt("REMINDER_TICK_SECONDS", 60),
		Recommendations: RecommendationOverrides{
			WindowDays:      optEnvFloat("REC_WINDOW_DAYS"),
			TopN:            optEnvInt("REC_TOP_N"),
			PreferenceBoost: optEnvFloat("REC_PREFERENCE_BOOST"),
			DiversityWeight: optEnvFloat("REC_DIVERSITY_PENALTY"),
			DiversityCap:    optEnvInt("REC_DIVERSITY_CAP"),
			ReasonThreshold: optEnvFloat("REC_REASON_THRESHOLD"),
			WeightCalories:  optEnvFloat("REC_WEIGHT_CALORIES"),
			WeightProtein:   optEnvFloat("REC_WEIGHT_PROTEIN"),
			WeightCarbs:     optEnvFloat("REC_WEIGHT_CARBS"),
			WeightFats:      optEnvFloat("REC_WEIGHT_FATS"),
			MinCalories:     optEnvFloat("REC_MIN_CALORIES"),
			MinProtein:      optEnvFloat("REC_MIN_PROTEIN"),
			MinCarbs:        optEnvFloat("REC_MIN_CARBS"),
			MinFats:         optEnvFloat("REC_MIN_FATS"),
		},
	}
}

// IsDevLike reports whether env allows in-memory fallbacks.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config %s invalid int: %v", key, err)
		return def
	}
	return val
}

// optEnvInt returns nil when key is unset or not an integer.
func optEnvInt(key string) *int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config %s invalid int: %v", key, err)
		return nil
	}
	return &val
}

// optEnvFloat returns nil when key is unset or not a finite number.
func optEnvFloat(key string) *float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
		log.Printf("config %s invalid float: %q", key, raw)
		return nil
	}
	return &val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
