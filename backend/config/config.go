package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerURL         string
	SigningKey        string
	StoreDriver       string // mongo, firestore or memory
	MongoURI          string
	DBName            string
	FirestoreProject  string
	RedisURL          string // empty uses an in-process cache
	RabbitMQURL       string // empty runs coaching jobs inline
	OpenAIKey         string // empty always uses rule based advice
	OpenAIModel       string
	CoachingTimeout   time.Duration
	CoachingSchedule  string
	CoachingConsumers int
	SMTPEmail         string
	SMTPPassword      string
}

// Load reads the configuration from the environment after loading the .env
// files that exist among paths.
func Load(paths ...string) Config {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			log.Printf("No %s file found, using defaults/environment variables", p)
		}
	}

	return Config{
		ServerURL:         getenv("SERVER_URL", "localhost:8080"),
		SigningKey:        getenv("JWT_SIGNING_KEY", ""),
		StoreDriver:       getenv("STORE_DRIVER", "memory"),
		MongoURI:          getenv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:            getenv("DB_NAME", "getfit"),
		FirestoreProject:  getenv("FIRESTORE_PROJECT_ID", ""),
		RedisURL:          getenv("REDIS_URL", ""),
		RabbitMQURL:       getenv("RABBITMQ_URL", ""),
		OpenAIKey:         getenv("OPENAI_API_KEY", ""),
		OpenAIModel:       getenv("OPENAI_MODEL", "gpt-4o-mini"),
		CoachingTimeout:   getenvDuration("COACHING_TIMEOUT", 15*time.Second),
		CoachingSchedule:  getenv("COACHING_SCHEDULE", "0 6 * * *"),
		CoachingConsumers: getenvInt("COACHING_CONSUMERS", 2),
		SMTPEmail:         getenv("SMTP_EMAIL", ""),
		SMTPPassword:      getenv("SMTP_PASSWORD", ""),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
