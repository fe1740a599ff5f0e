package config // package config loads application configuration from environment variables

import (
	"os" // os provides access to environment variables

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Optional integrations (RabbitMQ, MongoDB, OTLP,
// SMTP) stay disabled while their variables are empty.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	LogLevel       string // logrus level name
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	DBMigrate      bool   // apply the embedded schema at startup
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	OTPTTLMin      int    // lifetime of verification codes
	ResetTTLMin    int    // lifetime of password reset tokens
	FrontendURL    string // base URL used in password reset links

	RabbitURL    string // amqp:// URL; empty sends confirmations in-process
	MongoURI     string // mongodb:// URL; empty disables the audit trail
	MongoDB      string // audit database name
	OTLPEndpoint string // host:port of an OTLP gRPC collector

	NotifyWorkers   int // concurrent notification workers
	NotifyQueueSize int // pending notifications before new ones are dropped

	Mail MailConfig
}

// Load reads configuration values from the process environment, after
// merging a local .env file when one exists. Required variables are enforced
// by must() and missing values stop the process.
func Load() Config {
	_ = godotenv.Load() // .env is optional; real environment wins

	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		DBMigrate:      envBool("DB_MIGRATE", true),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 60),
		RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 7),
		BcryptCost:     envInt("BCRYPT_COST", 10),
		OTPTTLMin:      envInt("OTP_TTL_MIN", 15),
		ResetTTLMin:    envInt("RESET_TOKEN_TTL_MIN", 60),
		FrontendURL:    envStr("FRONTEND_URL", "http://localhost:3000"),

		RabbitURL:    os.Getenv("RABBITMQ_URL"),
		MongoURI:     os.Getenv("MONGO_URI"),
		MongoDB:      envStr("MONGO_DB", "event_booking"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),

		NotifyWorkers:   envInt("NOTIFY_WORKERS", 4),
		NotifyQueueSize: envInt("NOTIFY_QUEUE_SIZE", 256),

		Mail: LoadMailConfig(),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logrus.Fatalf("missing required env var: %s", key)
	}
	return v
}
