package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"linkedcrm/models"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	DB        *gorm.DB
	AppConfig Config
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

type Config struct {
	Environment string `json:"environment"`
	ServerPort  string `json:"server_port"`

	DBHost         string `json:"db_host"`
	DBPort         string `json:"db_port"`
	DBUser         string `json:"db_user"`
	DBPassword     string `json:"-"`
	DBName         string `json:"db_name"`
	DBSSLMode      string `json:"db_ssl_mode"`
	DBMaxIdleConns int    `json:"db_max_idle_conns"`
	DBMaxOpenConns int    `json:"db_max_open_conns"`

	// Operator identity - used to resolve message direction during import
	// and as the login account.
	MyLinkedInURL     string `json:"my_linkedin_url"`
	AdminEmail        string `json:"admin_email"`
	AdminPasswordHash string `json:"-"`
	JWTSecret         string `json:"-"`

	// AI message generation
	AnthropicAPIKey string `json:"-"`
	AnthropicModel  string `json:"anthropic_model"`

	// Daily digest email
	SMTPHost        string `json:"smtp_host"`
	SMTPPort        int    `json:"smtp_port"`
	SMTPUsername    string `json:"smtp_username"`
	SMTPPassword    string `json:"-"`
	FromEmail       string `json:"from_email"`
	DigestRecipient string `json:"digest_recipient"`
	DigestEnabled   bool   `json:"digest_enabled"`

	// Background scan worker
	ScanEnabled      bool          `json:"scan_enabled"`
	ScanInterval     time.Duration `json:"scan_interval"`
	RateLimitGenerate int          `json:"rate_limit_generate"`

	SentryDSN string `json:"-"`
	Redis     RedisConfig `json:"redis"`
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
}

func LoadConfig() error {
	AppConfig = Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  getEnv("SERVER_PORT", "8000"),

		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "linkedcrm"),
		DBSSLMode:      getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 50),

		MyLinkedInURL:     getEnv("MY_LINKEDIN_URL", ""),
		AdminEmail:        getEnv("ADMIN_EMAIL", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),

		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),

		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPPort:        getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		FromEmail:       getEnv("FROM_EMAIL", ""),
		DigestRecipient: getEnv("DIGEST_RECIPIENT", ""),
		DigestEnabled:   getEnv("DIGEST_ENABLED", "false") == "true",

		ScanEnabled:       getEnv("SCAN_ENABLED", "true") == "true",
		ScanInterval:      getEnvAsDuration("SCAN_INTERVAL", 6*time.Hour),
		RateLimitGenerate: getEnvAsInt("RATE_LIMIT_GENERATE", 10),

		SentryDSN: getEnv("SENTRY_DSN", ""),
		Redis: RedisConfig{
			Enabled:  getEnv("REDIS_ENABLED", "false") == "true",
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
	}

	// Validate required configurations
	if AppConfig.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if AppConfig.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if AppConfig.MyLinkedInURL == "" {
		return fmt.Errorf("MY_LINKEDIN_URL is required to resolve message direction")
	}
	if AppConfig.Environment == "production" {
		if AppConfig.AdminEmail == "" || AppConfig.AdminPasswordHash == "" {
			return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD_HASH are required in production")
		}
	}

	logConfig()
	return nil
}

func ConnectDB() error {
	log.Println("Attempting to connect to database...")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBSSLMode,
	)
	log.Println("Using connection string:", maskPassword(dsn))

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(AppConfig.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(AppConfig.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	log.Println("Successfully connected to the database")
	log.Println("Starting database migration...")
	if err := MigrateDB(DB); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Println("Database migration completed")

	if err := models.CreateDefaultTargetCompanies(DB); err != nil {
		return fmt.Errorf("failed to seed target companies: %w", err)
	}
	return nil
}

// MigrateDB runs AutoMigrate for every model. Exported so tests can run the
// same migrations against their own database.
func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Contact{},
		&models.Message{},
		&models.ResurrectionOpportunity{},
		&models.OutreachQueueItem{},
		&models.TargetCompany{},
		&models.DataUpload{},
	)
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	d, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallback
	}
	return d
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

func logConfig() {
	log.Println("Loaded configuration:")
	log.Printf("Environment: %s", AppConfig.Environment)
	log.Printf("Server Port: %s", AppConfig.ServerPort)
	log.Printf("Database: %s@%s:%s/%s",
		AppConfig.DBUser,
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBName)
	log.Printf("Scan worker: enabled=%t interval=%s",
		AppConfig.ScanEnabled, AppConfig.ScanInterval)
	log.Printf("Digest: enabled=%t recipient=%s",
		AppConfig.DigestEnabled, AppConfig.DigestRecipient)
}
