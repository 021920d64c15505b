package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Ledger (on-chain asset contract)
	RPCURL                string
	ChainID               int64
	ContractAddress       string
	WalletPrivateKey      string
	LedgerConfirmTimeout  time.Duration
	LedgerReadConcurrency int

	// Admin
	AdminAPIKey string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Get values from environment variables with defaults
	config := &Config{
		// Server
		Port: getEnv("PORT", "8080"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "brickvest"),
		DBPassword: getEnv("DB_PASSWORD", "brickvest"),
		DBName:     getEnv("DB_NAME", "brickvest"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		// Ledger
		RPCURL:           getEnv("RPC_URL", ""),
		ContractAddress:  getEnv("CONTRACT_ADDRESS", ""),
		WalletPrivateKey: getEnv("WALLET_PRIVATE_KEY", ""),

		// Admin
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
	}

	// Parse JWT expiration duration
	expStr := getEnv("JWT_EXPIRES_IN", "24h")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 24h\n", expStr)
		expDur = 24 * time.Hour
	}
	config.JWTExpirationDur = expDur

	// Parse chain ID (defaults to Sepolia)
	chainStr := getEnv("CHAIN_ID", "11155111")
	chainID, err := strconv.ParseInt(chainStr, 10, 64)
	if err != nil {
		log.Printf("Warning: invalid CHAIN_ID value '%s', falling back to 11155111\n", chainStr)
		chainID = 11155111
	}
	config.ChainID = chainID

	// Parse ledger confirmation timeout. Zero disables the timeout, which
	// leaves a stalled confirmation wait pending until the caller's context
	// is cancelled.
	confirmStr := getEnv("LEDGER_CONFIRM_TIMEOUT", "2m")
	confirmDur, err := time.ParseDuration(confirmStr)
	if err != nil {
		log.Printf("Warning: invalid LEDGER_CONFIRM_TIMEOUT value '%s', falling back to 2m\n", confirmStr)
		confirmDur = 2 * time.Minute
	}
	config.LedgerConfirmTimeout = confirmDur

	// Parse bulk-read concurrency. The default of 1 preserves strictly
	// ordered, abort-on-first-failure reads; values above 1 opt in to
	// bounded-concurrency batched reads.
	concStr := getEnv("LEDGER_READ_CONCURRENCY", "1")
	conc, err := strconv.Atoi(concStr)
	if err != nil || conc < 1 {
		log.Printf("Warning: invalid LEDGER_READ_CONCURRENCY value '%s', falling back to 1\n", concStr)
		conc = 1
	}
	config.LedgerReadConcurrency = conc

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
