package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress          string
	DatabaseURI         string
	ProviderAddress     string
	ProviderSecret      string
	ProviderTimeout     time.Duration
	TokenSecret         string
	PaymentPollInterval time.Duration
	PaymentGracePeriod  time.Duration
	WorkerPoolSize      int
	MaxPaymentsBatch    int
	DraftTTL            time.Duration
	OrphanPaymentTTL    time.Duration
	MaintenanceSpec     string
	RedisAddress        string
	RateLimitPerMinute  int
	ShutdownTimeout     time.Duration
}

const (
	defaultRunAddress          = ":8080"
	defaultTokenSecret         = "change-me-in-production"
	defaultProviderTimeout     = 10 * time.Second
	defaultPaymentPollInterval = 15 * time.Second
	defaultPaymentGracePeriod  = 2 * time.Minute
	defaultWorkerPoolSize      = 4
	defaultMaxPaymentsBatch    = 32
	defaultDraftTTL            = 72 * time.Hour
	defaultOrphanPaymentTTL    = 24 * time.Hour
	defaultMaintenanceSpec     = "@every 10m"
	defaultRateLimitPerMinute  = 60
	defaultShutdownTimeout     = 10 * time.Second
)

// Load parses configuration from flags and environment variables. A .env file
// in the working directory is merged into the environment first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:          getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:         getString(lookup, "DATABASE_URI", ""),
		ProviderAddress:     getString(lookup, "PROVIDER_ADDRESS", ""),
		ProviderSecret:      getString(lookup, "PROVIDER_SECRET", ""),
		ProviderTimeout:     getDuration(lookup, "PROVIDER_TIMEOUT", defaultProviderTimeout),
		TokenSecret:         getString(lookup, "TOKEN_SECRET", defaultTokenSecret),
		PaymentPollInterval: getDuration(lookup, "PAYMENT_POLL_INTERVAL", defaultPaymentPollInterval),
		PaymentGracePeriod:  getDuration(lookup, "PAYMENT_GRACE_PERIOD", defaultPaymentGracePeriod),
		WorkerPoolSize:      getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		MaxPaymentsBatch:    getInt(lookup, "POLL_BATCH_SIZE", defaultMaxPaymentsBatch),
		DraftTTL:            getDuration(lookup, "DRAFT_TTL", defaultDraftTTL),
		OrphanPaymentTTL:    getDuration(lookup, "ORPHAN_PAYMENT_TTL", defaultOrphanPaymentTTL),
		MaintenanceSpec:     getString(lookup, "MAINTENANCE_SCHEDULE", defaultMaintenanceSpec),
		RedisAddress:        getString(lookup, "REDIS_ADDRESS", ""),
		RateLimitPerMinute:  getInt(lookup, "RATE_LIMIT_PER_MINUTE", defaultRateLimitPerMinute),
		ShutdownTimeout:     getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("workstream", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		providerTimeoutStr = cfg.ProviderTimeout.String()
		pollIntervalStr    = cfg.PaymentPollInterval.String()
		gracePeriodStr     = cfg.PaymentGracePeriod.String()
		draftTTLStr        = cfg.DraftTTL.String()
		orphanTTLStr       = cfg.OrphanPaymentTTL.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.ProviderAddress, "p", cfg.ProviderAddress, "Payment provider base URL")
	fs.StringVar(&cfg.ProviderSecret, "provider-secret", cfg.ProviderSecret, "Payment provider secret key")
	fs.StringVar(&cfg.TokenSecret, "token-secret", cfg.TokenSecret, "Secret for signing auth tokens")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent reconciliation workers")
	fs.IntVar(&cfg.MaxPaymentsBatch, "poll-batch", cfg.MaxPaymentsBatch, "Maximum payments per polling batch")
	fs.StringVar(&cfg.MaintenanceSpec, "maintenance-cron", cfg.MaintenanceSpec, "Cron schedule for maintenance sweeps")
	fs.StringVar(&cfg.RedisAddress, "redis", cfg.RedisAddress, "Redis address for rate limiting (empty disables)")
	fs.IntVar(&cfg.RateLimitPerMinute, "rate-limit", cfg.RateLimitPerMinute, "Requests per minute per client on guarded routes")
	fs.StringVar(&providerTimeoutStr, "provider-timeout", providerTimeoutStr, "Timeout for provider HTTP calls")
	fs.StringVar(&pollIntervalStr, "poll-interval", pollIntervalStr, "Interval between reconciliation polls")
	fs.StringVar(&gracePeriodStr, "payment-grace", gracePeriodStr, "Age before a pending payment is re-verified")
	fs.StringVar(&draftTTLStr, "draft-ttl", draftTTLStr, "Age before an untouched draft application is expired")
	fs.StringVar(&orphanTTLStr, "orphan-ttl", orphanTTLStr, "Age before an orphaned pending payment is purged")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.ProviderTimeout, err = time.ParseDuration(providerTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid provider timeout: %w", err)
	}

	if cfg.PaymentPollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid poll interval: %w", err)
	}

	if cfg.PaymentGracePeriod, err = time.ParseDuration(gracePeriodStr); err != nil {
		return nil, fmt.Errorf("invalid payment grace period: %w", err)
	}

	if cfg.DraftTTL, err = time.ParseDuration(draftTTLStr); err != nil {
		return nil, fmt.Errorf("invalid draft ttl: %w", err)
	}

	if cfg.OrphanPaymentTTL, err = time.ParseDuration(orphanTTLStr); err != nil {
		return nil, fmt.Errorf("invalid orphan payment ttl: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if secretFile, ok := lookup("TOKEN_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read token secret file: %w", err)
		}
		cfg.TokenSecret = string(content)
	}

	if secretFile, ok := lookup("PROVIDER_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read provider secret file: %w", err)
		}
		cfg.ProviderSecret = string(content)
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.MaxPaymentsBatch <= 0 {
		cfg.MaxPaymentsBatch = defaultMaxPaymentsBatch
	}

	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = defaultProviderTimeout
	}

	if cfg.PaymentPollInterval <= 0 {
		cfg.PaymentPollInterval = defaultPaymentPollInterval
	}

	if cfg.PaymentGracePeriod <= 0 {
		cfg.PaymentGracePeriod = defaultPaymentGracePeriod
	}

	if cfg.DraftTTL <= 0 {
		cfg.DraftTTL = defaultDraftTTL
	}

	if cfg.OrphanPaymentTTL <= 0 {
		cfg.OrphanPaymentTTL = defaultOrphanPaymentTTL
	}

	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = defaultRateLimitPerMinute
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.MaintenanceSpec == "" {
		cfg.MaintenanceSpec = defaultMaintenanceSpec
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.ProviderAddress == "" {
		return nil, fmt.Errorf("payment provider address must be provided")
	}

	if cfg.ProviderSecret == "" {
		return nil, fmt.Errorf("payment provider secret must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
