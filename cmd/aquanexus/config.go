package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/aquanexus/internal/logger"
)

const (
	defaultListenAddr             = "localhost:5000"
	defaultLoggingLevel           = logger.LevelInfo
	defaultEnvironment            = logger.EnvProd
	defaultAccessTokenTTL         = time.Hour
	defaultRefreshTokenTTL        = 7 * 24 * time.Hour
	defaultLoginAttemptsPerMinute = 10
	defaultDBConnectAttempts      = 3
	defaultDBConnectDelay         = 5 * time.Second
	defaultPurgeInterval          = time.Hour
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key
	// Used to sign access tokens, and refresh tokens if RefreshSecretKey not set
	SecretKey string

	// Secret key to sign refresh tokens
	RefreshSecretKey string

	// Token lifetimes
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Environment (dev, prod, test)
	Environment string

	// Redis address for login throttling. Throttling disabled if empty
	RedisAddr string

	// Login and register attempts allowed per email in one minute
	LoginAttemptsPerMinute int

	// How many times and how often to try connecting to database on start
	DBConnectAttempts int
	DBConnectDelay    time.Duration

	// How often expired refresh tokens are purged
	PurgeInterval time.Duration
}

func NewConfig() *Config {
	return &Config{
		LogLevel:               defaultLoggingLevel,
		ListenAddr:             defaultListenAddr,
		Environment:            defaultEnvironment,
		AccessTokenTTL:         defaultAccessTokenTTL,
		RefreshTokenTTL:        defaultRefreshTokenTTL,
		LoginAttemptsPerMinute: defaultLoginAttemptsPerMinute,
		DBConnectAttempts:      defaultDBConnectAttempts,
		DBConnectDelay:         defaultDBConnectDelay,
		PurgeInterval:          defaultPurgeInterval,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	var errs []error

	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}
	setInt := func(o *int) func(value string) {
		return func(value string) {
			if value == "" {
				return
			}
			v, err := strconv.Atoi(value)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid integer %q: %w", value, err))
				return
			}
			*o = v
		}
	}
	setDuration := func(o *time.Duration) func(value string) {
		return func(value string) {
			if value == "" {
				return
			}
			v, err := time.ParseDuration(value)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid duration %q: %w", value, err))
				return
			}
			*o = v
		}
	}

	// DB_STRING is an alias, DATABASE_URI wins if both set
	setString(&c.DatabaseDSN)(getenv("DB_STRING"))

	envMap := map[string]func(string){
		"RUN_ADDRESS":               setString(&c.ListenAddr),
		"DATABASE_URI":              setString(&c.DatabaseDSN),
		"SECRET_KEY":                setString(&c.SecretKey),
		"REFRESH_SECRET_KEY":        setString(&c.RefreshSecretKey),
		"ACCESS_TOKEN_TTL":          setDuration(&c.AccessTokenTTL),
		"REFRESH_TOKEN_TTL":         setDuration(&c.RefreshTokenTTL),
		"LOG_LEVEL":                 setString(&c.LogLevel),
		"ENVIRONMENT":               setString(&c.Environment),
		"REDIS_ADDR":                setString(&c.RedisAddr),
		"LOGIN_ATTEMPTS_PER_MINUTE": setInt(&c.LoginAttemptsPerMinute),
		"DB_CONNECT_ATTEMPTS":       setInt(&c.DBConnectAttempts),
		"DB_CONNECT_DELAY":          setDuration(&c.DBConnectDelay),
		"REFRESH_PURGE_INTERVAL":    setDuration(&c.PurgeInterval),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}

	return errors.Join(errs...)
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("aquanexus", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVar(&c.RefreshSecretKey, "refresh-secret-key", c.RefreshSecretKey, "Secret key for refresh tokens (secret key if empty)")
	fs.DurationVar(&c.AccessTokenTTL, "access-ttl", c.AccessTokenTTL, "Access token lifetime")
	fs.DurationVar(&c.RefreshTokenTTL, "refresh-ttl", c.RefreshTokenTTL, "Refresh token lifetime")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod, test)")
	fs.StringVarP(&c.RedisAddr, "redis", "r", c.RedisAddr, "Redis address for login throttling (disabled if empty)")
	fs.IntVar(&c.LoginAttemptsPerMinute, "login-attempts", c.LoginAttemptsPerMinute, "Login attempts per email in a minute")
	fs.IntVar(&c.DBConnectAttempts, "db-connect-attempts", c.DBConnectAttempts, "Database connection attempts on start")
	fs.DurationVar(&c.DBConnectDelay, "db-connect-delay", c.DBConnectDelay, "Delay between database connection attempts")
	fs.DurationVar(&c.PurgeInterval, "purge-interval", c.PurgeInterval, "How often expired refresh tokens are deleted")

	return fs.Parse(args)
}

// Check options that have no sane default
func (c *Config) Validate() error {
	switch {
	case c.DatabaseDSN == "":
		return errors.New("database connection string is required")
	case c.SecretKey == "":
		return errors.New("secret key is required")
	case c.PurgeInterval <= 0:
		return errors.New("purge interval must be positive")
	}
	return nil
}
