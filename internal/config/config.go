// internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Forecast ForecastConfig
	App      AppConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns        int
	MaxIdleConns        int
	ConnMaxLifetimeMins int
	MaxConcurrentTxs    int
}

type CacheConfig struct {
	Enabled        bool
	RedisURL       string
	RedisHost      string
	RedisPort      string
	RedisPassword  string
	RedisDB        int
	RiskTTLSeconds int
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// ForecastConfig carries the tunables of the forecasting engine. The weights
// are a design knob and need not sum to 1.
type ForecastConfig struct {
	Periods         int
	Mode            string
	SeasonalFreq    string
	TrendWeight     float64
	SeasonalWeight  float64
	NoiseWeight     float64
	NoiseScale      float64
	Window          int
	Seed            int64
	AggFrequency    string
	StrictInventory bool
}

type AppConfig struct {
	SalesFile  string
	StockFile  string
	InputDir   string
	OutputDir  string
	ReportsDir string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "demandcast")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
		viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
		viper.SetDefault("DB_CONN_MAX_LIFETIME_MINS", 5)
		viper.SetDefault("DB_MAX_CONCURRENT_TXS", 10)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_RISK_TTL_SECONDS", 60)
		viper.SetDefault("STORAGE_ENABLED", false)
		viper.SetDefault("STORAGE_ENDPOINT", "")
		viper.SetDefault("STORAGE_BUCKET", "demandcast-reports")
		viper.SetDefault("STORAGE_REGION", "us-east-1")
		viper.SetDefault("STORAGE_USE_SSL", true)
		viper.SetDefault("FORECAST_PERIODS", 14)
		viper.SetDefault("FORECAST_MODE", "combined")
		viper.SetDefault("FORECAST_SEASONAL_FREQ", "week")
		viper.SetDefault("FORECAST_TREND_WEIGHT", 0.4)
		viper.SetDefault("FORECAST_SEASONAL_WEIGHT", 0.4)
		viper.SetDefault("FORECAST_NOISE_WEIGHT", 0.2)
		viper.SetDefault("FORECAST_NOISE_SCALE", 0.2)
		viper.SetDefault("FORECAST_MA_WINDOW", 3)
		viper.SetDefault("FORECAST_SEED", 0)
		viper.SetDefault("FORECAST_AGG_FREQUENCY", "D")
		viper.SetDefault("FORECAST_STRICT_INVENTORY", false)
		viper.SetDefault("APP_SALES_FILE", "./input/sales.csv")
		viper.SetDefault("APP_STOCK_FILE", "./input/stock.csv")
		viper.SetDefault("APP_INPUT_DIR", "./input")
		viper.SetDefault("APP_OUTPUT_DIR", "./output")
		viper.SetDefault("APP_REPORTS_DIR", "./output/reports")

		// Read from environment variables
		viper.AutomaticEnv()

		// Ensure input and output directories exist
		ensureDir(viper.GetString("APP_INPUT_DIR"))
		ensureDir(viper.GetString("APP_OUTPUT_DIR"))
		ensureDir(viper.GetString("APP_REPORTS_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:                viper.GetString("DB_HOST"),
				Port:                viper.GetString("DB_PORT"),
				User:                viper.GetString("DB_USER"),
				Password:            viper.GetString("DB_PASSWORD"),
				DBName:              viper.GetString("DB_NAME"),
				SSLMode:             viper.GetString("DB_SSLMODE"),
				MaxOpenConns:        viper.GetInt("DB_MAX_OPEN_CONNS"),
				MaxIdleConns:        viper.GetInt("DB_MAX_IDLE_CONNS"),
				ConnMaxLifetimeMins: viper.GetInt("DB_CONN_MAX_LIFETIME_MINS"),
				MaxConcurrentTxs:    viper.GetInt("DB_MAX_CONCURRENT_TXS"),
			},
			Cache: CacheConfig{
				Enabled:        viper.GetBool("CACHE_ENABLED"),
				RedisURL:       viper.GetString("REDIS_URL"),
				RedisHost:      viper.GetString("REDIS_HOST"),
				RedisPort:      viper.GetString("REDIS_PORT"),
				RedisPassword:  viper.GetString("REDIS_PASSWORD"),
				RedisDB:        viper.GetInt("REDIS_DB"),
				RiskTTLSeconds: viper.GetInt("CACHE_RISK_TTL_SECONDS"),
			},
			Storage: StorageConfig{
				Enabled:   viper.GetBool("STORAGE_ENABLED"),
				Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("STORAGE_BUCKET"),
				Region:    viper.GetString("STORAGE_REGION"),
				UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			},
			Forecast: ForecastConfig{
				Periods:         viper.GetInt("FORECAST_PERIODS"),
				Mode:            viper.GetString("FORECAST_MODE"),
				SeasonalFreq:    viper.GetString("FORECAST_SEASONAL_FREQ"),
				TrendWeight:     viper.GetFloat64("FORECAST_TREND_WEIGHT"),
				SeasonalWeight:  viper.GetFloat64("FORECAST_SEASONAL_WEIGHT"),
				NoiseWeight:     viper.GetFloat64("FORECAST_NOISE_WEIGHT"),
				NoiseScale:      viper.GetFloat64("FORECAST_NOISE_SCALE"),
				Window:          viper.GetInt("FORECAST_MA_WINDOW"),
				Seed:            viper.GetInt64("FORECAST_SEED"),
				AggFrequency:    viper.GetString("FORECAST_AGG_FREQUENCY"),
				StrictInventory: viper.GetBool("FORECAST_STRICT_INVENTORY"),
			},
			App: AppConfig{
				SalesFile:  viper.GetString("APP_SALES_FILE"),
				StockFile:  viper.GetString("APP_STOCK_FILE"),
				InputDir:   viper.GetString("APP_INPUT_DIR"),
				OutputDir:  viper.GetString("APP_OUTPUT_DIR"),
				ReportsDir: viper.GetString("APP_REPORTS_DIR"),
			},
		}
	})

	return instance
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
