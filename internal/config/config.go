package config

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"siteauditor/internal/log"
)

const (
	LISTEN_ADDR             = "LISTEN_ADDR"
	METRICS_ADDR            = "METRICS_ADDR"
	IS_DEV                  = "IS_DEV"
	USER_AGENT              = "USER_AGENT"
	FETCH_TIMEOUT_SECONDS   = "FETCH_TIMEOUT_SECONDS"
	CRAWL_RPS               = "CRAWL_RPS"
	CACHE_TTL_MINUTES       = "CACHE_TTL_MINUTES"
	PAGESPEED_API_KEY       = "PAGESPEED_API_KEY"
	COMPANIES_HOUSE_API_KEY = "COMPANIES_HOUSE_API_KEY"
	WEBHOOK_URL             = "WEBHOOK_URL"
)

type Config struct {
	ListenAddr           string  `mapstructure:"LISTEN_ADDR"`
	MetricsAddr          string  `mapstructure:"METRICS_ADDR"`
	IsDev                string  `mapstructure:"IS_DEV"`
	UserAgent            string  `mapstructure:"USER_AGENT"`
	FetchTimeoutSeconds  int     `mapstructure:"FETCH_TIMEOUT_SECONDS"`
	CrawlRPS             float64 `mapstructure:"CRAWL_RPS"`
	CacheTTLMinutes      int     `mapstructure:"CACHE_TTL_MINUTES"`
	PageSpeedAPIKey      string  `mapstructure:"PAGESPEED_API_KEY"`
	CompaniesHouseAPIKey string  `mapstructure:"COMPANIES_HOUSE_API_KEY"`
	WebhookURL           string  `mapstructure:"WEBHOOK_URL"`
}

var AppConfig *Config

func LoadEnv() {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		log.Logger.Info(".env file not found, using environment only")
	}

	v.AutomaticEnv()

	v.SetDefault(LISTEN_ADDR, ":8080")
	v.SetDefault(METRICS_ADDR, ":8081")
	v.SetDefault(IS_DEV, "false")
	v.SetDefault(USER_AGENT, "siteauditor/1.0 (+https://siteauditor.dev/bot)")
	v.SetDefault(FETCH_TIMEOUT_SECONDS, 20)
	v.SetDefault(CRAWL_RPS, 4.0)
	v.SetDefault(CACHE_TTL_MINUTES, 60)
	v.SetDefault(PAGESPEED_API_KEY, "")
	v.SetDefault(COMPANIES_HOUSE_API_KEY, "")
	v.SetDefault(WEBHOOK_URL, "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Logger.Fatal("Failed to unmarshal config", zap.Error(err))
	}

	AppConfig = &cfg
}
