package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/vintora/storefront-api/internal/domain/coupon"
	"github.com/vintora/storefront-api/internal/domain/order"
)

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string   `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string   `usage:"PostgreSQL connection URL (STOREFRONT_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	APIKeyPepper string   `usage:"HMAC pepper for API key hashing (STOREFRONT_API_KEY_PEPPER)" flag:"api-key-pepper"`
	DemoCoupons  []string `default:"SAVE24=fixed:24,OFF10=percent:10" usage:"Demo checkout coupon table, CODE=type:amount entries" flag:"demo-coupons"`
	Totals       TotalsConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// TotalsConfig controls the order totals policy.
type TotalsConfig struct {
	FlatTax  string `default:"61.99" usage:"Flat tax applied to any non-empty order" flag:"flat-tax"`
	Shipping string `default:"0"     usage:"Flat shipping charge" flag:"shipping"`
	Currency string `default:"USD"   usage:"Currency code stamped on order totals"`
}

// RateLimitConfig controls the per-client fixed window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STOREFRONT",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set STOREFRONT_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's STOREFRONT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}

// demoTable builds the demo coupon table from configuration.
func (c *Config) demoTable() (coupon.Table, error) {
	if len(c.DemoCoupons) == 0 {
		return coupon.DefaultTable(), nil
	}
	table, err := coupon.ParseTable(c.DemoCoupons)
	if err != nil {
		return nil, errors.Wrap(err, "parse demo coupons")
	}
	return table, nil
}

// totalsPolicy builds the order totals policy from configuration.
func (c *Config) totalsPolicy() (order.TotalsPolicy, error) {
	tax, err := decimal.NewFromString(c.Totals.FlatTax)
	if err != nil {
		return order.TotalsPolicy{}, errors.Wrap(err, "parse flat tax")
	}
	shipping, err := decimal.NewFromString(c.Totals.Shipping)
	if err != nil {
		return order.TotalsPolicy{}, errors.Wrap(err, "parse shipping")
	}
	return order.TotalsPolicy{
		FlatTax:  tax,
		Shipping: shipping,
		Currency: c.Totals.Currency,
	}, nil
}
