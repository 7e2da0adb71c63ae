package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr        = ":8085"
	defaultWalDir            = "./wal/transactions"
	defaultMarketAPIURL      = "https://api.skinmarket.example.com"
	defaultCurrency          = "USD"
	defaultCommissionPercent = 13
	defaultPageSize          = 20
	defaultSearchDebounce    = 300 * time.Millisecond
)

// Config holds the runtime configuration. The commission default is the
// named configuration value applied when an import file has no
// commissionPercent column.
type Config struct {
	ListenAddr               string
	WalDir                   string
	MarketAPIURL             string
	MarketAPIKey             string
	Currency                 string
	DefaultCommissionPercent float64
	DefaultPageSize          int
	SearchDebounce           time.Duration
	Setup                    bool
}

type configYaml struct {
	ListenAddr               string        `yaml:"listen_addr,omitempty"`
	WalDir                   string        `yaml:"wal_dir,omitempty"`
	MarketAPIURL             string        `yaml:"market_api_url,omitempty"`
	Currency                 string        `yaml:"currency,omitempty"`
	DefaultCommissionPercent *float64      `yaml:"default_commission_percent,omitempty"`
	DefaultPageSize          int           `yaml:"default_page_size,omitempty"`
	SearchDebounce           time.Duration `yaml:"search_debounce,omitempty"`
}

// Get loads the configuration from a YAML file when --config is given,
// otherwise from CLI flags. The market API key always comes from the
// SKINMARKET_API_KEY environment variable.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	listen := flag.String("listen", defaultListenAddr, "HTTP listen address")
	walDir := flag.String("wal-dir", defaultWalDir, "directory for the transaction WAL")
	marketURL := flag.String("market-api-url", defaultMarketAPIURL, "skin market API base URL")
	currency := flag.String("currency", defaultCurrency, "currency code for created transactions")
	commission := flag.Float64("commission", defaultCommissionPercent, "default sell commission percent for imports")
	pageSize := flag.Int("page-size", defaultPageSize, "default page size for collection views")
	debounce := flag.Duration("debounce", defaultSearchDebounce, "search recompute debounce interval")
	setup := flag.Bool("setup", false, "run the interactive transaction entry form")
	flag.Parse()

	cfg := Config{
		ListenAddr:               *listen,
		WalDir:                   *walDir,
		MarketAPIURL:             *marketURL,
		MarketAPIKey:             os.Getenv("SKINMARKET_API_KEY"),
		Currency:                 *currency,
		DefaultCommissionPercent: *commission,
		DefaultPageSize:          *pageSize,
		SearchDebounce:           *debounce,
		Setup:                    *setup,
	}

	if *configPath != "" {
		if err := cfg.applyYaml(*configPath); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyYaml(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var y configYaml
	if err := yaml.Unmarshal(data, &y); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if y.ListenAddr != "" {
		c.ListenAddr = y.ListenAddr
	}
	if y.WalDir != "" {
		c.WalDir = y.WalDir
	}
	if y.MarketAPIURL != "" {
		c.MarketAPIURL = y.MarketAPIURL
	}
	if y.Currency != "" {
		c.Currency = y.Currency
	}
	if y.DefaultCommissionPercent != nil {
		c.DefaultCommissionPercent = *y.DefaultCommissionPercent
	}
	if y.DefaultPageSize != 0 {
		c.DefaultPageSize = y.DefaultPageSize
	}
	if y.SearchDebounce != 0 {
		c.SearchDebounce = y.SearchDebounce
	}
	return nil
}

func (c *Config) validate() error {
	if c.DefaultCommissionPercent < 0 || c.DefaultCommissionPercent >= 100 {
		return fmt.Errorf("invalid commission percent %v, must be in [0, 100)", c.DefaultCommissionPercent)
	}
	if c.DefaultPageSize < 1 {
		return fmt.Errorf("invalid page size %d, must be >= 1", c.DefaultPageSize)
	}
	if c.SearchDebounce < 0 {
		return fmt.Errorf("invalid debounce interval %s", c.SearchDebounce)
	}
	return nil
}
