package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrDatabaseURLRequired is returned by Load when no target store is configured
var ErrDatabaseURLRequired = errors.New("DATABASE_URL is required")

// Config holds all migrator configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Lock        LockConfig
	Log         LogConfig
	Telemetry   TelemetryConfig
	Storage     StorageConfig
	Source      SourceConfig
	Diagnostics DiagnosticsConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// DatabaseConfig holds the target store connection settings
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	LogLevel        string
	SlowThreshold   time.Duration
}

// RedisConfig holds Redis connection settings. Redis is optional; without it
// the run lock is process-local.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// LockConfig holds run lock settings
type LockConfig struct {
	TTL    time.Duration
	Prefix string
}

// TelemetryConfig holds OpenTelemetry settings
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
}

// StorageConfig holds S3-compatible object storage settings used for
// s3:// workbook sources and report artifacts
type StorageConfig struct {
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	UsePathStyle bool
}

// SourceConfig describes the legacy workbooks and how their values are read
type SourceConfig struct {
	PurchasesWorkbook string
	SalesWorkbook     string

	SupplierSheet        string
	PurchaseSheet        string
	PurchaseLineSheet    string
	PurchaseExpenseSheet string
	CustomerSheet        string
	ProductSheet         string
	SaleSheet            string
	SaleLineSheet        string
	StockSheet           string

	Location         string
	PlaceholderEmail string // domain of synthesized customer emails
	PlaceholderPhone string
	FlagLimit        int
	MaxRowErrors     int

	DefaultCurrency  string
	DefaultBranch    string
	DefaultWarehouse string
}

// DiagnosticsConfig holds diagnostic report settings
type DiagnosticsConfig struct {
	ReportPath  string // local path or s3://bucket/key
	SummaryPath string // run summary of import-workbooks; empty keeps it in the log only
}

// Load reads configuration from config.toml and environment variables.
// Priority (highest to lowest):
// 1. DATABASE_URL for the store, environment variables with ERP_ prefix
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("ERP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database.url", "DATABASE_URL", "ERP_DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("bind DATABASE_URL: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("database.url"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			LogLevel:        v.GetString("database.log_level"),
			SlowThreshold:   v.GetDuration("database.slow_threshold"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Lock: LockConfig{
			TTL:    v.GetDuration("lock.ttl"),
			Prefix: v.GetString("lock.prefix"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
		Storage: StorageConfig{
			Endpoint:     v.GetString("storage.endpoint"),
			Region:       v.GetString("storage.region"),
			AccessKey:    v.GetString("storage.access_key"),
			SecretKey:    v.GetString("storage.secret_key"),
			UseSSL:       v.GetBool("storage.use_ssl"),
			UsePathStyle: v.GetBool("storage.use_path_style"),
		},
		Source: SourceConfig{
			PurchasesWorkbook:    v.GetString("source.purchases_workbook"),
			SalesWorkbook:        v.GetString("source.sales_workbook"),
			SupplierSheet:        v.GetString("source.supplier_sheet"),
			PurchaseSheet:        v.GetString("source.purchase_sheet"),
			PurchaseLineSheet:    v.GetString("source.purchase_line_sheet"),
			PurchaseExpenseSheet: v.GetString("source.purchase_expense_sheet"),
			CustomerSheet:        v.GetString("source.customer_sheet"),
			ProductSheet:         v.GetString("source.product_sheet"),
			SaleSheet:            v.GetString("source.sale_sheet"),
			SaleLineSheet:        v.GetString("source.sale_line_sheet"),
			StockSheet:           v.GetString("source.stock_sheet"),
			Location:             v.GetString("source.location"),
			PlaceholderEmail:     v.GetString("source.placeholder_email"),
			PlaceholderPhone:     v.GetString("source.placeholder_phone"),
			FlagLimit:            v.GetInt("source.flag_limit"),
			MaxRowErrors:         v.GetInt("source.max_row_errors"),
			DefaultCurrency:      v.GetString("source.default_currency"),
			DefaultBranch:        v.GetString("source.default_branch"),
			DefaultWarehouse:     v.GetString("source.default_warehouse"),
		},
		Diagnostics: DiagnosticsConfig{
			ReportPath:  v.GetString("diagnostics.report_path"),
			SummaryPath: v.GetString("diagnostics.summary_path"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "erp-migrator"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 10
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}
	if cfg.Database.SlowThreshold == 0 {
		cfg.Database.SlowThreshold = 200 * time.Millisecond
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Lock.TTL == 0 {
		cfg.Lock.TTL = 2 * time.Hour
	}
	if cfg.Lock.Prefix == "" {
		cfg.Lock.Prefix = "migrator:lock:"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}

	s := &cfg.Source
	if s.PurchasesWorkbook == "" {
		s.PurchasesWorkbook = "data/compras.xlsx"
	}
	if s.SalesWorkbook == "" {
		s.SalesWorkbook = "data/ventas.xlsx"
	}
	setDefault(&s.SupplierSheet, "Proveedores")
	setDefault(&s.PurchaseSheet, "Compras y Saldos")
	setDefault(&s.PurchaseLineSheet, "Detalle Productos Compra")
	setDefault(&s.PurchaseExpenseSheet, "Detalle Gastos Compra")
	setDefault(&s.CustomerSheet, "Clientes")
	setDefault(&s.ProductSheet, "Productos")
	setDefault(&s.SaleSheet, "Ventas y Saldos")
	setDefault(&s.SaleLineSheet, "Detalle Ventas")
	setDefault(&s.StockSheet, "Stock")
	setDefault(&s.Location, "America/Asuncion")
	setDefault(&s.PlaceholderEmail, "sin-correo.local")
	setDefault(&s.PlaceholderPhone, "0000000")
	setDefault(&s.DefaultCurrency, "PYG")
	setDefault(&s.DefaultBranch, "CENTRAL")
	setDefault(&s.DefaultWarehouse, "DEP-01")
	if s.FlagLimit == 0 {
		s.FlagLimit = 20
	}
	if s.MaxRowErrors == 0 {
		s.MaxRowErrors = 100
	}

	if cfg.Diagnostics.ReportPath == "" {
		cfg.Diagnostics.ReportPath = "diagnostics-report.json"
	}
}

func setDefault(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return ErrDatabaseURLRequired
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Source.FlagLimit < 0 {
		return fmt.Errorf("source.flag_limit cannot be negative")
	}
	if _, err := time.LoadLocation(c.Source.Location); err != nil {
		return fmt.Errorf("source.location %q: %w", c.Source.Location, err)
	}
	return nil
}

// IsSQLite reports whether the URL points at a SQLite database
func (d *DatabaseConfig) IsSQLite() bool {
	return strings.HasPrefix(d.URL, "sqlite:") || strings.HasPrefix(d.URL, "file:")
}

// DSN returns the driver connection string for the configured URL
func (d *DatabaseConfig) DSN() string {
	if strings.HasPrefix(d.URL, "sqlite:") {
		return strings.TrimPrefix(strings.TrimPrefix(d.URL, "sqlite:"), "//")
	}
	return d.URL
}

// ConnMaxLifetimeDuration returns the pool connection lifetime
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Minute
}

// ConnMaxIdleTimeDuration returns the pool idle timeout
func (d *DatabaseConfig) ConnMaxIdleTimeDuration() time.Duration {
	return time.Duration(d.ConnMaxIdleTime) * time.Minute
}
