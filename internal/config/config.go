package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Auth     AuthConfig     `mapstructure:"auth"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	PDF      PDFConfig      `mapstructure:"pdf"`
	Tax      TaxConfig      `mapstructure:"tax"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Port    string `mapstructure:"port"`
	DataDir string `mapstructure:"data_dir"`
}

type DatabaseConfig struct {
	Driver     string `mapstructure:"driver"` // sqlite or postgres
	SQLitePath string `mapstructure:"sqlite_path"`
	Host       string `mapstructure:"host"`
	Port       string `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Name       string `mapstructure:"name"`
	SSLMode    string `mapstructure:"sslmode"`
}

// PostgresDSN builds the connection URL used by the postgres driver.
func (d DatabaseConfig) PostgresDSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

type AuthConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type HTTPConfig struct {
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type PDFConfig struct {
	OutputDir   string  `mapstructure:"output_dir"`
	CompanyICE  string  `mapstructure:"company_ice"`
	CompanyName string  `mapstructure:"company_name"`
	TopMarginMM float64 `mapstructure:"top_margin_mm"`
}

type TaxConfig struct {
	DefaultVATRate string `mapstructure:"default_vat_rate"`
}

const envPrefix = "FACTURE"

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "facture")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.data_dir", "data")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.sqlite_path", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "facture")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("http.cors_origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})

	v.SetDefault("pdf.output_dir", "")
	v.SetDefault("pdf.company_ice", "000000000000000")
	v.SetDefault("pdf.company_name", "")
	v.SetDefault("pdf.top_margin_mm", 40.0)

	v.SetDefault("tax.default_vat_rate", "0.20")
}

// Load reads configs/.env (if any), then config.yaml from the given directories,
// then FACTURE_* environment variables, in increasing order of precedence.
func Load(paths ...string) (*Config, error) {
	_ = godotenv.Load(filepath.Join("configs", ".env"))

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = filepath.Join(c.App.DataDir, "facture.db")
	}
	if c.PDF.OutputDir == "" {
		c.PDF.OutputDir = filepath.Join(c.App.DataDir, "pdfs")
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("auth.jwt_secret is required when auth is enabled in production")
		}
		c.Auth.JWTSecret = "default_super_secret_key"
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
