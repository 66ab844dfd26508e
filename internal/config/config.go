package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all PharmaPOS configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Email     EmailConfig     `mapstructure:"email"`
	SMS       SMSConfig       `mapstructure:"sms"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Inventory InventoryConfig `mapstructure:"inventory"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`

	// Demo reports whether the demo profile is active: no config file
	// was found and no SMTP host came from the environment. Under the
	// demo profile every external dispatch toggle is forced off and the
	// check interval is shortened.
	Demo bool `mapstructure:"-"`
}

// ServerConfig defines REST backend settings.
type ServerConfig struct {
	Listen       string `mapstructure:"listen"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// StorageConfig defines database settings.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// EmailConfig defines the SMTP alert channel.
type EmailConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	SMTPHost    string   `mapstructure:"smtp_host"`
	SMTPPort    int      `mapstructure:"smtp_port"`
	Address     string   `mapstructure:"address"`
	Password    string   `mapstructure:"password"`
	AdminEmails []string `mapstructure:"admin_emails"`
}

// SMSConfig defines the HTTP SMS gateway channel.
type SMSConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	APIKey      string   `mapstructure:"api_key"`
	APIURL      string   `mapstructure:"api_url"`
	UserCode    string   `mapstructure:"user_code"`
	Header      string   `mapstructure:"header"`
	AdminPhones []string `mapstructure:"admin_phones"`
}

// AlertsConfig defines threshold and scheduling parameters.
type AlertsConfig struct {
	CheckIntervalMinutes   int  `mapstructure:"check_interval_minutes"`
	LowStockThreshold      int  `mapstructure:"low_stock_threshold"`
	CriticalStockThreshold int  `mapstructure:"critical_stock_threshold"`
	AutoOrderEnabled       bool `mapstructure:"auto_order_enabled"`
	AutoOrderQuantity      int  `mapstructure:"auto_order_quantity"`
}

// InventoryConfig defines the API endpoint for the standalone watcher.
type InventoryConfig struct {
	APIURL         string `mapstructure:"api_url"`
	RequestTimeout string `mapstructure:"request_timeout"`
}

// AuthConfig defines the JWT auth server.
type AuthConfig struct {
	Listen        string `mapstructure:"listen"`
	SecretKey     string `mapstructure:"secret_key"`
	ExpireMinutes int    `mapstructure:"expire_minutes"`
	Issuer        string `mapstructure:"issuer"`

	AdminUsername string `mapstructure:"admin_username"`
	AdminPassword string `mapstructure:"admin_password"`
	StaffUsername string `mapstructure:"staff_username"`
	StaffPassword string `mapstructure:"staff_password"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables. A missing
// or malformed value degrades to its default; only an unreadable config
// file is an error. When neither a config file nor PHARMA_EMAIL_SMTP_HOST
// is present, the demo profile is applied.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".pharmapos"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	home, _ := os.UserHomeDir()
	v.SetDefault("server.listen", ":8000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("storage.path", filepath.Join(home, ".pharmapos", "pharmapos.db"))
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.smtp_host", "smtp.gmail.com")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.address", "demo@eczane.com")
	v.SetDefault("email.password", "")
	v.SetDefault("email.admin_emails", []string{"yonetici@eczane.com", "depo@eczane.com"})
	v.SetDefault("sms.enabled", false)
	v.SetDefault("sms.api_key", "")
	v.SetDefault("sms.api_url", "https://api.netgsm.com.tr/sms/send/get")
	v.SetDefault("sms.user_code", "demo_usercode")
	v.SetDefault("sms.header", "ECZANE_OTO")
	v.SetDefault("sms.admin_phones", []string{"+905551112233", "+905554445566"})
	v.SetDefault("alerts.check_interval_minutes", 60)
	v.SetDefault("alerts.low_stock_threshold", 10)
	v.SetDefault("alerts.critical_stock_threshold", 5)
	v.SetDefault("alerts.auto_order_enabled", false)
	v.SetDefault("alerts.auto_order_quantity", 50)
	v.SetDefault("inventory.api_url", "http://localhost:8000")
	v.SetDefault("inventory.request_timeout", "10s")
	v.SetDefault("auth.listen", ":8001")
	v.SetDefault("auth.secret_key", "")
	v.SetDefault("auth.expire_minutes", 60)
	v.SetDefault("auth.issuer", "eczane-auth-server")
	v.SetDefault("auth.admin_username", "yonetici")
	v.SetDefault("auth.admin_password", "admin123")
	v.SetDefault("auth.staff_username", "personel")
	v.SetDefault("auth.staff_password", "123")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetEnvPrefix("PHARMA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fileFound = false
		} else if os.IsNotExist(err) {
			fileFound = false
		} else {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if !fileFound && os.Getenv("PHARMA_EMAIL_SMTP_HOST") == "" {
		applyDemoProfile(&cfg)
	}

	return &cfg, nil
}

// applyDemoProfile forces every external dispatch channel off and
// shortens the check interval. No network call leaves the process while
// the demo profile is active.
func applyDemoProfile(cfg *Config) {
	cfg.Demo = true
	cfg.Email.Enabled = false
	cfg.Email.Address = "demo@eczane.com"
	cfg.SMS.Enabled = false
	cfg.Alerts.AutoOrderEnabled = false
	cfg.Alerts.CheckIntervalMinutes = 5
}
