package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Host      HostConfig      `mapstructure:"host"`
	Menu      MenuConfig      `mapstructure:"menu"`
	Recent    RecentConfig    `mapstructure:"recent"`
	Transport TransportConfig `mapstructure:"transport"`
	Log       LogConfig       `mapstructure:"log"`
}

// HostConfig describes the host the menu is built for.
type HostConfig struct {
	NativeShell bool     `mapstructure:"native_shell"`
	ShellPath   string   `mapstructure:"shell_path"`
	ShellArgs   []string `mapstructure:"shell_args"`
	Platform    string   `mapstructure:"platform"`
	Developer   bool     `mapstructure:"developer"`
}

// MenuConfig points at optional template and gallery catalog files.
type MenuConfig struct {
	TemplatePath string `mapstructure:"template_path"`
	CatalogPath  string `mapstructure:"catalog_path"`
	WatchCatalog bool   `mapstructure:"watch_catalog"`
	Series       string `mapstructure:"series"`
}

// RecentConfig holds recent-files store settings.
type RecentConfig struct {
	DatabasePath string `mapstructure:"database_path"`
	Keep         int    `mapstructure:"keep"`
}

// TransportConfig tunes the action transport.
type TransportConfig struct {
	QueueSize int `mapstructure:"queue_size"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
}

// Path returns the config file location. MENUTREE_CONFIG overrides it.
func Path() string {
	if p := os.Getenv("MENUTREE_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "menutree", "config.toml")
}

// New returns a viper instance with defaults, config file and env wired.
// Callers may bind flags over it before Unmarshal.
func New() *viper.Viper {
	v := viper.New()

	// default values
	v.SetDefault("host.native_shell", false)
	v.SetDefault("host.shell_path", "")
	v.SetDefault("host.shell_args", []string{})
	v.SetDefault("host.platform", runtime.GOOS)
	v.SetDefault("host.developer", false)
	v.SetDefault("menu.template_path", "")
	v.SetDefault("menu.catalog_path", "")
	v.SetDefault("menu.watch_catalog", true)
	v.SetDefault("menu.series", "")
	v.SetDefault("recent.database_path", filepath.Join(os.Getenv("HOME"), ".local", "share", "menutree", "recent.db"))
	v.SetDefault("recent.keep", 50)
	v.SetDefault("transport.queue_size", 64)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.file", filepath.Join(os.Getenv("HOME"), ".local", "state", "menutree", "menutree.log"))

	v.SetConfigType("toml")

	if cfgPath := os.Getenv("MENUTREE_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "menutree"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("MENUTREE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// Load reads configuration from file and env. Env var overrides use prefix MENUTREE_.
func Load() (Config, error) {
	return Read(New())
}

// Read reads the config file if present and unmarshals v.
func Read(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		// A missing file, including an explicit MENUTREE_CONFIG that does
		// not exist yet, leaves the defaults in place.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes cfg to Path, creating the config directory if needed.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("host.native_shell", cfg.Host.NativeShell)
	v.Set("host.shell_path", cfg.Host.ShellPath)
	v.Set("host.shell_args", cfg.Host.ShellArgs)
	v.Set("host.platform", cfg.Host.Platform)
	v.Set("host.developer", cfg.Host.Developer)
	v.Set("menu.template_path", cfg.Menu.TemplatePath)
	v.Set("menu.catalog_path", cfg.Menu.CatalogPath)
	v.Set("menu.watch_catalog", cfg.Menu.WatchCatalog)
	v.Set("menu.series", cfg.Menu.Series)
	v.Set("recent.database_path", cfg.Recent.DatabasePath)
	v.Set("recent.keep", cfg.Recent.Keep)
	v.Set("transport.queue_size", cfg.Transport.QueueSize)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.development", cfg.Log.Development)
	v.Set("log.file", cfg.Log.File)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
