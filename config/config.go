package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const DefaultConfigPath = "./svcadmin_config.json"

// Config holds the settings read from the config file, overlaid with the
// environment. Env is never written back to the file.
type Config struct {
	ListenAddr           string        `mapstructure:"listenAddr" json:"listenAddr"`
	DatabaseDriver       string        `mapstructure:"databaseDriver" json:"databaseDriver"`
	DatabaseDSN          string        `mapstructure:"databaseDsn" json:"-"`
	ShutdownTimeout      time.Duration `mapstructure:"shutdownTimeout" json:"shutdownTimeout"`
	CurrencySymbol       string        `mapstructure:"currencySymbol" json:"currencySymbol"`
	CouponExpiryDays     int           `mapstructure:"couponExpiryDays" json:"couponExpiryDays"`
	CouponIncentiveCents int64         `mapstructure:"couponIncentiveCents" json:"couponIncentiveCents"`
	MilestonesFile       string        `mapstructure:"milestonesFile" json:"milestonesFile"`
	StatementDir         string        `mapstructure:"statementDir" json:"statementDir"`

	Env Env `mapstructure:"-" json:"-"`
}

var (
	cfg        = Defaults()
	fileCfg    = Defaults()
	mu         sync.RWMutex
	v          *viper.Viper
	configPath = DefaultConfigPath
)

func Defaults() Config {
	return Config{
		ListenAddr:           ":8080",
		DatabaseDriver:       "sqlite3",
		DatabaseDSN:          "./svcadmin.db?_journal_mode=WAL&_busy_timeout=5000",
		ShutdownTimeout:      15 * time.Second,
		CurrencySymbol:       "$",
		CouponExpiryDays:     90,
		CouponIncentiveCents: 500,
		MilestonesFile:       "./milestones.yaml",
		StatementDir:         "./statements",
	}
}

func applyDefaults(c *Config) {
	d := Defaults()
	if c.ListenAddr == "" {
		c.ListenAddr = d.ListenAddr
	}
	if c.DatabaseDriver == "" {
		c.DatabaseDriver = d.DatabaseDriver
	}
	if c.DatabaseDSN == "" {
		c.DatabaseDSN = d.DatabaseDSN
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.CurrencySymbol == "" {
		c.CurrencySymbol = d.CurrencySymbol
	}
	if c.MilestonesFile == "" {
		c.MilestonesFile = d.MilestonesFile
	}
	if c.StatementDir == "" {
		c.StatementDir = d.StatementDir
	}
}

// LoadConfig reads path (DefaultConfigPath when empty), applies defaults and
// the SVCADMIN_* environment. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	mu.Lock()
	defer mu.Unlock()

	if path == "" {
		path = DefaultConfigPath
	}
	configPath = path

	env, err := ParseEnv()
	if err != nil {
		return Config{}, err
	}

	v = viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	// keys absent from the file keep their defaults; couponExpiryDays 0 means never
	loaded := Defaults()
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := v.Unmarshal(&loaded, viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc())); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyDefaults(&loaded)
	fileCfg = loaded
	env.apply(&loaded)
	cfg = loaded
	return cfg, nil
}

// SaveConfig persists the settings that may change at runtime (currency,
// coupon defaults, milestones file, statement dir) and makes them current.
// Listen address and database settings only change by editing the file.
func SaveConfig(newCfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	next := fileCfg
	next.CurrencySymbol = newCfg.CurrencySymbol
	next.CouponExpiryDays = newCfg.CouponExpiryDays
	next.CouponIncentiveCents = newCfg.CouponIncentiveCents
	next.MilestonesFile = newCfg.MilestonesFile
	next.StatementDir = newCfg.StatementDir
	applyDefaults(&next)

	file, err := json.MarshalIndent(fileView(next), "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, file, 0644); err != nil {
		return err
	}
	fileCfg = next
	cfg.Env.apply(&next)
	cfg = next
	return nil
}

func fileView(c Config) map[string]interface{} {
	return map[string]interface{}{
		"listenAddr":           c.ListenAddr,
		"databaseDriver":       c.DatabaseDriver,
		"databaseDsn":          c.DatabaseDSN,
		"shutdownTimeout":      c.ShutdownTimeout.String(),
		"currencySymbol":       c.CurrencySymbol,
		"couponExpiryDays":     c.CouponExpiryDays,
		"couponIncentiveCents": c.CouponIncentiveCents,
		"milestonesFile":       c.MilestonesFile,
		"statementDir":         c.StatementDir,
	}
}

func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Watch reloads the config whenever the file changes on disk and calls
// onChange with the new value.
func Watch(onChange func(Config)) {
	mu.RLock()
	watched, path := v, configPath
	mu.RUnlock()
	if watched == nil {
		return
	}
	if _, err := os.Stat(path); err != nil {
		zap.S().Infof("config file %s not present, not watching", path)
		return
	}

	watched.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		zap.L().Info("config file changed", zap.String("file", e.Name), zap.String("op", e.Op.String()))
		newCfg, err := LoadConfig(path)
		if err != nil {
			zap.S().Warnf("config reload failed, keeping previous settings: %v", err)
			return
		}
		if onChange != nil {
			onChange(newCfg)
		}
	})
	watched.WatchConfig()
}
