package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. SMARTBOARD_POSTGRES_URL.
const EnvPrefix = "SMARTBOARD"

type Config struct {
	Server struct {
		Port        string   `yaml:"port"`
		CORSOrigins []string `yaml:"corsOrigins"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Catalog struct {
		TTL string `yaml:"ttl"`
	} `yaml:"catalog"`
	Cache struct {
		Path string `yaml:"path"`
	} `yaml:"cache"`
	Admin struct {
		DefaultPin string `yaml:"defaultPin"`
	} `yaml:"admin"`
	Game struct {
		PersistTimeout string `yaml:"persistTimeout"`
	} `yaml:"game"`
}

// Load reads YAML config from path. A missing file yields an empty config so
// the service can run from environment variables alone.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnv loads path and applies SMARTBOARD_* overrides on top.
func LoadWithEnv(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv(NewViper())
	return cfg, nil
}

// NewViper returns a viper instance reading SMARTBOARD_* variables, with
// dots in keys mapped to underscores.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// ApplyEnv overrides fields whose environment variable is set.
func (c *Config) ApplyEnv(v *viper.Viper) {
	strs := map[string]*string{
		"server.port":         &c.Server.Port,
		"redis.addr":          &c.Redis.Addr,
		"redis.password":      &c.Redis.Password,
		"redis.ttl":           &c.Redis.TTL,
		"postgres.url":        &c.Postgres.URL,
		"catalog.ttl":         &c.Catalog.TTL,
		"cache.path":          &c.Cache.Path,
		"admin.defaultpin":    &c.Admin.DefaultPin,
		"game.persisttimeout": &c.Game.PersistTimeout,
	}
	for key, dst := range strs {
		_ = v.BindEnv(key)
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	_ = v.BindEnv("redis.db")
	if v.IsSet("redis.db") {
		c.Redis.DB = v.GetInt("redis.db")
	}
	_ = v.BindEnv("server.corsorigins")
	if v.IsSet("server.corsorigins") {
		c.Server.CORSOrigins = strings.Split(v.GetString("server.corsorigins"), ",")
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
