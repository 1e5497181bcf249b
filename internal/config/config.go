package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	DataDir     string `mapstructure:"data_dir" yaml:"data_dir"`
	CacheTTLSec int    `mapstructure:"cache_ttl_sec" yaml:"cache_ttl_sec"`

	// Dashboard sizes
	TopN         int `mapstructure:"top_n" yaml:"top_n"`
	TopCorridors int `mapstructure:"top_corridors" yaml:"top_corridors"`
	ClusterK     int `mapstructure:"cluster_k" yaml:"cluster_k"`

	// Default filters
	OriginRegions  []string `mapstructure:"origin_regions" yaml:"origin_regions"`
	DestRegions    []string `mapstructure:"dest_regions" yaml:"dest_regions"`
	YearMin        int      `mapstructure:"year_min" yaml:"year_min"`
	YearMax        int      `mapstructure:"year_max" yaml:"year_max"`
	MinResearchers int64    `mapstructure:"min_researchers" yaml:"min_researchers"`

	// WDI averaging window
	WDIYearMin int `mapstructure:"wdi_year_min" yaml:"wdi_year_min"`
	WDIYearMax int `mapstructure:"wdi_year_max" yaml:"wdi_year_max"`

	ServeAddr string `mapstructure:"serve_addr" yaml:"serve_addr"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Keys lists every settable key in display order.
var Keys = []string{
	"data_dir", "cache_ttl_sec", "top_n", "top_corridors", "cluster_k",
	"origin_regions", "dest_regions", "year_min", "year_max", "min_researchers",
	"wdi_year_min", "wdi_year_max", "serve_addr", "log_level", "log_format",
}

func defaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".talentflow", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.talentflow/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := defaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("data_dir", "./outputs/processed")
	v.SetDefault("cache_ttl_sec", 3600)
	v.SetDefault("top_n", 15)
	v.SetDefault("top_corridors", 20)
	v.SetDefault("cluster_k", 4)
	v.SetDefault("origin_regions", []string{})
	v.SetDefault("dest_regions", []string{})
	v.SetDefault("year_min", 1990)
	v.SetDefault("year_max", 2016)
	v.SetDefault("min_researchers", 5)
	v.SetDefault("wdi_year_min", 2014)
	v.SetDefault("wdi_year_max", 2016)
	v.SetDefault("serve_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	return v
}

// Defaults returns the built-in configuration, ignoring files and env.
func Defaults() *Global {
	var c Global
	_ = newViper().Unmarshal(&c)
	return &c
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := newViper()
	v.SetEnvPrefix("TALENTFLOW")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		p, err := defaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(p))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	if err := v.ReadInConfig(); err != nil && !missingConfig(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func missingConfig(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, fs.ErrNotExist)
}

// Validate checks ranges that would otherwise surface deep inside a command.
func (c *Global) Validate() error {
	if c.CacheTTLSec < 0 {
		return fmt.Errorf("cache_ttl_sec must be >= 0, got %d", c.CacheTTLSec)
	}
	if c.TopN < 0 || c.TopCorridors < 0 {
		return fmt.Errorf("top_n and top_corridors must be >= 0")
	}
	if c.ClusterK < 2 || c.ClusterK > 7 {
		return fmt.Errorf("cluster_k must be between 2 and 7, got %d", c.ClusterK)
	}
	if c.YearMin > c.YearMax {
		return fmt.Errorf("year_min (%d) is after year_max (%d)", c.YearMin, c.YearMax)
	}
	if c.WDIYearMin > c.WDIYearMax {
		return fmt.Errorf("wdi_year_min (%d) is after wdi_year_max (%d)", c.WDIYearMin, c.WDIYearMax)
	}
	if c.MinResearchers < 0 {
		return fmt.Errorf("min_researchers must be >= 0, got %d", c.MinResearchers)
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", c.LogLevel)
	}
	if !slices.Contains([]string{"text", "json"}, strings.ToLower(c.LogFormat)) {
		return fmt.Errorf("invalid log_format: %s (use text or json)", c.LogFormat)
	}
	return nil
}

// Set parses val for key and assigns it, validating the result. Region lists
// are comma separated.
func (c *Global) Set(key, val string) error {
	next := *c
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "data_dir":
		next.DataDir = val
	case "serve_addr":
		next.ServeAddr = val
	case "log_level":
		next.LogLevel = strings.ToLower(val)
	case "log_format":
		next.LogFormat = strings.ToLower(val)
	case "origin_regions":
		next.OriginRegions = splitList(val)
	case "dest_regions":
		next.DestRegions = splitList(val)
	case "cache_ttl_sec":
		next.CacheTTLSec, err = atoi()
	case "top_n":
		next.TopN, err = atoi()
	case "top_corridors":
		next.TopCorridors, err = atoi()
	case "cluster_k":
		next.ClusterK, err = atoi()
	case "year_min":
		next.YearMin, err = atoi()
	case "year_max":
		next.YearMax, err = atoi()
	case "wdi_year_min":
		next.WDIYearMin, err = atoi()
	case "wdi_year_max":
		next.WDIYearMax, err = atoi()
	case "min_researchers":
		var i int
		i, err = atoi()
		next.MinResearchers = int64(i)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	if err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Get returns the display form of key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "data_dir":
		return c.DataDir, nil
	case "cache_ttl_sec":
		return strconv.Itoa(c.CacheTTLSec), nil
	case "top_n":
		return strconv.Itoa(c.TopN), nil
	case "top_corridors":
		return strconv.Itoa(c.TopCorridors), nil
	case "cluster_k":
		return strconv.Itoa(c.ClusterK), nil
	case "origin_regions":
		return strings.Join(c.OriginRegions, ","), nil
	case "dest_regions":
		return strings.Join(c.DestRegions, ","), nil
	case "year_min":
		return strconv.Itoa(c.YearMin), nil
	case "year_max":
		return strconv.Itoa(c.YearMax), nil
	case "min_researchers":
		return strconv.FormatInt(c.MinResearchers, 10), nil
	case "wdi_year_min":
		return strconv.Itoa(c.WDIYearMin), nil
	case "wdi_year_max":
		return strconv.Itoa(c.WDIYearMax), nil
	case "serve_addr":
		return c.ServeAddr, nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
