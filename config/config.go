package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	coremetrics "github.com/PercyRoc/CangFenBao-sub014/core/metrics"
	"github.com/PercyRoc/CangFenBao-sub014/core/sorting"
	"github.com/PercyRoc/CangFenBao-sub014/infra/device"
	"github.com/PercyRoc/CangFenBao-sub014/infra/mqtt"
)

// Config is the immutable settings snapshot for one operating session.
// Reloading means building a new Config and a new engine from it.
type Config struct {
	Sorting sorting.Config     `json:"sorting"`
	Devices device.Config      `json:"devices"`
	MQTT    mqtt.Config        `json:"mqtt"`
	Metrics coremetrics.Config `json:"metrics"`
}

// Load reads the configuration file, applies SORTER_ environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("SORTER_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "sorter_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Sorting.SetDefaults()
	cfg.Devices.SetDefaults()
	cfg.MQTT.SetDefaults()
	cfg.Metrics.SetDefaults()
	if err := cfg.Sorting.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
