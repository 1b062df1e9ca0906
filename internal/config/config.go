package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/municipio-temperatura/internal/domain"
)

// Config holds all run settings. Values come from Defaults, then an optional
// YAML file, then environment variables.
type Config struct {
	Shapefile   string `yaml:"shapefile" validate:"required"`
	RasterGlob  string `yaml:"raster_glob" validate:"required"`
	OutputCSV   string `yaml:"output_csv" validate:"required"`
	StatsOutDir string `yaml:"stats_outdir" validate:"required"`
	ClipOutDir  string `yaml:"clip_outdir" validate:"required"`

	FieldCode  string `yaml:"field_code" validate:"required"`
	FieldName  string `yaml:"field_name" validate:"required"`
	FieldState string `yaml:"field_state" validate:"required"`

	// Plausibility window in degrees Celsius. Both zero disables the filter.
	MinTempC       float64 `yaml:"min_temp_c" validate:"ltefield=MaxTempC"`
	MaxTempC       float64 `yaml:"max_temp_c"`
	ScaleThreshold float64 `yaml:"scale_threshold" validate:"gt=0"`
	Strategy       string  `yaml:"strategy" validate:"oneof=center area"`

	LogLevel    string `yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat   string `yaml:"log_format" validate:"oneof=json text"`
	MetricsFile string `yaml:"metrics_file"`
}

// Defaults returns the settings used when nothing overrides them.
func Defaults() Config {
	return Config{
		Shapefile:      "municipios/BR_Municipios_2024.shp",
		RasterGlob:     "raster_brasil/wc2.1_30s_tavg_*",
		OutputCSV:      "temperatura_media_por_municipio.csv",
		StatsOutDir:    "stats_out",
		ClipOutDir:     "raster_brasil",
		FieldCode:      "CD_MUN",
		FieldName:      "NM_MUN",
		FieldState:     "SIGLA_UF",
		MinTempC:       domain.DefaultPlausibleRange.Min,
		MaxTempC:       domain.DefaultPlausibleRange.Max,
		ScaleThreshold: domain.DefaultScaleThreshold,
		Strategy:       "center",
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load builds the configuration. path names an optional YAML file; an empty
// path skips it. Every failure wraps domain.ErrConfig.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := readFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfig, err)
	}
	return &cfg, nil
}

// Plausible returns the configured plausibility window.
func (c *Config) Plausible() domain.PlausibleRange {
	return domain.PlausibleRange{Min: c.MinTempC, Max: c.MaxTempC}
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read config file: %w", domain.ErrConfig, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: parse config file %s: %w", domain.ErrConfig, path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Shapefile = sharedcfg.EnvOrDefault("SHAPEFILE", cfg.Shapefile)
	cfg.RasterGlob = sharedcfg.EnvOrDefault("RASTER_GLOB", cfg.RasterGlob)
	cfg.OutputCSV = sharedcfg.EnvOrDefault("OUTPUT_CSV", cfg.OutputCSV)
	cfg.StatsOutDir = sharedcfg.EnvOrDefault("STATS_OUTDIR", cfg.StatsOutDir)
	cfg.ClipOutDir = sharedcfg.EnvOrDefault("CLIP_OUTDIR", cfg.ClipOutDir)
	cfg.FieldCode = sharedcfg.EnvOrDefault("FIELD_CODE", cfg.FieldCode)
	cfg.FieldName = sharedcfg.EnvOrDefault("FIELD_NAME", cfg.FieldName)
	cfg.FieldState = sharedcfg.EnvOrDefault("FIELD_STATE", cfg.FieldState)
	cfg.Strategy = sharedcfg.EnvOrDefault("ZONAL_STRATEGY", cfg.Strategy)
	cfg.LogLevel = sharedcfg.EnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = sharedcfg.EnvOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.MetricsFile = sharedcfg.EnvOrDefault("METRICS_FILE", cfg.MetricsFile)

	var err error
	if cfg.MinTempC, err = envFloat("MIN_TEMP_C", cfg.MinTempC); err != nil {
		return err
	}
	if cfg.MaxTempC, err = envFloat("MAX_TEMP_C", cfg.MaxTempC); err != nil {
		return err
	}
	if cfg.ScaleThreshold, err = envFloat("SCALE_THRESHOLD", cfg.ScaleThreshold); err != nil {
		return err
	}
	return nil
}

func envFloat(key string, fallback float64) (float64, error) {
	s := sharedcfg.EnvOrDefault(key, "")
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s: %w", domain.ErrConfig, key, err)
	}
	return v, nil
}
