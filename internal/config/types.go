package config

import "time"

// Config represents the main configuration structure
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
	OCR      OCRConfig      `yaml:"ocr" mapstructure:"ocr"`
	Detector DetectorConfig `yaml:"detector" mapstructure:"detector"`
	Limits   LimitsConfig   `yaml:"limits" mapstructure:"limits"`
	Render   RenderConfig   `yaml:"render" mapstructure:"render"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Events   EventsConfig   `yaml:"events" mapstructure:"events"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	File   struct {
		Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
		Path     string `yaml:"path" mapstructure:"path"`
		MaxSize  int    `yaml:"max_size" mapstructure:"max_size"`
		MaxAge   int    `yaml:"max_age" mapstructure:"max_age"`
		Compress bool   `yaml:"compress" mapstructure:"compress"`
	} `yaml:"file" mapstructure:"file"`
}

// OCRConfig contains text extraction configuration
type OCRConfig struct {
	Language       string        `yaml:"language" mapstructure:"language"`
	DataDir        string        `yaml:"data_dir" mapstructure:"data_dir"`
	InitTimeout    time.Duration `yaml:"init_timeout" mapstructure:"init_timeout"`
	ExtractTimeout time.Duration `yaml:"extract_timeout" mapstructure:"extract_timeout"`
	QueueSize      int           `yaml:"queue_size" mapstructure:"queue_size"`
}

// DetectorConfig contains PII detection configuration
type DetectorConfig struct {
	EnabledTypes        []string `yaml:"enabled_types" mapstructure:"enabled_types"`
	ConfidenceThreshold float64  `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
	NeuralModelPath     string   `yaml:"neural_model_path" mapstructure:"neural_model_path"`
}

// LimitsConfig contains input validation limits
type LimitsConfig struct {
	MaxFileSize   int64    `yaml:"max_file_size" mapstructure:"max_file_size"`
	AcceptedMIMEs []string `yaml:"accepted_mimes" mapstructure:"accepted_mimes"`
}

// RenderConfig contains compositing configuration
type RenderConfig struct {
	PreviewAlpha uint8 `yaml:"preview_alpha" mapstructure:"preview_alpha"`
}

// ExportConfig contains export configuration
type ExportConfig struct {
	Format      string `yaml:"format" mapstructure:"format"` // pdf, png or jpg
	JPEGQuality int    `yaml:"jpeg_quality" mapstructure:"jpeg_quality"`
}

// CacheConfig bounds the rendered page cache
type CacheConfig struct {
	MaxPages int `yaml:"max_pages" mapstructure:"max_pages"`
}

// EventsConfig configures the optional local dashboard event feed
type EventsConfig struct {
	Enabled           bool    `yaml:"enabled" mapstructure:"enabled"`
	Addr              string  `yaml:"addr" mapstructure:"addr"`
	Path              string  `yaml:"path" mapstructure:"path"`
	ProgressPerSecond float64 `yaml:"progress_per_second" mapstructure:"progress_per_second"`
}

// GetDefaults returns a configuration with sensible defaults
func GetDefaults() *Config {
	cfg := &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		OCR: OCRConfig{
			Language:       "eng",
			DataDir:        "",
			InitTimeout:    120 * time.Second,
			ExtractTimeout: 120 * time.Second,
			QueueSize:      4,
		},
		Detector: DetectorConfig{
			EnabledTypes:        []string{"all"},
			ConfidenceThreshold: 0.5,
			NeuralModelPath:     "",
		},
		Limits: LimitsConfig{
			MaxFileSize:   50 * 1024 * 1024,
			AcceptedMIMEs: []string{"application/pdf", "image/png", "image/jpeg"},
		},
		Render: RenderConfig{
			PreviewAlpha: 96,
		},
		Export: ExportConfig{
			Format:      "pdf",
			JPEGQuality: 90,
		},
		Cache: CacheConfig{
			MaxPages: 5,
		},
		Events: EventsConfig{
			Enabled:           false,
			Addr:              "localhost:8765",
			Path:              "/ws",
			ProgressPerSecond: 20,
		},
	}
	cfg.Logging.File.Enabled = false
	cfg.Logging.File.Path = "logs/docsentinel.log"
	cfg.Logging.File.MaxSize = 100 // MB
	cfg.Logging.File.MaxAge = 30   // days
	cfg.Logging.File.Compress = true
	return cfg
}
