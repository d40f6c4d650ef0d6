package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "ANSWER_EVAL"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Storage StorageConfig `mapstructure:"storage"`
	OCR     OCRConfig     `mapstructure:"ocr"`
	Model   ModelConfig   `mapstructure:"model"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port                   string `mapstructure:"port"`
	MaxUploadMB            int64  `mapstructure:"max_upload_mb"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds"`
}

func (s ServerConfig) MaxUploadBytes() int64 { return s.MaxUploadMB << 20 }

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type StorageConfig struct {
	UploadDir   string `mapstructure:"upload_dir"`
	UniqueNames bool   `mapstructure:"unique_names"`
}

type OCRConfig struct {
	Language  string `mapstructure:"language"`
	MaxPixels int64  `mapstructure:"max_pixels"`
}

type ModelConfig struct {
	WeightsPath    string `mapstructure:"weights_path"`
	BaseURL        string `mapstructure:"base_url"`
	Name           string `mapstructure:"name"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxTokens      int    `mapstructure:"max_tokens"`
	Encoding       string `mapstructure:"encoding"`
}

// Enabled reports whether an inference server is configured at all.
func (m ModelConfig) Enabled() bool { return strings.TrimSpace(m.BaseURL) != "" }

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":5000")
	v.SetDefault("server.max_upload_mb", 16)
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("storage.upload_dir", "static/uploads")
	v.SetDefault("storage.unique_names", true)
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.max_pixels", 1<<25)
	v.SetDefault("model.weights_path", "models/answer_assessment_model.pt")
	v.SetDefault("model.base_url", "")
	v.SetDefault("model.name", "answer_assessment")
	v.SetDefault("model.timeout_seconds", 300)
	v.SetDefault("model.max_tokens", 512)
	v.SetDefault("model.encoding", "cl100k_base")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("metrics.namespace", "answer_eval")
}

// Load reads config.yaml from the given directories (./config and . when none
// are given) and overlays ANSWER_EVAL_* environment variables. A missing file
// is not an error; found reports whether one was read.
func Load(paths ...string) (cfg *Config, found bool, err error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./config", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	found = true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, false, fmt.Errorf("read config file: %w", err)
		}
		found = false
	}

	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, found, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, found, err
	}
	return cfg, found, nil
}

func (c *Config) validate() error {
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}
	if strings.TrimSpace(c.Storage.UploadDir) == "" {
		return errors.New("storage.upload_dir must not be empty")
	}
	if c.OCR.MaxPixels <= 0 {
		return fmt.Errorf("ocr.max_pixels must be positive, got %d", c.OCR.MaxPixels)
	}
	if c.Model.MaxTokens <= 0 {
		return fmt.Errorf("model.max_tokens must be positive, got %d", c.Model.MaxTokens)
	}
	return nil
}
