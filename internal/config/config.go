package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration settings.
type Config struct {
	Environment string `envconfig:"ENV" default:"development"`

	HTTPPort    int           `envconfig:"HTTP_PORT" default:"8080"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`

	YtDlpPath        string `envconfig:"YTDLP_PATH" default:"yt-dlp"`
	DownloadDir      string `envconfig:"DOWNLOAD_DIR" default:"./downloads"`
	OutputTemplate   string `envconfig:"OUTPUT_TEMPLATE" default:"%(title)s.%(ext)s"`
	AudioFormat      string `envconfig:"AUDIO_FORMAT" default:"mp3"`
	VideoContainer   string `envconfig:"VIDEO_CONTAINER" default:"mp4"`
	ItemURLTemplate  string `envconfig:"ITEM_URL_TEMPLATE" default:"https://www.youtube.com/watch?v=%s"`
	BatchParallelism int    `envconfig:"BATCH_PARALLELISM" default:"1"`

	StateFile string `envconfig:"STATE_FILE" default:"./state/sessions.json"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`

	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat     string `envconfig:"LOG_FORMAT" default:"json"`
	LogFile       string `envconfig:"LOG_FILE" default:""`
	LogMaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"10"`
	LogMaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"5"`
	LogMaxAgeDays int    `envconfig:"LOG_MAX_AGE_DAYS" default:"30"`
	LogCompress   bool   `envconfig:"LOG_COMPRESS" default:"true"`
}

// Validate checks the configuration for invalid or missing values.
// Returns an error describing the first invalid setting found.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	if c.BatchParallelism <= 0 {
		return fmt.Errorf("batch parallelism must be positive: %d", c.BatchParallelism)
	}

	if c.YtDlpPath == "" {
		return fmt.Errorf("yt-dlp path cannot be empty")
	}
	if c.DownloadDir == "" {
		return fmt.Errorf("download directory cannot be empty")
	}
	if c.StateFile == "" {
		return fmt.Errorf("state file cannot be empty")
	}
	if !strings.Contains(c.OutputTemplate, "%(") {
		return fmt.Errorf("output template has no fields: %q", c.OutputTemplate)
	}
	if strings.Count(c.ItemURLTemplate, "%s") != 1 {
		return fmt.Errorf("item URL template must contain exactly one %%s: %q", c.ItemURLTemplate)
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format: %q", c.LogFormat)
	}

	return nil
}
