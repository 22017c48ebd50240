package module

import (
	"time"

	"idcardocr/internal/platform/config"
)

// Options holds configuration settings for the recognize module
type Options struct {
	SecretID  string `json:"secret_id" validate:"required,min=20,credchars"`
	SecretKey string `json:"secret_key" validate:"required,min=20,credchars"`
	Region    string `json:"region"`
	Endpoint  string `json:"endpoint" validate:"omitempty,url"`

	RateLimit   int           `json:"rate_limit" validate:"min=1"`
	Timeout     time.Duration `json:"api_timeout"`
	MaxRetries  int           `json:"max_retries" validate:"min=1,max=10"`
	BackoffBase float64       `json:"retry_backoff_base" validate:"min=1"`
	Workers     int           `json:"max_concurrent_requests" validate:"min=1,max=100"`

	MaxImageSizeMB      float64 `json:"max_image_size_mb" validate:"gt=0"`
	MaxResizeIterations int     `json:"max_resize_iterations" validate:"min=1"`

	// AllowedRoot confines image paths; empty disables the check
	AllowedRoot string `json:"-"`
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	tc := cfg.Prefix("TENCENTCLOUD_")
	return Options{
		SecretID:            tc.MayString("SECRET_ID", ""),
		SecretKey:           tc.MayString("SECRET_KEY", ""),
		Region:              tc.MayString("REGION", ""),
		Endpoint:            tc.MayString("ENDPOINT", ""),
		RateLimit:           cfg.MayInt("RATE_LIMIT", 20),
		Timeout:             cfg.MayDuration("API_TIMEOUT", 30*time.Second),
		MaxRetries:          cfg.MayInt("MAX_RETRIES", 3),
		BackoffBase:         cfg.MayFloat64("RETRY_BACKOFF_BASE", 2),
		Workers:             cfg.MayInt("MAX_CONCURRENT_REQUESTS", 10),
		MaxImageSizeMB:      cfg.MayFloat64("MAX_IMAGE_SIZE_MB", 10),
		MaxResizeIterations: cfg.MayInt("MAX_RESIZE_ITERATIONS", 10),
	}
}

// merge lets non-zero overrides win over o
func (o Options) merge(ov Options) Options {
	if ov.SecretID != "" {
		o.SecretID = ov.SecretID
	}
	if ov.SecretKey != "" {
		o.SecretKey = ov.SecretKey
	}
	if ov.Region != "" {
		o.Region = ov.Region
	}
	if ov.Endpoint != "" {
		o.Endpoint = ov.Endpoint
	}
	if ov.RateLimit != 0 {
		o.RateLimit = ov.RateLimit
	}
	if ov.Timeout != 0 {
		o.Timeout = ov.Timeout
	}
	if ov.MaxRetries != 0 {
		o.MaxRetries = ov.MaxRetries
	}
	if ov.BackoffBase != 0 {
		o.BackoffBase = ov.BackoffBase
	}
	if ov.Workers != 0 {
		o.Workers = ov.Workers
	}
	if ov.MaxImageSizeMB != 0 {
		o.MaxImageSizeMB = ov.MaxImageSizeMB
	}
	if ov.MaxResizeIterations != 0 {
		o.MaxResizeIterations = ov.MaxResizeIterations
	}
	if ov.AllowedRoot != "" {
		o.AllowedRoot = ov.AllowedRoot
	}
	return o
}
