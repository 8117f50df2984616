// Package config holds runtime settings, read from the environment with
// defaults. Command-line flags may override individual fields afterwards.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"png-steganography/filter"
	"png-steganography/oops"

	"github.com/klauspost/compress/zlib"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	LogLevel   string
	PrettyLogs bool

	Addr           string
	AllowedOrigins []string
	MaxUploadBytes int64

	// Filter is used for every scanline when writing images.
	Filter           filter.Type
	CompressionLevel int
	MaxChunkSize     int
}

func Default() Config {
	return Config{
		LogLevel:         "info",
		PrettyLogs:       true,
		Addr:             ":8080",
		AllowedOrigins:   []string{"http://localhost:3000"},
		MaxUploadBytes:   32 << 20,
		Filter:           filter.Paeth,
		CompressionLevel: zlib.DefaultCompression,
		MaxChunkSize:     1 << 14,
	}
}

// FromEnv starts from Default and applies any STEGO_* variables, plus PORT.
func FromEnv() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg := Default()

	if v := getenv("STEGO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("STEGO_PRETTY_LOGS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, oops.New(ErrInvalidConfig, "STEGO_PRETTY_LOGS=%q", v)
		}
		cfg.PrettyLogs = b
	}
	if port := getenv("PORT"); port != "" {
		cfg.Addr = ":" + port
	}
	if v := getenv("STEGO_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}
	if v := getenv("STEGO_FILTER"); v != "" {
		t, err := filter.ParseType(v)
		if err != nil {
			return cfg, oops.New(ErrInvalidConfig, "STEGO_FILTER=%q", v)
		}
		cfg.Filter = t
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"STEGO_COMPRESSION_LEVEL", &cfg.CompressionLevel},
		{"STEGO_MAX_CHUNK_SIZE", &cfg.MaxChunkSize},
	}
	for _, i := range ints {
		if v := getenv(i.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return cfg, oops.New(ErrInvalidConfig, "%s=%q", i.name, v)
			}
			*i.dst = n
		}
	}
	if v := getenv("STEGO_MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, oops.New(ErrInvalidConfig, "STEGO_MAX_UPLOAD_BYTES=%q", v)
		}
		cfg.MaxUploadBytes = n
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Filter != filter.Adaptive && c.Filter > filter.Paeth {
		return oops.New(ErrInvalidConfig, "filter %s", c.Filter)
	}
	if c.CompressionLevel < zlib.HuffmanOnly || c.CompressionLevel > zlib.BestCompression {
		return oops.New(ErrInvalidConfig, "compression level %d outside %d..%d", c.CompressionLevel, zlib.HuffmanOnly, zlib.BestCompression)
	}
	if c.MaxChunkSize < 1 || c.MaxChunkSize > 1<<31-1 {
		return oops.New(ErrInvalidConfig, "max chunk size %d", c.MaxChunkSize)
	}
	if c.MaxUploadBytes < 1 {
		return oops.New(ErrInvalidConfig, "max upload bytes %d", c.MaxUploadBytes)
	}
	return nil
}
