package shard

import (
	"fmt"

	"github.com/arloliu/linreg/errs"
	"github.com/arloliu/linreg/format"
	"github.com/arloliu/linreg/internal/options"
	"github.com/arloliu/linreg/metrics"
)

// EncoderConfig holds the settings of a single Encode call.
type EncoderConfig struct {
	compression format.CompressionType
	bigEndian   bool
	metrics     *metrics.Metrics
}

// EncoderOption configures Encode.
type EncoderOption = options.Option[*EncoderConfig]

func newEncoderConfig() *EncoderConfig {
	return &EncoderConfig{compression: format.CompressionNone}
}

// WithCompression sets the codec applied to the payload. Default is no compression.
func WithCompression(compression format.CompressionType) EncoderOption {
	return options.New(func(c *EncoderConfig) error {
		if !compression.IsValid() {
			return fmt.Errorf("%w: %s", errs.ErrInvalidCompression, compression)
		}
		c.compression = compression

		return nil
	})
}

// WithLittleEndian writes the shard in little-endian byte order. This is the default.
func WithLittleEndian() EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.bigEndian = false
	})
}

// WithBigEndian writes the shard in big-endian byte order.
func WithBigEndian() EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.bigEndian = true
	})
}

// WithMetrics records the size of every encoded shard.
func WithMetrics(m *metrics.Metrics) EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.metrics = m
	})
}
