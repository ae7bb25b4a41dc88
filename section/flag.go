package section

import (
	"fmt"

	"github.com/arloliu/linreg/endian"
	"github.com/arloliu/linreg/errs"
	"github.com/arloliu/linreg/format"
)

// Flag represents the packed flag field at the start of a shard header.
type Flag struct {
	// Options is a packed field for various options.
	// Bit 0 is endianness flag, 0 means little-endian, 1 means big-endian.
	// Bit 1-3 are reserved for future use, must be set to 0.
	// Bit 4-15 are the magic number identifying the shard format:
	//   - 0xEC10 (0b1110_1100_0001_0000): shard format v1
	Options uint16

	// Compression is the codec applied to the whole state payload.
	Compression format.CompressionType
	reserved    uint8
}

// NewFlag creates a little-endian flag with no payload compression.
func NewFlag() Flag {
	return Flag{
		Options:     MagicShardV1Opt,
		Compression: format.CompressionNone,
	}
}

// IsLittleEndian checks if the shard uses little-endian byte order.
func (f Flag) IsLittleEndian() bool {
	return f.Options&EndiannessMask == 0
}

// IsBigEndian checks if the shard uses big-endian byte order.
func (f Flag) IsBigEndian() bool {
	return f.Options&EndiannessMask != 0
}

// WithLittleEndian sets little-endian byte order.
func (f *Flag) WithLittleEndian() {
	f.Options &^= EndiannessMask
}

// WithBigEndian sets big-endian byte order.
func (f *Flag) WithBigEndian() {
	f.Options |= EndiannessMask
}

// GetMagicNumber extracts the magic number from Options.
func (f Flag) GetMagicNumber() uint16 {
	return f.Options & MagicNumberMask
}

// IsValidMagicNumber checks if the magic number is valid.
func (f Flag) IsValidMagicNumber() bool {
	return f.GetMagicNumber() == MagicShardV1Opt
}

// Validate checks if the flag holds the shard magic number, no reserved bits
// and a known compression type.
func (f Flag) Validate() error {
	if !f.IsValidMagicNumber() {
		return fmt.Errorf("%w: 0x%04X", errs.ErrInvalidMagicNumber, f.GetMagicNumber())
	}

	if f.Options&ReservedBitsMask != 0 || f.reserved != 0 {
		return fmt.Errorf("%w: reserved bits set", errs.ErrInvalidMagicNumber)
	}

	if !f.Compression.IsValid() {
		return fmt.Errorf("%w: %d", errs.ErrInvalidCompression, f.Compression)
	}

	return nil
}

// GetEndianEngine returns the appropriate endian engine based on the flag.
func (f Flag) GetEndianEngine() endian.EndianEngine {
	return endian.FromFlag(f.IsBigEndian())
}
