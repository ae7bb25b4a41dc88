// Package endian provides the byte order engines used to lay out accumulator state.
//
// The EndianEngine interface combines encoding/binary's ByteOrder and
// AppendByteOrder, so the state codec can both patch fixed offsets and append
// variable-length sections through one value.
//
// # Basic Usage
//
// Little-endian is the default for every linreg wire format:
//
//	engine := endian.GetLittleEndianEngine()
//	buf := stats.AppendState(nil, engine)
//
// Big-endian is available for hosts whose native stream format is big-endian
// (for example JVM-side readers of the same state):
//
//	buf := stats.AppendState(nil, endian.GetBigEndianEngine())
//
// # Thread Safety
//
// All functions are safe for concurrent use. The returned engines are immutable.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary.
//
// binary.LittleEndian and binary.BigEndian both satisfy it.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// CheckEndianness returns the host's native byte order.
func CheckEndianness() binary.ByteOrder {
	var i uint16 = 0x0100

	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsNativeLittleEndian reports whether the host is little-endian.
func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}

// IsLittleEndian reports whether engine writes little-endian data.
func IsLittleEndian(engine EndianEngine) bool {
	return engine == binary.LittleEndian
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// FromFlag returns the engine selected by a big-endian flag bit.
func FromFlag(bigEndian bool) EndianEngine {
	if bigEndian {
		return binary.BigEndian
	}

	return binary.LittleEndian
}
