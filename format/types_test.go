package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressionType_String(t *testing.T) {
	require.Equal(t, "None", CompressionNone.String())
	require.Equal(t, "Zstd", CompressionZstd.String())
	require.Equal(t, "S2", CompressionS2.String())
	require.Equal(t, "LZ4", CompressionLZ4.String())
	require.Equal(t, "Unknown", CompressionType(0).String())
}

func TestCompressionType_IsValid(t *testing.T) {
	require.False(t, CompressionType(0).IsValid())
	require.True(t, CompressionNone.IsValid())
	require.True(t, CompressionLZ4.IsValid())
	require.False(t, CompressionType(5).IsValid())
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		name     string
		expected CompressionType
	}{
		{"none", CompressionNone},
		{"", CompressionNone},
		{"ZSTD", CompressionZstd},
		{" s2 ", CompressionS2},
		{"Lz4", CompressionLZ4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCompression(tt.name)
			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
		})
	}

	_, err := ParseCompression("gzip")
	require.ErrorContains(t, err, "gzip")
}
