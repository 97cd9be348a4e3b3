package leb128

import (
	"encoding/hex"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func hexBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestDecodeUint32(t *testing.T) {
	tests := []struct {
		hex string
		exp uint32
	}{
		{"00", 0},
		{"808000", 0},
		{"01", 1},
		{"81808000", 1},
		{"8180808000", 1},
		{"8200", 2},
		{"e58e26", 624485},
		{"e58ea68000", 624485},
		{"ffffffff07", 0x7fffffff},
		{"8080808008", 0x80000000},
		{"ffffffff0f", 0xffffffff},
	}
	for _, c := range tests {
		b := hexBytes(t, c.hex)
		v, n, err := DecodeUint32(b)
		require.NoError(t, err, c.hex)
		require.Equal(t, c.exp, v, c.hex)
		require.Equal(t, len(b), n, c.hex)
	}
}

func TestDecodeInt32(t *testing.T) {
	tests := []struct {
		hex string
		exp int32
	}{
		{"00", 0},
		{"7f", -1},
		{"ffffffff7f", -1},
		{"7e", -2},
		{"fe7f", -2},
		{"feff7f", -2},
		{"e58e26", 624485},
		{"c0bb78", -123456},
		{"9bf159", -624485},
		{"8180808078", -2147483647},
		{"8080808078", -2147483648},
	}
	for _, c := range tests {
		b := hexBytes(t, c.hex)
		v, n, err := DecodeInt32(b)
		require.NoError(t, err, c.hex)
		require.Equal(t, c.exp, v, c.hex)
		require.Equal(t, len(b), n, c.hex)
	}
}

func TestDecodeUint64(t *testing.T) {
	tests := []struct {
		hex string
		exp uint64
	}{
		{"ffffffffffffffffff7f", 0x7fffffffffffffff},
		{"80808080808080808001", 0x8000000000000000},
		{"ffffffffffffffffff01", 0xffffffffffffffff},
	}
	for _, c := range tests {
		b := hexBytes(t, c.hex)
		v, n, err := DecodeUint64(b)
		require.NoError(t, err, c.hex)
		require.Equal(t, c.exp, v, c.hex)
		require.Equal(t, len(b), n, c.hex)
	}
}

func TestDecodeInt64(t *testing.T) {
	tests := []struct {
		hex string
		exp int64
	}{
		{"ffffffffffffffffff7f", -1},
		{"ffffffffffffff00", 562949953421311},
		{"ffffffffffffff808000", 562949953421311},
	}
	for _, c := range tests {
		b := hexBytes(t, c.hex)
		v, n, err := DecodeInt64(b)
		require.NoError(t, err, c.hex)
		require.Equal(t, c.exp, v, c.hex)
		require.Equal(t, len(b), n, c.hex)
	}
}

func TestDecodeUint32_EOF(t *testing.T) {
	_, _, err := DecodeUint32([]byte{0x80, 0x80})
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecodeUint32_Overflow(t *testing.T) {
	// Six continuation groups: more than ceil(32/7) = 5 groups ever needed.
	_, _, err := DecodeUint32([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00})
	require.ErrorIs(t, err, ErrOverflow)
}

func TestDecodeUint32_SignificantBitsBeyondWidth(t *testing.T) {
	// Fifth group carries bits above position 31.
	_, _, err := DecodeUint32([]byte{0x82, 0x80, 0x80, 0x80, 0x70})
	require.ErrorIs(t, err, ErrOverflow)
}
