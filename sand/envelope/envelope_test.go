package envelope

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpenRaw(t *testing.T) {
	env := Seal([]byte("hello"), CompressionOff, 0)
	assert.Equal(t, FlagRaw, env[0])

	msg, err := Open(env)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(msg))
}

func TestSealCompressesLargeRepetitiveMessage(t *testing.T) {
	msg := bytes.Repeat([]byte("segment traffic "), 256)

	for _, level := range []Compression{CompressionFast, CompressionDefault, CompressionBest} {
		env := Seal(msg, level, DefaultThreshold)
		assert.Equal(t, FlagLZ4, env[0], level.String())
		assert.Less(t, len(env), len(msg), level.String())

		got, err := Open(env)
		require.NoError(t, err, level.String())
		assert.Equal(t, msg, got, level.String())
	}
}

func TestSealBelowThresholdStaysRaw(t *testing.T) {
	msg := bytes.Repeat([]byte("a"), 100)
	env := Seal(msg, CompressionBest, DefaultThreshold)
	assert.Equal(t, FlagRaw, env[0])
}

func TestOpenMalformed(t *testing.T) {
	for name, env := range map[string][]byte{
		"empty":        nil,
		"flag only":    {FlagRaw},
		"unknown flag": {0x7f, 'x'},
		"bad lz4":      {FlagLZ4, 1, 2, 3, 4},
	} {
		_, err := Open(env)
		assert.ErrorIs(t, err, ErrMalformed, name)
	}
}

func TestOpenRejectsOversizedMessage(t *testing.T) {
	inflated, err := Compress(bytes.Repeat([]byte("a"), 2*MaxMessageSize), CompressionDefault)
	require.NoError(t, err)
	_, err = Open(append([]byte{FlagLZ4}, inflated...))
	assert.ErrorIs(t, err, ErrMessageTooLarge)
	assert.NotErrorIs(t, err, ErrMalformed)

	_, err = Open(append([]byte{FlagRaw}, make([]byte, MaxMessageSize+1)...))
	assert.ErrorIs(t, err, ErrMessageTooLarge)

	atLimit := bytes.Repeat([]byte("a"), MaxMessageSize)
	msg, err := Open(Seal(atLimit, CompressionDefault, DefaultThreshold))
	require.NoError(t, err)
	assert.Equal(t, atLimit, msg)
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{
		"":        CompressionOff,
		"off":     CompressionOff,
		"fast":    CompressionFast,
		"default": CompressionDefault,
		"best":    CompressionBest,
	} {
		got, err := ParseCompression(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCompression("zstd")
	assert.Error(t, err)
}
