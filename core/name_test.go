package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewName_Success(t *testing.T) {
	name, err := NewName("decoder/syslog/0")
	require.NoError(t, err)
	assert.Equal(t, []string{"decoder", "syslog", "0"}, name.Parts())
	assert.Equal(t, 3, name.NumParts())
	assert.Equal(t, "decoder/syslog/0", name.String())
}

func TestNewName_SingleSegment(t *testing.T) {
	name, err := NewName("decoder")
	require.NoError(t, err)
	assert.Equal(t, 1, name.NumParts())
	assert.Equal(t, "decoder", name.Part(0))
}

func TestNewName_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty string", ""},
		{"leading delimiter", "/decoder/syslog"},
		{"trailing delimiter", "decoder/syslog/"},
		{"empty middle segment", "decoder//0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewName(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedName)
		})
	}
}

func TestNameFromParts_Success(t *testing.T) {
	name, err := NameFromParts("decoder", "syslog", "0")
	require.NoError(t, err)
	assert.Equal(t, "decoder/syslog/0", name.String())
}

func TestNameFromParts_Empty(t *testing.T) {
	_, err := NameFromParts()
	assert.ErrorIs(t, err, ErrMalformedName)

	_, err = NameFromParts("decoder", "")
	assert.ErrorIs(t, err, ErrMalformedName)
}

func TestName_Equal(t *testing.T) {
	a, err := NewName("decoder/syslog/0")
	require.NoError(t, err)
	b, err := NameFromParts("decoder", "syslog", "0")
	require.NoError(t, err)
	c, err := NewName("decoder/syslog/1")
	require.NoError(t, err)
	d, err := NewName("decoder")
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
}

func TestName_PartsIsACopy(t *testing.T) {
	name, err := NewName("decoder/syslog/0")
	require.NoError(t, err)

	parts := name.Parts()
	parts[0] = "mutated"
	assert.Equal(t, "decoder", name.Part(0))
}
