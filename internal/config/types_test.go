package config

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration(t *testing.T) {
	t.Run("unmarshals duration strings", func(t *testing.T) {
		var d Duration
		require.NoError(t, d.UnmarshalText([]byte("90s")))
		assert.Equal(t, 90*time.Second, d.Duration())
	})

	t.Run("rejects negative durations", func(t *testing.T) {
		var d Duration
		assert.Error(t, d.UnmarshalText([]byte("-5s")))
	})

	t.Run("rejects invalid syntax", func(t *testing.T) {
		var d Duration
		assert.Error(t, d.UnmarshalText([]byte("not-a-duration")))
	})

	t.Run("marshals to duration string", func(t *testing.T) {
		d := Duration(5 * time.Minute)
		text, err := d.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, "5m0s", string(text))
	})
}

func TestSecret(t *testing.T) {
	t.Run("redacts in string formatting", func(t *testing.T) {
		s := Secret("sk-very-secret")
		assert.Equal(t, "[REDACTED]", s.String())
		assert.Equal(t, "[REDACTED]", fmt.Sprintf("%s", s))
		assert.NotContains(t, fmt.Sprintf("%#v", s), "very-secret")
	})

	t.Run("redacts in json", func(t *testing.T) {
		data, err := json.Marshal(struct {
			Key Secret `json:"key"`
		}{Key: "sk-very-secret"})
		require.NoError(t, err)
		assert.NotContains(t, string(data), "very-secret")
		assert.Contains(t, string(data), "[REDACTED]")
	})

	t.Run("empty secret stays empty", func(t *testing.T) {
		var s Secret
		assert.Equal(t, "", s.String())
		assert.False(t, s.IsSet())
	})

	t.Run("value returns the raw secret", func(t *testing.T) {
		s := Secret("sk-very-secret")
		assert.Equal(t, "sk-very-secret", s.Value())
		assert.True(t, s.IsSet())
	})
}
