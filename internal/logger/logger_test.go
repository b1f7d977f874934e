package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range cases {
		require.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNewWritesJSONWithServiceFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Service: "shoppingcart-service", Env: "test", Level: "info", Output: &buf})
	l.Debug("hidden")
	l.Info("hello", "cart", "Cart1")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "hello", rec["msg"])
	require.Equal(t, "shoppingcart-service", rec["service"])
	require.Equal(t, "test", rec["env"])
	require.Equal(t, "Cart1", rec["cart"])
}
