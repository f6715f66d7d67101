package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"debug":   zapcore.DebugLevel,
		" TRACE ": zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNew_DevAndProd(t *testing.T) {
	for _, env := range []string{"dev", "prod", ""} {
		l, err := New(Config{Env: env, Level: "warn", ServiceName: "viajes-sync"})
		require.NoError(t, err, env)
		assert.False(t, l.Core().Enabled(zapcore.InfoLevel), env)
		assert.True(t, l.Core().Enabled(zapcore.WarnLevel), env)
	}
}

func TestIsDevelopmentEnv(t *testing.T) {
	for _, env := range []string{"", "dev", "Development", " local "} {
		assert.True(t, IsDevelopmentEnv(env), env)
	}
	for _, env := range []string{"prod", "production", "PRODUCTION", "staging"} {
		assert.False(t, IsDevelopmentEnv(env), env)
	}
}

func TestNew_ProductionUsesJSON(t *testing.T) {
	for _, env := range []string{"production", "staging"} {
		l, err := New(Config{Env: env})
		require.NoError(t, err, env)
		// El config de desarrollo de zap habilita Development (DPanic hace panic).
		assert.NotPanics(t, func() { l.DPanic("x") }, env)
	}
	l, err := New(Config{Env: "development"})
	require.NoError(t, err)
	assert.Panics(t, func() { l.DPanic("x") })
}
