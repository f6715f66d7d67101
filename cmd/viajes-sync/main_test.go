package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/viajes/internal/config"
	"github.com/dropDatabas3/viajes/internal/notify"
	"github.com/dropDatabas3/viajes/internal/syncer"
)

func TestRootFlags_Mode(t *testing.T) {
	cases := []struct {
		f    rootFlags
		want syncer.Mode
	}{
		{rootFlags{}, syncer.ModeSimulate},
		{rootFlags{mysql: true}, syncer.ModeWrite},
		{rootFlags{mysql: true, confirm: true}, syncer.ModeConfirm},
		{rootFlags{dryRun: true, confirm: true}, syncer.ModeDryRun},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.f.mode())
	}
}

func TestConfigError_Unwraps(t *testing.T) {
	base := errors.New("falta AIRTABLE_BASE_ID")
	var err error = configError{base}
	assert.ErrorIs(t, err, base)

	var ce configError
	assert.True(t, errors.As(err, &ce))
}

func TestBuildNotifier(t *testing.T) {
	var cfg config.Config
	assert.Nil(t, buildNotifier(&cfg))

	cfg.Notify.SMTP.Host = "smtp.example.com"
	cfg.Notify.SMTP.Port = 587
	cfg.Notify.SMTP.TLS = "ssl"
	// Sin destinatarios no hay canal.
	assert.Nil(t, buildNotifier(&cfg))

	cfg.Notify.SMTP.To = []string{"ops@example.com"}
	n := buildNotifier(&cfg)
	require.NotNil(t, n)
	multi, ok := n.(notify.Multi)
	require.True(t, ok)
	require.Len(t, multi, 1)
	smtp, ok := multi[0].(*notify.SMTPNotifier)
	require.True(t, ok)
	assert.Equal(t, "ssl", smtp.TLSMode)
}

func TestSetup_MissingConfigIsConfigError(t *testing.T) {
	for _, k := range []string{"AIRTABLE_TOKEN", "AIRTABLE_API_KEY", "AIRTABLE_BASE_ID", "AIRTABLE_TABLE_NAME"} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())

	_, err := setup(t.Context(), "", syncer.ModeSimulate)
	require.Error(t, err)
	var ce configError
	assert.True(t, errors.As(err, &ce))
	assert.Contains(t, err.Error(), "AIRTABLE_BASE_ID")
}
