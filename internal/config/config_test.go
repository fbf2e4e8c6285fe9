package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecipients(t *testing.T) {
	got := ParseRecipients(" ana@farmaum.com.br, ,sem-arroba, bia@farmaum.com.br ")
	assert.Equal(t, []string{"ana@farmaum.com.br", "bia@farmaum.com.br"}, got)
	assert.Empty(t, ParseRecipients(""))
}

func TestParseBranchLabels(t *testing.T) {
	got := ParseBranchLabels("1=FARMAUM PB, 2 = FARMAUM RN,3=,=X,lixo")
	assert.Equal(t, map[string]string{"1": "FARMAUM PB", "2": "FARMAUM RN"}, got)
}

func TestTargetClock(t *testing.T) {
	h, m, err := ScheduleConfig{TargetTime: " 07:45 "}.TargetClock()
	require.NoError(t, err)
	assert.Equal(t, 7, h)
	assert.Equal(t, 45, m)

	_, _, err = ScheduleConfig{TargetTime: "25:00"}.TargetClock()
	assert.Error(t, err)
}

func TestPollInterval(t *testing.T) {
	assert.Equal(t, time.Minute, ScheduleConfig{}.PollInterval())
	assert.Equal(t, time.Minute, ScheduleConfig{PollSeconds: -5}.PollInterval())
	assert.Equal(t, 30*time.Second, ScheduleConfig{PollSeconds: 30}.PollInterval())
}

func TestLocation(t *testing.T) {
	assert.Equal(t, time.Local, IndicatorConfig{}.Location())
	assert.Equal(t, time.Local, IndicatorConfig{Timezone: "Nowhere/Atlantis"}.Location())
	assert.Equal(t, "UTC", IndicatorConfig{Timezone: "UTC"}.Location().String())
}

func TestLoadFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("EMAIL_PARA", "a@x.com,b@x.com")
	t.Setenv("EMAIL_CCO", "c@x.com")
	t.Setenv("ARCHIVE_BACKEND", "S3")
	t.Setenv("CORTE_POLL_SECONDS", "15")
	t.Setenv("STATE_PATH", dir+"/state/s.json")
	t.Setenv("LOG_DIR", dir+"/log")

	Reset()
	t.Cleanup(Reset)
	cfg := Load()

	assert.Equal(t, []string{"a@x.com", "b@x.com"}, cfg.Mail.To)
	assert.Equal(t, []string{"c@x.com"}, cfg.Mail.Bcc)
	assert.Equal(t, "s3", cfg.Archive.Backend)
	assert.Equal(t, 15, cfg.Schedule.PollSeconds)
	assert.Equal(t, "smtp.office365.com", cfg.Mail.Host)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, "0.03", cfg.Indicator.ShortageTarget)
	assert.Equal(t, "FARMAUM PB", cfg.Indicator.BranchLabels["1"])
	assert.DirExists(t, dir+"/state")
	assert.DirExists(t, dir+"/log")

	assert.Same(t, cfg, Load())
}
