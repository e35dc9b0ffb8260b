package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func reset() {
	SetVerbose(false)
	SetOutput(os.Stderr)
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestDebug_WhenVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Debug("test message", "key", "value")

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, `msg="test message"`)
	assert.Contains(t, out, "key=value")
	assert.NotContains(t, out, "time=")
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Debug("hidden")
	Info("hidden too")

	assert.Empty(t, buf.String())
}

func TestWarn_AlwaysWritten(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Warn("careful", "attempt", 2)
	Error("broken")

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "attempt=2")
	assert.Contains(t, out, "level=ERROR")
}

func TestSection(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	Section("Hidden")
	assert.Empty(t, buf.String())

	SetVerbose(true)
	Section("Authorization")
	assert.Equal(t, "\n=== Authorization ===\n", buf.String())
}

func TestWith_AddsComponent(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	With("ingestion").Warn("stalled")
	assert.Contains(t, buf.String(), "component=ingestion")
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", Mask(""))

	masked := Mask("ya29.a0AfH6SMBsecret")
	assert.NotEqual(t, "ya29.a0AfH6SMBsecret", masked)
	assert.Equal(t, "ya", masked[:2])
	assert.Equal(t, "et", masked[len(masked)-2:])
	assert.NotContains(t, masked, "secret")
}

func TestSecret_Attr(t *testing.T) {
	attr := Secret("refresh_token", "1//0gLongRefreshToken")
	assert.Equal(t, "refresh_token", attr.Key)
	assert.NotContains(t, attr.Value.String(), "LongRefresh")
}
