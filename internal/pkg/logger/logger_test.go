package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "jo***@example.com", RedactEmail("john.doe@example.com"))
	assert.Equal(t, "***@example.com", RedactEmail("ab@example.com"))
	assert.Equal(t, "***@***", RedactEmail("not-an-email"))
	assert.Equal(t, "***@***", RedactEmail("a@b@c"))
}

func TestLoggerRedactsEmailFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, INFO)

	log.Info("subscriber created", "email", "john.doe@example.com", "list_id", 7)

	var entry map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "subscriber created", entry["msg"])
	assert.Equal(t, "jo***@example.com", entry["email"])
	assert.Equal(t, "7", entry["list_id"])
}

func TestLoggerRedactsEmbeddedEmails(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, INFO)

	log.Warn("link failed", "error", "409 for john.doe@example.com")

	var entry map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "409 for jo***@example.com", entry["error"])
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, WARN)

	log.Debug("debug message")
	log.Info("info message")
	assert.Zero(t, buf.Len())

	log.Error("error message")
	assert.NotZero(t, buf.Len())
}
