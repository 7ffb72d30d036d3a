package sl_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/alexandernizov/moodiary/internal/pkg/logger/sl"
	"github.com/stretchr/testify/assert"
)

func TestErr(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	log.Error("failed", sl.Err(errors.New("boom")))

	assert.Contains(t, buf.String(), "error=boom")
}
