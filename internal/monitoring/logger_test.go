package monitoring

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got []string
	SetLogger(func(format string, v ...interface{}) {
		got = append(got, format)
	})
	Logf("capture stored")
	assert.Equal(t, []string{"capture stored"}, got)

	SetLogger(nil)
	Logf("muted")
	assert.Len(t, got, 1)
}

func TestWriterLogf(t *testing.T) {
	var buf bytes.Buffer
	logf := WriterLogf(&buf, "[limbspeed] ")
	logf("max %.2f", 3.14159)
	assert.Contains(t, buf.String(), "[limbspeed] ")
	assert.Contains(t, buf.String(), "max 3.14")

	// Must not panic.
	WriterLogf(nil, "x")("dropped")
}

func TestLogfDefault(t *testing.T) {
	assert.NotNil(t, Logf)
}
