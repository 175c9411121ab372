package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	prev := Level()
	t.Cleanup(func() { SetLevel(prev) })

	SetLevel(WarningLevel)
	Infof("hidden %d", 1)
	Warningf("shown %d", 2)
	Errorf("shown %d", 3)
	Criticalf("shown %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARNING shown 2")
	assert.Contains(t, out, "ERROR shown 3")
	assert.Contains(t, out, "CRITICAL shown 4")
}

func TestDebugObj(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	prev := Level()
	t.Cleanup(func() { SetLevel(prev) })

	SetLevel(DebugLevel)
	DebugObj("job", map[string]int{"a": 1})
	assert.Contains(t, buf.String(), `"a": 1`)
}
