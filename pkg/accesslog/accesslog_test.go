package accesslog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_LineFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewWithWriter(&buf)

	ts := time.Date(2024, time.March, 9, 14, 30, 5, 0, time.UTC)
	l.Log(ts, "192.0.2.7", 200, "/index.html")

	assert.Equal(t, "2024-03-09T14:30:05\t192.0.2.7\t200\t/index.html\n", buf.String())
}

func TestLog_ConvertsToUTC(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewWithWriter(&buf)

	loc := time.FixedZone("CET", 3600)
	l.Log(time.Date(2024, time.March, 9, 15, 30, 5, 0, loc), "::1", 404, "/missing")

	assert.True(t, strings.HasPrefix(buf.String(), "2024-03-09T14:30:05\t"))
}

func TestLog_EmptyTarget(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewWithWriter(&buf)

	l.Log(time.Now(), "192.0.2.1", 400, "")

	fields := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\t")
	require.Len(t, fields, 4)
	assert.Equal(t, "400", fields[2])
	assert.Empty(t, fields[3])
}

func TestLog_ConcurrentLinesDoNotInterleave(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewWithWriter(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Log(time.Now(), "203.0.113.9", 200, "/some/long/target/path.bin")
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 50)
	for _, line := range lines {
		assert.Len(t, strings.Split(line, "\t"), 4)
	}
}

func TestNew_FileOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "access.log")

	l, err := New(path)
	require.NoError(t, err)

	l.Log(time.Now(), "192.0.2.2", 304, "/cached")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\t304\t/cached\n")
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	// Must simply not panic.
	Discard.Log(time.Now(), "x", 200, "/")
}
