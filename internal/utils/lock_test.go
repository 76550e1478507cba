package utils

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageLockExcludesOtherSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "timeline.sqlite")

	l, err := NewStorageLock(path)
	require.NoError(t, err)
	assert.Equal(t, path+".lock", l.Path())
	require.NoError(t, l.Lock())

	other := flock.New(path + ".lock")
	ok, err := other.TryLock()
	require.NoError(t, err)
	assert.False(t, ok, "a second session must not get the lock")

	require.NoError(t, l.Unlock())
	ok, err = other.TryLock()
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, other.Unlock())
}

func TestStorageLockWaitsForHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.sqlite")
	holder := flock.New(path + ".lock")
	ok, err := holder.TryLock()
	require.NoError(t, err)
	require.True(t, ok)

	l, err := NewStorageLock(path)
	require.NoError(t, err)
	notice := &noticeWriter{printed: make(chan struct{})}
	l.busy = notice

	released := make(chan struct{})
	go func() {
		defer close(released)
		select {
		case <-notice.printed:
		case <-time.After(5 * time.Second):
		}
		_ = holder.Unlock()
	}()

	require.NoError(t, l.Lock())
	<-released
	assert.True(t, strings.HasPrefix(notice.buf.String(), "Another timeline session"))
	require.NoError(t, l.Unlock())
}

// noticeWriter records the busy notice and signals once it was printed.
type noticeWriter struct {
	buf     bytes.Buffer
	printed chan struct{}
}

func (w *noticeWriter) Write(p []byte) (int, error) {
	n, err := w.buf.Write(p)
	if w.buf.Len() == n {
		close(w.printed)
	}
	return n, err
}

func TestResolveStoragePath(t *testing.T) {
	def, err := ResolveStoragePath("")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(def, filepath.Join(".config", "timeline", "timeline.sqlite")))

	rel, err := ResolveStoragePath("data/t.sqlite")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(rel))
	assert.True(t, strings.HasSuffix(rel, filepath.Join("data", "t.sqlite")))
}
