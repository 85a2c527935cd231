package babylon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatch(t *testing.T, dirs []string) <-chan string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan string, 16)
	ready := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dirs, func(p string) { changes <- p }, ready)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watch did not stop")
		}
	})

	select {
	case <-ready:
	case err := <-done:
		t.Fatalf("watch exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch not ready")
	}
	return changes
}

func TestWatch_ReportsMessageFileChanges(t *testing.T) {
	dir := t.TempDir()
	changes := startWatch(t, []string{dir})

	target := filepath.Join(dir, "shop.properties")
	require.NoError(t, os.WriteFile(target, []byte("a=A\n"), 0644))

	select {
	case got := <-changes:
		assert.Equal(t, target, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatch_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	changes := startWatch(t, []string{dir})

	target := filepath.Join(dir, "shop.yaml")
	for i := range 5 {
		require.NoError(t, os.WriteFile(target, []byte{byte('a' + i)}, 0644))
	}

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
	select {
	case extra := <-changes:
		t.Fatalf("burst reported twice: %s", extra)
	case <-time.After(3 * watchDebounce):
	}
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	changes := startWatch(t, []string{dir})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	select {
	case got := <-changes:
		t.Fatalf("unexpected change: %s", got)
	case <-time.After(3 * watchDebounce):
	}
}

func TestWatch_MissingDir(t *testing.T) {
	err := Watch(context.Background(), []string{filepath.Join(t.TempDir(), "nope")}, func(string) {}, nil)

	assert.ErrorContains(t, err, "watch")
}
