package main

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"lineking/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaemonStopTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lineking.toml")
	require.NoError(t, os.WriteFile(path, []byte("join_separator = \"+\"\n"), 0o644))
	store, err := config.NewStore(path, "")
	require.NoError(t, err)

	d := NewDaemon(store)
	d.watchConfig()
	require.NotNil(t, d.watcher)

	// The signal handler and the idle monitor can both get here
	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NotPanics(t, d.Stop)
		}()
	}
	wg.Wait()

	assert.NotPanics(t, d.Stop)
	assert.Error(t, d.ctx.Err())
}
