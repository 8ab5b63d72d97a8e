package hclfs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deescovery/deescovery/pkg/module/hclfs"
)

func TestWatchReportsModuleChanges(t *testing.T) {
	t.Parallel()

	root := sampleTree(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	done := make(chan error, 1)

	go func() {
		done <- hclfs.Watch(ctx, nil, []string{root}, 20*time.Millisecond, func(context.Context) error {
			select {
			case changed <- struct{}{}:
			default:
			}

			return nil
		})
	}()

	target := filepath.Join(root, "sample", "users", "views.hcl")
	deadline := time.After(10 * time.Second)

	// the watcher may not be registered yet, so keep touching the file
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

wait:
	for {
		select {
		case <-changed:
			break wait
		case <-ticker.C:
			require.NoError(t, os.WriteFile(target, []byte(`x = 1`), 0o600))
		case <-deadline:
			t.Fatal("no change reported")
		}
	}

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchStopsOnCallbackError(t *testing.T) {
	t.Parallel()

	root := sampleTree(t)
	boom := assert.AnError

	done := make(chan error, 1)

	go func() {
		done <- hclfs.Watch(context.Background(), nil, []string{root}, 10*time.Millisecond, func(context.Context) error {
			return boom
		})
	}()

	target := filepath.Join(root, "sample", "services.hcl")
	deadline := time.After(10 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			require.ErrorIs(t, err, boom)
			return
		case <-ticker.C:
			require.NoError(t, os.WriteFile(target, []byte(`x = 2`), 0o600))
		case <-deadline:
			t.Fatal("watch did not stop")
		}
	}
}
