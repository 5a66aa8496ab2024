package artifact

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")

	held, err := acquireLock(context.Background(), path)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err = acquireLock(ctx, path)
	require.ErrorIs(t, err, ErrLockTimeout)

	held.release()

	// Released lock is immediately reacquirable.
	again, err := acquireLock(context.Background(), path)
	require.NoError(t, err)
	again.release()
}

func TestLockHandoff(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")

	held, err := acquireLock(context.Background(), path)
	require.NoError(t, err)

	acquired := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		l, err := acquireLock(ctx, path)
		if err == nil {
			l.release()
		}
		acquired <- err
	}()

	time.Sleep(150 * time.Millisecond)
	held.release()

	require.NoError(t, <-acquired)
}
