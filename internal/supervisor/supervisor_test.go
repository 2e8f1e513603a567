package supervisor

import (
	"context"
	"os/exec"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fetscr/fetscr-backend/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "console"})
	require.NoError(t, err)
	return log
}

func TestSupervisor_RespawnsCrashedWorker(t *testing.T) {
	var spawns atomic.Int32
	spawn := func() *exec.Cmd {
		spawns.Add(1)
		return exec.Command("sh", "-c", "exit 1")
	}

	s := New(Config{
		Workers:              1,
		InitialBackoff:       time.Millisecond,
		MaxBackoff:           5 * time.Millisecond,
		RestartWindow:        time.Minute,
		MaxRestartsPerWindow: 100,
	}, spawn, testLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	// The crashing worker must have been respawned, not just started once.
	assert.GreaterOrEqual(t, spawns.Load(), int32(3))
}

func TestSupervisor_StopsAllSlotsOnCancel(t *testing.T) {
	var spawns atomic.Int32
	spawn := func() *exec.Cmd {
		spawns.Add(1)
		return exec.Command("sleep", "60")
	}

	s := New(Config{
		Workers:        3,
		InitialBackoff: time.Millisecond,
	}, spawn, testLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// Give the pool a moment to spawn, then ask it to shut down.
	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not stop after cancellation")
	}

	// One long-lived worker per slot, no respawns.
	assert.EqualValues(t, 3, spawns.Load())
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := (&Config{}).withDefaults()
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, 500*time.Millisecond, cfg.InitialBackoff)
	assert.Equal(t, 30*time.Second, cfg.MaxBackoff)
	assert.Equal(t, time.Minute, cfg.RestartWindow)
	assert.Equal(t, 5, cfg.MaxRestartsPerWindow)

	cfg = (&Config{Workers: 4, MaxBackoff: time.Second}).withDefaults()
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, time.Second, cfg.MaxBackoff)
}
