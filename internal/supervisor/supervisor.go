package supervisor

import (
	"context"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/fetscr/fetscr-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

// Config tunes the restart policy of the worker pool.
type Config struct {
	// Workers is the pool size.
	Workers int

	// InitialBackoff is the delay before the first respawn of a worker;
	// it doubles on every crash up to MaxBackoff and resets once a
	// worker survives RestartWindow.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// RestartWindow and MaxRestartsPerWindow form the crash-loop guard:
	// more than MaxRestartsPerWindow respawns of one slot inside
	// RestartWindow pins the backoff at MaxBackoff and logs loudly,
	// so a persistently dying worker cannot hide behind fast restarts.
	RestartWindow        time.Duration
	MaxRestartsPerWindow int
}

func (c *Config) withDefaults() Config {
	cfg := *c
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	if cfg.RestartWindow <= 0 {
		cfg.RestartWindow = time.Minute
	}
	if cfg.MaxRestartsPerWindow <= 0 {
		cfg.MaxRestartsPerWindow = 5
	}
	return cfg
}

// SpawnFunc builds the command for one worker process. It is called
// again for every respawn.
type SpawnFunc func() *exec.Cmd

// Supervisor owns a fixed-size pool of worker processes and respawns
// any that terminate while the supervisor is still running.
type Supervisor struct {
	config Config
	spawn  SpawnFunc
	logger *logger.Logger
}

func New(config Config, spawn SpawnFunc, log *logger.Logger) *Supervisor {
	return &Supervisor{
		config: config.withDefaults(),
		spawn:  spawn,
		logger: log,
	}
}

// Run starts the pool and blocks until ctx is cancelled. On
// cancellation every worker receives SIGTERM and Run waits for all of
// them to exit.
func (s *Supervisor) Run(ctx context.Context) {
	s.logger.Info("starting worker pool", zap.Int("workers", s.config.Workers))

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			s.superviseSlot(ctx, slot)
		}(i)
	}

	wg.Wait()
	s.logger.Info("worker pool stopped")
}

// superviseSlot keeps exactly one worker alive in the given pool slot.
func (s *Supervisor) superviseSlot(ctx context.Context, slot int) {
	backoff := s.config.InitialBackoff
	var restarts []time.Time

	for {
		if ctx.Err() != nil {
			return
		}

		started := time.Now()
		exitErr := s.runWorker(ctx, slot)
		lifetime := time.Since(started)

		if ctx.Err() != nil {
			return
		}

		s.logger.Warn("worker terminated",
			zap.Int("slot", slot),
			zap.Duration("lifetime", lifetime),
			zap.Error(exitErr))

		// A worker that ran for a full window earns a fresh backoff.
		if lifetime >= s.config.RestartWindow {
			backoff = s.config.InitialBackoff
			restarts = restarts[:0]
		}

		now := time.Now()
		restarts = append(restarts, now)
		restarts = pruneBefore(restarts, now.Add(-s.config.RestartWindow))

		wait := backoff
		if len(restarts) > s.config.MaxRestartsPerWindow {
			wait = s.config.MaxBackoff
			s.logger.Error("worker crash loop suspected, holding restarts at max backoff",
				zap.Int("slot", slot),
				zap.Int("restarts_in_window", len(restarts)),
				zap.Duration("backoff", wait))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		backoff *= 2
		if backoff > s.config.MaxBackoff {
			backoff = s.config.MaxBackoff
		}
	}
}

// runWorker spawns one worker process and waits for it to exit,
// forwarding cancellation as SIGTERM.
func (s *Supervisor) runWorker(ctx context.Context, slot int) error {
	cmd := s.spawn()

	if err := cmd.Start(); err != nil {
		return err
	}

	s.logger.Info("worker started",
		zap.Int("slot", slot),
		zap.Int("pid", cmd.Process.Pid))

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		_ = cmd.Process.Signal(syscall.SIGTERM)
		<-done
		return ctx.Err()
	}
}

func pruneBefore(times []time.Time, cutoff time.Time) []time.Time {
	kept := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
