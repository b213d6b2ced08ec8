//go:build linux

// Package rt carries small best-effort realtime-scheduling hints for the
// DSP worker goroutines: nothing here is required for correctness, only
// for avoiding latency spikes on the hot path.
package rt

import (
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"
)

// Harden locks the calling process's memory with mlockall(MCL_CURRENT|
// MCL_FUTURE), keeping the DSP goroutines' stacks and heap resident so a
// page fault never stalls a block mid-pipeline. It is always best-effort:
// failure (commonly missing CAP_IPC_LOCK, or an unsupported platform) is
// logged at Warn and never prevents the demodulator from starting.
func Harden(logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}

	if err := mlockall(); err != nil {
		logger.Warn("memory hardening unavailable, continuing without it", "err", err)
		return
	}
	logger.Info("process memory locked (mlockall)")
}

func mlockall() error {
	if err := unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE); err != nil {
		return fmt.Errorf("mlockall: %w", err)
	}
	return nil
}
