//go:build !linux

package rt

import "github.com/charmbracelet/log"

// Harden is a no-op outside Linux: mlockall has no portable equivalent,
// and the DSP pipeline runs correctly without it.
func Harden(logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}
	logger.Warn("memory hardening unavailable on this platform, continuing without it")
}
