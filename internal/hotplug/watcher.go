// Package hotplug watches for a USB audio/SDR front-end reappearing
// after a disconnect, so an unattended ground-station can recover a
// dropped Source without a supervising operator, using the pure-Go
// github.com/jochenvg/go-udev binding.
package hotplug

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/jochenvg/go-udev"
)

// Watcher reports on ch whenever a "sound" subsystem device is added or
// removed, so the caller can decide whether to restart its Source.
type Watcher struct {
	logger *log.Logger
}

// NewWatcher constructs a Watcher. logger may be nil.
func NewWatcher(logger *log.Logger) *Watcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{logger: logger}
}

// Event is a simplified hotplug notification.
type Event struct {
	Action string // "add" or "remove"
	Name   string
}

// Watch blocks, sending sound-subsystem add/remove events to ch until ctx
// is done. It is best-effort: a udev connection failure is logged and
// Watch returns, never panicking the caller.
func (w *Watcher) Watch(ctx context.Context, ch chan<- Event) {
	u := udev.Udev{}
	mon := u.NewMonitorFromNetlink("udev")
	if err := mon.FilterAddMatchSubsystem("sound"); err != nil {
		w.logger.Warn("hotplug watcher unavailable, continuing without it", "err", err)
		return
	}

	devCh, errCh, err := mon.DeviceChan(ctx)
	if err != nil {
		w.logger.Warn("hotplug watcher unavailable, continuing without it", "err", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				w.logger.Warn("hotplug watcher error", "err", err)
			}
		case dev, ok := <-devCh:
			if !ok {
				return
			}
			select {
			case ch <- Event{Action: dev.Action(), Name: dev.Sysname()}:
			case <-ctx.Done():
				return
			}
		}
	}
}
