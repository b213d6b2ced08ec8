// Command goesrecv is a thin CLI harness around the internal/pipeline
// demodulator: it loads a config file, opens a Source, wires telemetry,
// and runs until interrupted. It is lab/bench tooling around the
// demodulator core, not part of the core itself.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/term"
	"github.com/spf13/pflag"

	"github.com/jjstecchino/goesrecv/internal/config"
	"github.com/jjstecchino/goesrecv/internal/hotplug"
	"github.com/jjstecchino/goesrecv/internal/pipeline"
	"github.com/jjstecchino/goesrecv/internal/rigtrim"
	"github.com/jjstecchino/goesrecv/internal/rt"
	"github.com/jjstecchino/goesrecv/internal/source"
	"github.com/jjstecchino/goesrecv/internal/telemetry"
)

func main() {
	var (
		configFile   = pflag.StringP("config-file", "c", "", "YAML configuration file. If empty, uses built-in LRIT defaults.")
		captureFile  = pflag.StringP("capture-file", "f", "", "Raw interleaved-float32 I/Q capture file to replay instead of a live source.")
		soundcard    = pflag.BoolP("soundcard", "s", false, "Read the I/Q stream from the default sound input device instead of a capture file.")
		monoHilbert  = pflag.BoolP("mono", "m", false, "Soundcard input is a single channel; synthesize I/Q via Hilbert transform.")
		statsTTY     = pflag.Bool("stats-tty", false, "Render a live gain/frequency/omega HUD to the controlling terminal (/dev/tty).")
		advertise    = pflag.BoolP("advertise", "a", false, "Advertise the stats endpoint on the LAN via mDNS.")
		instanceName = pflag.String("mdns-name", "goesrecv", "Instance name used for mDNS advertisement.")
		harden       = pflag.Bool("harden", false, "Best-effort mlockall the process's memory on startup.")
		watchHotplug = pflag.Bool("watch-hotplug", false, "Restart the pipeline on a fresh soundcard source when udev reports a sound device added (soundcard source only).")
		gpioChip     = pflag.String("lock-gpio-chip", "", "gpiochip device (e.g. /dev/gpiochip0) driving a lock indicator line. Empty disables it.")
		gpioLine     = pflag.Int("lock-gpio-line", 0, "Line offset on --lock-gpio-chip for the lock indicator.")
		rigModel     = pflag.Int("rig-model", 0, "Hamlib rig model number for LO auto-trim. 0 disables it.")
		rigPort      = pflag.String("rig-port", "", "Rig control port (e.g. /dev/ttyUSB0 or host:port) for LO auto-trim.")
		help         = pflag.BoolP("help", "h", false, "Display help text.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "goesrecv - a GOES LRIT/HRIT software demodulator.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: goesrecv [options]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	logger := log.New(os.Stderr)

	cfg := config.Default(config.LRIT)
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			logger.Error("failed to load configuration", "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if *harden {
		rt.Harden(logger)
	}

	src, closeSrc, err := openSource(logger, *captureFile, *soundcard, *monoHilbert, cfg)
	if err != nil {
		logger.Error("failed to open source", "err", err)
		os.Exit(1)
	}
	if closeSrc != nil {
		defer closeSrc()
	}

	stats := telemetry.NewStatsBroadcaster(logger)

	var hud *statsHUD
	if *statsTTY {
		h, err := newStatsHUD()
		if err != nil {
			logger.Warn("stats HUD unavailable, continuing without it", "err", err)
		} else {
			hud = h
			defer hud.close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *advertise {
		teardown, err := stats.Advertise(ctx, *instanceName, 0)
		if err != nil {
			logger.Warn("mDNS advertisement unavailable, continuing without it", "err", err)
		} else {
			defer teardown()
		}
	}

	if hud != nil {
		hudCh := stats.Subscribe(4)
		go hud.run(ctx, hudCh)
	}

	var subscribers []pipeline.StatsPublisher
	if *gpioChip != "" {
		symbolRate, err := cfg.SymbolRate()
		if err != nil {
			logger.Error("failed to resolve symbol rate", "err", err)
			os.Exit(1)
		}
		omegaCenter := cfg.SampleRate / (symbolRate * float32(cfg.Decimation))
		ind, err := telemetry.NewLockIndicator(logger, *gpioChip, *gpioLine, cfg.Costas.MaxDeviation*cfg.SampleRate/6.283, omegaCenter, 0.01, 2*time.Second)
		if err != nil {
			logger.Warn("lock indicator unavailable, continuing without it", "err", err)
		} else {
			defer ind.Close()
			subscribers = append(subscribers, ind)
		}
	}
	if *rigModel != 0 {
		rig, closeRig, err := rigtrim.OpenHamlibRig(*rigModel, *rigPort)
		if err != nil {
			logger.Warn("rig trim unavailable, continuing without it", "err", err)
		} else {
			defer closeRig()
			subscribers = append(subscribers, rigtrim.NewTrimmer(logger, rig, 50, 30*time.Second, 200))
		}
	}
	for _, sub := range subscribers {
		ch := stats.Subscribe(4)
		go func(sub pipeline.StatsPublisher, ch <-chan pipeline.StatsRecord) {
			for {
				select {
				case <-ctx.Done():
					return
				case r := <-ch:
					sub.Publish(r)
				}
			}
		}(sub, ch)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	var restart <-chan hotplug.Event
	if *watchHotplug && *soundcard {
		w := hotplug.NewWatcher(logger)
		events := make(chan hotplug.Event, 1)
		go w.Watch(ctx, events)
		restart = events
	}

	current := src
	currentClose := closeSrc
	for {
		d := pipeline.New(logger)
		if err := d.Initialize(cfg, current, pipeline.Publishers{Stats: stats}); err != nil {
			logger.Error("failed to initialize demodulator", "err", err)
			os.Exit(1)
		}
		d.Start()
		logger.Info("demodulator running", "type", cfg.Type)

		drainDone := make(chan struct{})
		go func() {
			defer close(drainDone)
			for {
				buf := d.GetSoftBitsQueue().PopForRead()
				if buf == nil {
					return
				}
				d.GetSoftBitsQueue().PushRead(buf)
			}
		}()

		var ev hotplug.Event
		for ev.Action != "add" {
			select {
			case <-sig:
				d.Stop()
				<-drainDone
				if currentClose != nil {
					currentClose()
				}
				logger.Info("shutting down")
				return
			case ev = <-restart:
			}
		}

		logger.Info("sound device reappeared, restarting pipeline", "device", ev.Name)
		d.Stop()
		<-drainDone
		if currentClose != nil {
			currentClose()
		}

		fresh, freshClose, err := openSource(logger, "", true, *monoHilbert, cfg)
		if err != nil {
			logger.Warn("could not reopen soundcard source after hotplug event", "err", err)
			return
		}
		current, currentClose = fresh, freshClose
	}
}

// openSource picks a pipeline.Source per the CLI flags: a file replay
// source when --capture-file is given, a soundcard source when
// --soundcard is given, and an error when neither is given.
func openSource(logger *log.Logger, captureFile string, soundcard_, mono bool, cfg config.Config) (pipeline.Source, func(), error) {
	switch {
	case captureFile != "":
		f, err := os.Open(captureFile)
		if err != nil {
			return nil, nil, err
		}
		return source.NewFileSource(logger, f, cfg.Block.Size), func() { f.Close() }, nil

	case soundcard_:
		channels := 2
		if mono {
			channels = 1
		}
		sc, err := source.OpenSoundcardSource(logger, channels, float64(cfg.SampleRate), cfg.Block.Size)
		if err != nil {
			return nil, nil, err
		}
		return sc, nil, nil

	default:
		return nil, nil, fmt.Errorf("no source specified: pass --capture-file or --soundcard")
	}
}

// statsHUD renders the most recent StatsRecord periodically to the
// controlling terminal, opened raw via github.com/pkg/term exactly as
// serial_port_open opens a TNC's serial device — here against "/dev/tty"
// instead of a radio's serial port, so a bench operator can watch lock
// state without a GUI or any screen-scraping-unfriendly cursor control.
type statsHUD struct {
	t *term.Term
}

func newStatsHUD() (*statsHUD, error) {
	t, err := term.Open("/dev/tty", term.RawMode)
	if err != nil {
		return nil, err
	}
	return &statsHUD{t: t}, nil
}

func (h *statsHUD) close() error {
	if err := h.t.Restore(); err != nil {
		return err
	}
	return h.t.Close()
}

func (h *statsHUD) run(ctx context.Context, ch <-chan pipeline.StatsRecord) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var last pipeline.StatsRecord
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-ch:
			last = r
		case <-ticker.C:
			fmt.Fprintf(h.t, "gain=%.4f freq=%.1fHz omega=%.4f\r\n", last.Gain, last.CostasFrequencyHz, last.Omega)
		}
	}
}
