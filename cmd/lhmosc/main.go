package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/lhmosc/internal/config"
	"codeberg.org/mutker/lhmosc/internal/errors"
	"codeberg.org/mutker/lhmosc/internal/logger"
	"codeberg.org/mutker/lhmosc/internal/metrics"
	"codeberg.org/mutker/lhmosc/internal/osc"
	"codeberg.org/mutker/lhmosc/internal/pid"
	"codeberg.org/mutker/lhmosc/internal/poll"
	"codeberg.org/mutker/lhmosc/internal/source"
	"codeberg.org/mutker/lhmosc/internal/status"
	"github.com/spf13/pflag"
)

const shutdownTimeout = 2 * time.Second

type app struct {
	cfg      *config.Config
	emitter  *osc.Emitter
	recorder metrics.Recorder
	cycle    *poll.Cycle
	status   *status.Server
	pidFile  string
	reloads  chan *config.Config
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	logger.Debug().Msg("Config loaded")

	if cfg.WriteConfig {
		writeConfig(cfg)
		return
	}

	if err := pid.Write(cfg.PIDFile); err != nil {
		logger.Fatal().Err(err).Str("pid_file", cfg.PIDFile).Msg("failed to write pid file")
	}

	a, err := newApp(cfg)
	if err != nil {
		_ = pid.Remove(cfg.PIDFile)
		logger.Fatal().Err(err).Msg("failed to initialize")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	a.serveStatus(cancel)
	a.watchConfig(ctx)

	if err := a.loop(ctx); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
	}
	a.cleanup()
}

func writeConfig(cfg *config.Config) {
	path := cfg.Path()
	if path == "" {
		path = config.DefaultConfigName + "." + config.DefaultConfigType
	}

	if err := cfg.Save(path); err != nil {
		logger.Fatal().Err(err).Str("file", path).Msg("failed to write config")
	}
	logger.Info().Str("file", path).Msg("Configuration written")
}

func newApp(cfg *config.Config) (*app, error) {
	errFactory := errors.New()

	emitter, err := osc.New(cfg.Target(), logger.Default())
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}

	recorder, err := metrics.NewService(cfg.Metrics, logger.Default())
	if err != nil {
		_ = emitter.Close()
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}

	feed := source.New(cfg.JSONPort, cfg.FetchTimeout)

	a := &app{
		cfg:      cfg,
		emitter:  emitter,
		recorder: recorder,
		pidFile:  cfg.PIDFile,
		cycle: poll.New(
			feed,
			emitter,
			recorder,
			cfg.PollSettings(),
			logger.Default(),
		),
		reloads: make(chan *config.Config, 1),
	}

	if cfg.StatusAddr != "" {
		a.status = status.New(logger.Default())
		if cfg.Metrics.Enabled {
			a.status.SetHistory(recorder)
		}
	}

	logger.Info().
		Str("osc_target", cfg.Target().String()).
		Str("feed", feed.URL()).
		Bool("history", cfg.Metrics.Enabled).
		Msg("Bridge started")

	return a, nil
}

func (a *app) serveStatus(cancel context.CancelFunc) {
	if a.status == nil {
		return
	}

	go func() {
		if err := a.status.ListenAndServe(a.cfg.StatusAddr); err != nil {
			logger.Error().Err(err).Str("addr", a.cfg.StatusAddr).Msg("status server failed")
			cancel()
		}
	}()
}

func (a *app) watchConfig(ctx context.Context) {
	if a.cfg.Path() == "" {
		return
	}

	err := a.cfg.Watch(ctx, func(cfg *config.Config) {
		// Keep only the newest pending reload.
		select {
		case <-a.reloads:
		default:
		}
		a.reloads <- cfg
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Configuration reload disabled")
	}
}

func (a *app) loop(ctx context.Context) error {
	if a.cfg.Interval <= 0 {
		return errors.New().WithData(errors.ErrInvalidInterval, a.cfg.Interval.String())
	}

	ticker := time.NewTicker(a.cfg.Interval)
	defer ticker.Stop()

	st := poll.NewState(time.Now(), a.cycle.RetryInterval())
	a.tick(ctx, &st, time.Now())

	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg := <-a.reloads:
			a.apply(cfg, ticker)
		case now := <-ticker.C:
			a.tick(ctx, &st, now)
		}
	}
}

func (a *app) tick(ctx context.Context, st *poll.State, now time.Time) {
	outcome := a.cycle.Tick(ctx, st, now)

	if a.cfg.Verbose && outcome == poll.Skipped {
		logger.Info().
			Dur("retry_in", st.RetryIn(now, a.cycle.RetryInterval())).
			Msg("Waiting for sensor feed")
	}

	if a.status != nil {
		a.status.Publish(status.NewSnapshot(*st, now, a.cycle.RetryInterval()))
	}
}

// apply swaps in a reloaded configuration between ticks. The pid file,
// history database and status address are fixed for the process lifetime.
func (a *app) apply(cfg *config.Config, ticker *time.Ticker) {
	a.cycle.SetSettings(cfg.PollSettings())

	if cfg.JSONPort != a.cfg.JSONPort || cfg.FetchTimeout != a.cfg.FetchTimeout {
		a.cycle.SetSource(source.New(cfg.JSONPort, cfg.FetchTimeout))
	}

	if cfg.Target() != a.emitter.Target() {
		if err := a.emitter.SetTarget(cfg.Target()); err != nil {
			logger.Warn().Err(err).Str("osc_target", cfg.Target().String()).Msg("Keeping previous OSC target")
		}
	}

	if cfg.Interval != a.cfg.Interval {
		ticker.Reset(cfg.Interval)
	}

	a.cfg = cfg
	logger.Debug().
		Str("osc_target", a.emitter.Target().String()).
		Int("json_port", cfg.JSONPort).
		Dur("interval", cfg.Interval).
		Msg("Configuration applied")
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func (a *app) cleanup() {
	if a.status != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.status.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to stop status server")
		}
		cancel()
	}
	if err := a.recorder.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to close history")
	}
	if err := a.emitter.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to close OSC socket")
	}
	if err := pid.Remove(a.pidFile); err != nil {
		logger.Error().Err(err).Msg("failed to remove pid file")
	}
	logger.Info().Msg("Exiting...")
}
