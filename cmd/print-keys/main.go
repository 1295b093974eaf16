// print-keys prints every key press and release seen on a seat.
//
//	print-keys [-config path] [-seat seat0] [-access direct|logind] [-verbose]
//
// Configuration is read from -config, or from the first config.{toml,json,yaml}
// found in the current directory, $XDG_CONFIG_HOME/inputd or /etc/inputd.
// INPUTD_* environment variables override the file; flags override both.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"inputd/internal/access"
	"inputd/internal/config"
	"inputd/internal/health"
	"inputd/internal/logging"
	"inputd/internal/metrics"
	"inputd/pkg/libinput"
)

var (
	configPath = flag.String("config", "", "path to config file")
	seatFlag   = flag.String("seat", "", "seat to assign (overrides config)")
	accessFlag = flag.String("access", "", "device access back end: direct or logind (overrides config)")
	verbose    = flag.Bool("verbose", false, "enable debug logging")
)

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "print-keys: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	path := *configPath
	if path == "" {
		path = config.FindConfigFile()
	}
	if path == "" {
		path = config.ConfigPath()
	}
	loader := config.NewLoader(path)
	defer loader.Close()

	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()
	logging.SetDefault(logger)
	log := logger.Logger

	if err := loader.Watch(); err != nil {
		log.Warn("config hot reload disabled", "error", err)
	} else {
		loader.OnChange(func(c *config.Config) {
			if *verbose {
				return
			}
			if lvl, err := logging.ParseLevel(c.Logging.Level); err == nil {
				logger.SetLevel(lvl)
				log.Info("log level changed", "level", logging.LevelString(lvl))
			}
		})
		go func() {
			for err := range loader.Errors() {
				log.Warn("config reload", "error", err)
			}
		}()
	}

	mode, err := access.ParseMode(cfg.Access)
	if err != nil {
		return err
	}
	backend, err := access.New(ctx, mode, log.With("component", "access"))
	if err != nil {
		return fmt.Errorf("device access (%s): %w", mode, err)
	}
	defer func() {
		if err := backend.Shutdown(); err != nil {
			log.Warn("device access shutdown", "error", err)
		}
	}()

	m := metrics.GetMetrics()
	p := &printer{out: os.Stdout, log: log, metrics: m, act: &activity{}}
	checker := newChecker(p, m)
	p.ready = func() { checker.SetReady(true) }
	if cfg.Metrics.Enabled {
		srv, err := serve(cfg.Metrics.Addr, m, checker, log)
		if err != nil {
			return err
		}
		defer srv.Shutdown(context.Background())
	}

	opts := []libinput.Option{libinput.WithDiagnostics(log.With("component", "libinput-go"))}
	if cfg.Logging.LibinputLevel != "" {
		prio, err := libinputPriority(cfg.Logging.LibinputLevel)
		if err != nil {
			return err
		}
		opts = append(opts,
			libinput.WithLogger(libinput.SlogLogger(log.With("component", "libinput"))),
			libinput.WithLogPriority(prio))
	}

	li, err := libinput.New(m.InstrumentOpen(backend.Open), m.InstrumentClose(backend.Close), opts...)
	if err != nil {
		return err
	}
	defer li.Close()

	if s, ok := backend.(access.Session); ok && cfg.Stream.SuspendOnInactive {
		s.OnActiveChanged(p.act.set)
		if active, err := s.Active(); err == nil && !active {
			p.act.set(false)
		}
	}

	log.Info("printing keys", "seat", cfg.Seat, "access", mode)
	return p.run(ctx, li, cfg.Seat)
}

func applyFlags(cfg *config.Config) {
	if *seatFlag != "" {
		cfg.Seat = *seatFlag
	}
	if *accessFlag != "" {
		cfg.Access = *accessFlag
	}
	if *verbose {
		cfg.Logging.Level = "debug"
	}
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	lc := logging.DefaultConfig()
	lc.Level = level
	lc.Format = format
	lc.Output = cfg.Logging.Output
	lc.FilePath = cfg.Logging.FilePath
	lc.MaxSize = cfg.Logging.MaxSizeMB
	lc.MaxBackups = cfg.Logging.MaxBackups
	lc.Component = "print-keys"
	return logging.New(lc)
}

func libinputPriority(s string) (libinput.LogPriority, error) {
	for _, p := range []libinput.LogPriority{libinput.LogDebug, libinput.LogInfo, libinput.LogError} {
		if strings.EqualFold(p.String(), s) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown libinput log level %q", s)
}

func newChecker(p *printer, m *metrics.InputMetrics) *health.Checker {
	c := health.NewChecker()
	c.RegisterFunc("stream", true, health.CustomCheck(p.failure))
	c.RegisterFunc("devices", false, health.GaugeCheck("devices_open", 1, m.DevicesOpen.Value))
	c.RegisterFunc("session", false, health.GaugeCheck("session_active", 1, m.SessionActive.Value))
	return c
}

// serve exposes /metrics and the health endpoints on addr.
func serve(addr string, m *metrics.InputMetrics, checker *health.Checker, log *slog.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	handler := metrics.Default().HTTPHandler()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		m.UpdateUptime()
		handler.ServeHTTP(w, r)
	})
	checker.Mount(mux)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", "error", err)
		}
	}()
	log.Info("metrics listening", "addr", ln.Addr().String())
	return srv, nil
}
