package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
	c "lautenbacher.net/ledsentry/config"
	"lautenbacher.net/ledsentry/hardware"
	"lautenbacher.net/ledsentry/logging"
)

type options struct {
	configFile string
	realHW     bool
	check      bool
	show       bool
	header     string
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("ledsentry", flag.ContinueOnError)
	fs.StringVarP(&opts.configFile, "config", "c", c.CONFILE, "Config file, LEDSENTRY_* environment variables override it")
	fs.BoolVar(&opts.realHW, "real", false, "Set to true if program runs on the real hardware")
	fs.BoolVar(&opts.check, "check", false, "Validate the configuration and exit")
	fs.BoolVar(&opts.show, "show", false, "Print the effective configuration (secret redacted) and exit")
	fs.StringVar(&opts.header, "header", "", "Render the ESP32 config header to this file (- for stdout) and exit")
	err := fs.Parse(args)
	return opts, err
}

func main() {
	logging.Bootstrap()

	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		slog.Error("ledsentry failed", "error", err)
		logging.Close()
		if errors.Is(err, c.ErrInvalidConfiguration) {
			os.Exit(2)
		}
		os.Exit(1)
	}
	logging.Close()
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	conf, err := c.ReadConfig(opts.configFile)
	if err != nil {
		return err
	}
	if err := logging.Init(conf.Logging, os.Stderr); err != nil {
		return err
	}
	store := c.NewStore(conf)

	switch {
	case opts.check:
		fmt.Fprintf(stdout, "%s: configuration valid (target %s, endpoint %s)\n",
			opts.configFile, conf.Target, conf.Endpoint())
		return nil
	case opts.show:
		return writeRedactedYAML(stdout, conf)
	case opts.header != "":
		return writeHeaderFile(opts.header, store.Current(), stdout)
	}
	return serve(ctx, opts, store)
}

func writeRedactedYAML(w io.Writer, conf *c.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(conf.Redacted()); err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}
	return enc.Close()
}

func writeHeaderFile(path string, snap *c.Snapshot, stdout io.Writer) error {
	if path == "-" {
		return c.WriteHeader(stdout, snap)
	}
	// 0600: the header carries the network secret in clear text.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create header file: %w", err)
	}
	if err := c.WriteHeader(f, snap); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write header file: %w", err)
	}
	slog.Info("Wrote ESP32 header", "file", path, "revision", snap.Revision)
	return nil
}

// serve keeps the configuration live: it claims the indicator pins, reloads
// the file on change and optionally exposes the read-only HTTP view, until
// ctx is cancelled.
func serve(ctx context.Context, opts options, store *c.Store) error {
	conf := store.Config()
	slog.Info("Starting ledsentry",
		"config", opts.configFile,
		"target", conf.Target,
		"endpoint", conf.Endpoint().String(),
		"request_timeout", conf.RequestTimeout(),
		"poll_interval", conf.PollInterval(),
		"revision", store.Current().Revision)

	indicators, err := hardware.Claim(conf.Target, conf.Pins(), opts.realHW)
	if err != nil {
		return err
	}
	defer indicators.Release()

	running := conf

	if watcher, err := c.NewWatcher(opts.configFile, store, c.DefaultDebounce); err != nil {
		slog.Warn("Config reload disabled", "error", err)
	} else {
		go watcher.Run(ctx)
	}

	var srv *http.Server
	if conf.Web.Listen != "" {
		srv = &http.Server{
			Addr:              conf.Web.Listen,
			Handler:           c.ConfigHandler(store),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("Serving config view", "listen", conf.Web.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Config view stopped", "error", err)
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("Shutdown requested")
			if srv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					slog.Warn("Config view shutdown", "error", err)
				}
			}
			return nil
		case <-store.Changed():
			if stale := restartRequired(running, store.Config()); len(stale) > 0 {
				slog.Warn("Reloaded settings take effect only after a restart", "settings", stale)
			}
		}
	}
}

// restartRequired lists the settings of next that serve applied once at
// startup and cannot pick up from a reload.
func restartRequired(running, next *c.Config) []string {
	var stale []string
	if running.Target != next.Target {
		stale = append(stale, c.KeyTarget)
	}
	if running.Pins() != next.Pins() {
		stale = append(stale, "indicator pins")
	}
	if running.Logging != next.Logging {
		stale = append(stale, "Logging")
	}
	if running.Web != next.Web {
		stale = append(stale, "Web.Listen")
	}
	return stale
}
