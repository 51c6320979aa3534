// Package main is the entry point for the toastd toast daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/toastkit/internal/audio"
	"github.com/jmylchreest/toastkit/internal/config"
	"github.com/jmylchreest/toastkit/internal/daemon"
	"github.com/jmylchreest/toastkit/internal/dbus"
	"github.com/jmylchreest/toastkit/internal/gtkhost"
	"github.com/jmylchreest/toastkit/internal/obstruction"
	"github.com/jmylchreest/toastkit/internal/theme"
	"github.com/jmylchreest/toastkit/internal/toast"
)

const (
	appID   = "io.github.jmylchreest.toastd"
	appName = "toastd"
)

var (
	// Build-time variables
	version = "dev"
)

type options struct {
	configPath string
	mirror     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to the daemon config file (default: ~/.config/toastkit/toastd.toml)")
	flag.BoolVar(&opts.mirror, "mirror", false, "Also show desktop notifications sent by other applications as toasts")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(appName, "version", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if opts.configPath == "" {
		opts.configPath = config.DaemonConfigPath()
	}

	os.Exit(run(opts, logger))
}

func run(opts options, logger *slog.Logger) int {
	logger.Info("starting toastd", "version", version, "config", opts.configPath)

	cfg, err := config.LoadDaemonConfigFrom(opts.configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}

	app := adw.NewApplication(appID, 0)

	// Shared state between the GTK main loop and signal handlers
	var (
		center        *toast.Center
		server        *dbus.ToastServer
		monitor       *dbus.Monitor
		themeLoader   *theme.Loader
		audioManager  *audio.Manager
		configWatcher *daemon.ConfigWatcher
		running       atomic.Bool
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := func() {
		if configWatcher != nil {
			configWatcher.Stop()
		}
		if themeLoader != nil {
			themeLoader.StopHotReload()
		}
		if monitor != nil {
			if err := monitor.Stop(); err != nil {
				logger.Warn("error stopping monitor", "error", err)
			}
		}
		if center != nil {
			center.Close()
		}
		if audioManager != nil {
			audioManager.Stop()
		}
		if server != nil {
			_ = server.Stop()
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()

		glib.IdleAdd(func() {
			if running.Load() {
				app.Quit()
			}
		})
	}()

	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		themeLoader = theme.NewLoader(theme.ThemesDir(), logger)
		if err := themeLoader.LoadTheme(cfg.Display.Theme); err != nil {
			logger.Warn("failed to load theme, using default", "error", err)
		}
		themeLoader.ApplyColorScheme(config.ColorScheme(cfg.Display.ColorScheme))
		themeLoader.Apply(nil)

		host := gtkhost.New(&app.Application, themeLoader, cfg.Display, logger)
		tracker := obstruction.NewTracker(logger)
		center = toast.NewCenter(host, tracker,
			toast.WithLogger(logger),
			toast.WithDefaultAppearance(cfg.Appearance.Model()),
			toast.WithAccessibility(cfg.Accessibility.Announce),
		)

		d := daemon.New(center, cfg, logger)
		host.SetAnnouncer(d.Announce)
		themeLoader.SetErrorCallback(d.Notifier().NotifyThemeError)
		themeLoader.StartHotReload(ctx)

		currentTheme := cfg.Display.Theme
		d.OnConfigApplied(func(newConfig *config.DaemonConfig) {
			glib.IdleAdd(func() {
				host.SetDisplayConfig(newConfig.Display)
				themeLoader.ApplyColorScheme(config.ColorScheme(newConfig.Display.ColorScheme))

				if newConfig.Display.Theme != currentTheme {
					currentTheme = newConfig.Display.Theme
					if err := themeLoader.LoadTheme(currentTheme); err != nil {
						d.Notifier().NotifyThemeError(err)
					}
					themeLoader.StartHotReload(ctx)
				}
			})
		})

		audioManager = audio.NewManager(cfg, logger)
		if err := audioManager.Start(ctx); err != nil {
			logger.Warn("failed to start audio manager", "error", err)
		}
		d.SetSoundPlayer(audioManager)

		server = dbus.NewToastServer(d, logger)
		if err := server.Start(); err != nil {
			logger.Error("failed to start D-Bus server", "error", err)
			app.Quit()
			return
		}
		d.SetSignalEmitter(server)

		if cfg.Obstruction.Enabled {
			watchKeyboard(ctx, server, tracker, cfg.Obstruction.KeyboardHeight, logger)
		}

		if opts.mirror {
			monitor = dbus.NewMonitor(logger)
			monitor.SetNotifyHandler(d.Mirror)
			if err := monitor.Start(); err != nil {
				logger.Warn("failed to start notification monitor", "error", err)
				monitor = nil
			}
		}

		configWatcher = daemon.NewConfigWatcher(opts.configPath, logger)
		d.AttachConfigWatcher(configWatcher)
		if err := configWatcher.Start(ctx, cfg); err != nil {
			logger.Warn("failed to start config watcher", "error", err)
		}

		activateWhenDisplayed(center, logger)
		d.Notifier().NotifyStartup()

		logger.Info("toastd ready", "dbus_interface", dbus.ToasterInterface, "mirror", opts.mirror)

		// Keep the application alive without showing anything
		keepAliveWindow := gtk.NewWindow()
		keepAliveWindow.SetApplication(&app.Application)
		keepAliveWindow.SetDefaultSize(1, 1)
		keepAliveWindow.SetDecorated(false)
		keepAliveWindow.SetVisible(false)
	})

	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		stop()
		running.Store(false)
	})

	// GApplication gets no arguments; ours were parsed by flag.
	status := app.Run([]string{os.Args[0]})
	if status != 0 {
		logger.Error("application exited with error", "status", status)
		return status
	}

	logger.Info("toastd stopped")
	return 0
}

// watchKeyboard feeds on-screen keyboard visibility into tracker.
func watchKeyboard(ctx context.Context, server *dbus.ToastServer, tracker *obstruction.Tracker, height float64, logger *slog.Logger) {
	events, err := dbus.NewOSKWatcher(server.Connection(), height, logger).Watch(ctx)
	if err != nil {
		logger.Warn("on-screen keyboard not available, obstruction avoidance disabled", "error", err)
		return
	}
	go func() {
		if err := tracker.Run(ctx, events); err != nil && ctx.Err() == nil {
			logger.Warn("obstruction tracker stopped", "error", err)
		}
	}()
}

// activateWhenDisplayed opens the readiness gate now if a monitor is
// connected, otherwise as soon as one appears.
func activateWhenDisplayed(center *toast.Center, logger *slog.Logger) {
	if center.Activate() {
		return
	}

	display := gdk.DisplayGetDefault()
	if display == nil {
		logger.Warn("no display available, toasts stay queued")
		return
	}

	logger.Info("waiting for a monitor before showing toasts")
	display.Monitors().ConnectItemsChanged(func(position, removed, added uint) {
		if added > 0 {
			center.Activate()
		}
	})
}
