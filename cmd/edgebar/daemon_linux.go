//go:build linux

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1broseidon/edgebar/internal/config"
	"github.com/1broseidon/edgebar/internal/daemon"
	"github.com/1broseidon/edgebar/internal/hotkeys"
	"github.com/1broseidon/edgebar/internal/ipc"
	"github.com/1broseidon/edgebar/internal/panel"
	"github.com/1broseidon/edgebar/internal/platform"
	"github.com/1broseidon/edgebar/internal/runtimepath"
	"github.com/1broseidon/edgebar/internal/x11"
)

func runDaemon(parent context.Context) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := res.Config

	interval, err := reconcileInterval()
	if err != nil {
		return err
	}

	// A second daemon would fight the first over struts and the host panel.
	if err := ipc.NewClient().Ping(); err == nil {
		return fmt.Errorf("daemon already running")
	}
	pidPath, err := runtimepath.PIDPath()
	if err != nil {
		return err
	}

	conn, err := x11.NewConnection()
	if err != nil {
		return fmt.Errorf("connect to display: %w", err)
	}
	defer conn.Close()
	conn.Timeout = cfg.HostPanel.Timeout

	shell := platform.NewX11Shell(conn, cfg.HostPanel.Class, logger)
	if err := shell.Start(); err != nil {
		return fmt.Errorf("watch display events: %w", err)
	}

	level := logLevel
	if globalOpts.verbose {
		// --verbose pins debug regardless of log.level.
		level = nil
	}

	d, err := daemon.New(daemon.Options{
		Shell:             shell,
		Factory:           panel.NewDockFactory(conn, logger),
		Config:            cfg,
		ConfigPath:        path,
		WatchConfig:       !daemonOpts.noWatch,
		IPC:               !daemonOpts.noIPC,
		PIDFile:           pidPath,
		WatchSleep:        !daemonOpts.noSleep,
		ReconcileInterval: interval,
		OnConfig: func(c *config.Config) {
			conn.Timeout = c.HostPanel.Timeout
		},
		Level:   level,
		Version: version,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	keys := hotkeys.NewHandler(conn, d, logger)
	if err := keys.Bind(cfg.Hotkeys); err != nil {
		logger.Warn("failed to bind hotkeys", "error", err)
	}
	defer keys.Unbind()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		conn.EventLoop()
	}()

	logger.Info("edgebar daemon started", "version", version, "config", path, "edge", cfg.Edge, "mode", cfg.Mode)
	runErr := d.Run(ctx)

	conn.Quit()
	select {
	case <-loopDone:
	case <-time.After(time.Second):
		logger.Debug("x11 event loop did not exit in time")
	}

	if runErr != nil {
		return runErr
	}
	logger.Info("edgebar daemon stopped")
	return nil
}
