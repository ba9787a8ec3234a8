package daemon

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	login1Interface = "org.freedesktop.login1.Manager"
	prepareForSleep = "PrepareForSleep"
)

// SleepWatcher reports resume from suspend, as announced by logind's
// PrepareForSleep(false) signal on the system bus.
type SleepWatcher struct {
	onResume func()
	logger   *slog.Logger
}

func NewSleepWatcher(onResume func(), logger *slog.Logger) *SleepWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &SleepWatcher{onResume: onResume, logger: logger}
}

// Run subscribes to logind and blocks until ctx is done.
func (w *SleepWatcher) Run(ctx context.Context) error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer conn.Close()

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(login1Interface),
		dbus.WithMatchMember(prepareForSleep),
	); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", prepareForSleep, err)
	}

	signals := make(chan *dbus.Signal, 8)
	conn.Signal(signals)
	defer conn.RemoveSignal(signals)

	w.logger.Debug("watching logind sleep signals")
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-signals:
			if !ok {
				return nil
			}
			if isResume(sig) {
				w.logger.Info("resumed from suspend")
				w.onResume()
			}
		}
	}
}

// isResume matches PrepareForSleep(false). PrepareForSleep(true) is sent
// before suspending and is ignored.
func isResume(sig *dbus.Signal) bool {
	if sig == nil || sig.Name != login1Interface+"."+prepareForSleep || len(sig.Body) == 0 {
		return false
	}
	start, ok := sig.Body[0].(bool)
	return ok && !start
}
