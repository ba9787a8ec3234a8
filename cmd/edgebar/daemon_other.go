//go:build !linux

package main

import (
	"context"
	"errors"
)

func runDaemon(context.Context) error {
	return errors.New("the daemon requires an X11 session on Linux")
}
