//go:build linux || darwin

package process

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

type unixProvider struct{}

func (p *unixProvider) Connections(ctx context.Context) ([]Conn, error) {
	return listConnections(ctx)
}

func (p *unixProvider) Lookup(ctx context.Context, pid int32) (Info, error) {
	return lookupProcess(ctx, pid)
}

func (p *unixProvider) StartTime(ctx context.Context, pid int32) (int64, error) {
	return startTime(ctx, pid)
}

func (p *unixProvider) Terminate(pid int32) error {
	return signal(pid, unix.SIGTERM)
}

func (p *unixProvider) Kill(pid int32) error {
	return signal(pid, unix.SIGKILL)
}

func (p *unixProvider) IsRunning(ctx context.Context, pid int32) bool {
	return isRunning(ctx, pid)
}

func signal(pid int32, sig syscall.Signal) error {
	err := unix.Kill(int(pid), sig)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.ESRCH):
		return fmt.Errorf("%s pid %d: %w", unix.SignalName(sig), pid, ErrNoSuchProcess)
	case errors.Is(err, unix.EPERM):
		return fmt.Errorf("%s pid %d: %w", unix.SignalName(sig), pid, ErrPermission)
	default:
		return fmt.Errorf("%s pid %d: %w", unix.SignalName(sig), pid, err)
	}
}
