package process

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sys/windows"
)

const MaxPID = math.MaxInt32

type windowsProvider struct{}

func New() Provider {
	return &windowsProvider{}
}

func (p *windowsProvider) Connections(ctx context.Context) ([]Conn, error) {
	return listConnections(ctx)
}

func (p *windowsProvider) Lookup(ctx context.Context, pid int32) (Info, error) {
	return lookupProcess(ctx, pid)
}

func (p *windowsProvider) StartTime(ctx context.Context, pid int32) (int64, error) {
	return startTime(ctx, pid)
}

func (p *windowsProvider) Kill(pid int32) error {
	handle, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		return classify(pid, err)
	}
	defer windows.CloseHandle(handle)
	return classify(pid, windows.TerminateProcess(handle, 1))
}

// Terminate has no graceful form on Windows for arbitrary processes.
func (p *windowsProvider) Terminate(pid int32) error {
	return p.Kill(pid)
}

func (p *windowsProvider) IsRunning(ctx context.Context, pid int32) bool {
	return isRunning(ctx, pid)
}

func classify(pid int32, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, windows.ERROR_INVALID_PARAMETER):
		return fmt.Errorf("terminate pid %d: %w", pid, ErrNoSuchProcess)
	case errors.Is(err, windows.ERROR_ACCESS_DENIED):
		return fmt.Errorf("terminate pid %d: %w", pid, ErrPermission)
	default:
		return fmt.Errorf("terminate pid %d: %w", pid, err)
	}
}
