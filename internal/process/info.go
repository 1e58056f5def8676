package process

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	gopsNet "github.com/shirou/gopsutil/v4/net"
	gopsProcess "github.com/shirou/gopsutil/v4/process"
)

func listConnections(ctx context.Context) ([]Conn, error) {
	stats, err := gopsNet.ConnectionsWithContext(ctx, "inet")
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	conns := make([]Conn, 0, len(stats))
	for _, s := range stats {
		conns = append(conns, Conn{
			Type:       s.Type,
			LocalIP:    s.Laddr.IP,
			LocalPort:  s.Laddr.Port,
			RemoteIP:   s.Raddr.IP,
			RemotePort: s.Raddr.Port,
			Status:     s.Status,
			PID:        s.Pid,
		})
	}
	return conns, nil
}

func lookupProcess(ctx context.Context, pid int32) (Info, error) {
	proc, err := gopsProcess.NewProcessWithContext(ctx, pid)
	if err != nil {
		if errors.Is(err, gopsProcess.ErrorProcessNotRunning) {
			return Info{}, fmt.Errorf("pid %d: %w", pid, ErrNoSuchProcess)
		}
		return Info{}, err
	}

	info := Info{PID: pid}
	info.Path, _ = proc.ExeWithContext(ctx)
	name, err := proc.NameWithContext(ctx)
	if err != nil || name == "" {
		if info.Path == "" {
			return Info{}, fmt.Errorf("pid %d: name: %w", pid, err)
		}
		name = filepath.Base(info.Path)
	}
	info.Name = name
	return info, nil
}

func startTime(ctx context.Context, pid int32) (int64, error) {
	proc, err := gopsProcess.NewProcessWithContext(ctx, pid)
	if err != nil {
		if errors.Is(err, gopsProcess.ErrorProcessNotRunning) {
			return 0, fmt.Errorf("pid %d: %w", pid, ErrNoSuchProcess)
		}
		return 0, err
	}
	return proc.CreateTimeWithContext(ctx)
}

// isRunning treats zombies as exited: they hold no sockets and cannot be
// signalled further.
func isRunning(ctx context.Context, pid int32) bool {
	proc, err := gopsProcess.NewProcessWithContext(ctx, pid)
	if err != nil {
		return false
	}
	running, err := proc.IsRunningWithContext(ctx)
	if err != nil || !running {
		return false
	}
	status, err := proc.StatusWithContext(ctx)
	if err != nil {
		return true
	}
	return !slices.Contains(status, gopsProcess.Zombie)
}
