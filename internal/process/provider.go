package process

import (
	"context"
	"errors"
)

var (
	ErrNoSuchProcess = errors.New("no such process")
	ErrPermission    = errors.New("operation not permitted")
	ErrUnsupported   = errors.New("platform not supported")
)

// Socket types as reported by the OS socket tables.
const (
	SockStream uint32 = 1
	SockDgram  uint32 = 2
)

// Conn is one raw socket row from the OS.
type Conn struct {
	Type       uint32
	LocalIP    string
	LocalPort  uint32
	RemoteIP   string
	RemotePort uint32
	Status     string
	PID        int32
}

type Info struct {
	PID  int32
	Name string
	Path string
}

// Provider is the platform-specific access to socket and process tables.
// Terminate and Kill return ErrNoSuchProcess or ErrPermission (wrapped) when
// the OS reports those conditions.
type Provider interface {
	Connections(ctx context.Context) ([]Conn, error)
	Lookup(ctx context.Context, pid int32) (Info, error)
	// StartTime returns the process creation time in milliseconds since the
	// epoch. Together with the pid it identifies one process instance.
	StartTime(ctx context.Context, pid int32) (int64, error)
	Terminate(pid int32) error
	Kill(pid int32) error
	IsRunning(ctx context.Context, pid int32) bool
}

// ValidPID reports whether pid is inside the platform's pid range.
func ValidPID(pid int32) bool {
	return pid > 0 && int64(pid) <= MaxPID
}
