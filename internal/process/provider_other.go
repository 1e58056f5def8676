//go:build !linux && !darwin && !windows

package process

import (
	"context"
	"math"
)

const MaxPID = math.MaxInt32

type unsupportedProvider struct{}

func New() Provider {
	return &unsupportedProvider{}
}

func (p *unsupportedProvider) Connections(context.Context) ([]Conn, error) {
	return nil, ErrUnsupported
}

func (p *unsupportedProvider) Lookup(context.Context, int32) (Info, error) {
	return Info{}, ErrUnsupported
}

func (p *unsupportedProvider) StartTime(context.Context, int32) (int64, error) {
	return 0, ErrUnsupported
}

func (p *unsupportedProvider) Terminate(int32) error { return ErrUnsupported }

func (p *unsupportedProvider) Kill(int32) error { return ErrUnsupported }

func (p *unsupportedProvider) IsRunning(context.Context, int32) bool { return false }
