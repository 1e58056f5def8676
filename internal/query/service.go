package query

import (
	"context"
	"time"

	"github.com/aiomayo/portwatch/internal/inventory"
	"github.com/aiomayo/portwatch/internal/killer"
)

type Cache interface {
	Get(ctx context.Context, maxAge time.Duration) (*inventory.Snapshot, error)
	Invalidate(ctx context.Context)
	Collections() int64
}

type Terminator interface {
	Terminate(ctx context.Context, pid int32) killer.Result
}

// Service is the single entry point front ends use to read the inventory
// and terminate processes.
type Service struct {
	cache      Cache
	terminator Terminator
	maxAge     time.Duration
}

func New(cache Cache, terminator Terminator, maxAge time.Duration) *Service {
	return &Service{cache: cache, terminator: terminator, maxAge: maxAge}
}

type Stats struct {
	inventory.Counts
	CapturedAt  time.Time `json:"capturedAt"`
	Collections int64     `json:"collections"`
}

func (s *Service) Snapshot(ctx context.Context) (*inventory.Snapshot, error) {
	return s.cache.Get(ctx, s.maxAge)
}

// List returns the filtered and sorted records of the current snapshot. The
// returned slice is a copy and may be modified by the caller.
func (s *Service) List(ctx context.Context, f Filter, key SortKey) ([]inventory.Record, error) {
	snap, err := s.cache.Get(ctx, s.maxAge)
	if err != nil {
		return nil, err
	}
	records := Apply(snap.Records, f)
	Sort(records, key)
	return records, nil
}

func (s *Service) Kill(ctx context.Context, pid int32) killer.Result {
	return s.terminator.Terminate(ctx, pid)
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	snap, err := s.cache.Get(ctx, s.maxAge)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Counts:      snap.Counts(),
		CapturedAt:  snap.CapturedAt,
		Collections: s.cache.Collections(),
	}, nil
}

// Refresh discards the held snapshot and collects a new one.
func (s *Service) Refresh(ctx context.Context) (Stats, error) {
	s.cache.Invalidate(ctx)
	return s.Stats(ctx)
}
