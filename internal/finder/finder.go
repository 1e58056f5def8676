package finder

import (
	"fmt"

	"github.com/aiomayo/portwatch/internal/detect"
	"github.com/aiomayo/portwatch/internal/inventory"
)

// Target is one process selected by a query, with the local ports it holds
// in the snapshot.
type Target struct {
	PID   int32
	Name  string
	Ports []uint32
}

type strategy interface {
	Match(r inventory.Record, query detect.Query) bool
}

type Finder struct {
	strategies map[detect.QueryType]strategy
}

func New() *Finder {
	return &Finder{
		strategies: map[detect.QueryType]strategy{
			detect.TypePort:     &portStrategy{},
			detect.TypeHostPort: &portStrategy{},
			detect.TypeName:     &nameStrategy{},
			detect.TypeGlob:     &nameStrategy{},
		},
	}
}

// Find resolves query to the processes it names in snap. Sockets with an
// unknown owner are never returned. A pid query is returned even when the
// process holds no sockets.
func (f *Finder) Find(snap *inventory.Snapshot, query detect.Query) ([]Target, error) {
	if query.Type == detect.TypePID {
		return findPID(snap, query.PID), nil
	}

	s, ok := f.strategies[query.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported query type: %s", query.Type)
	}

	var targets []Target
	index := make(map[int32]int)
	for _, r := range snap.Records {
		if r.PID == inventory.UnknownPID || !s.Match(r, query) {
			continue
		}
		i, ok := index[r.PID]
		if !ok {
			i = len(targets)
			index[r.PID] = i
			targets = append(targets, Target{PID: r.PID, Name: r.Process.Name})
		}
		targets[i].Ports = appendPort(targets[i].Ports, r.LocalPort)
	}
	return targets, nil
}

func appendPort(ports []uint32, port uint32) []uint32 {
	for _, p := range ports {
		if p == port {
			return ports
		}
	}
	return append(ports, port)
}
