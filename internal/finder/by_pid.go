package finder

import "github.com/aiomayo/portwatch/internal/inventory"

func findPID(snap *inventory.Snapshot, pid int32) []Target {
	t := Target{PID: pid}
	for _, r := range snap.Find(pid) {
		t.Name = r.Process.Name
		t.Ports = appendPort(t.Ports, r.LocalPort)
	}
	return []Target{t}
}
