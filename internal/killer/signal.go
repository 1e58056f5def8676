package killer

import "fmt"

type Outcome int

const (
	Terminated Outcome = iota + 1
	NotFound
	PermissionDenied
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Terminated:
		return "Terminated"
	case NotFound:
		return "NotFound"
	case PermissionDenied:
		return "PermissionDenied"
	case Failed:
		return "Failed"
	default:
		return "unknown"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	if o < Terminated || o > Failed {
		return nil, fmt.Errorf("invalid outcome %d", int(o))
	}
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(b []byte) error {
	for v := Terminated; v <= Failed; v++ {
		if v.String() == string(b) {
			*o = v
			return nil
		}
	}
	return fmt.Errorf("invalid outcome %q", b)
}

// Details reported with a Failed outcome.
const (
	DetailInvalidPID = "invalid pid"
	DetailSelf       = "refusing to terminate self"
	DetailProtected  = "protected process"
	DetailStillAlive = "process still running after forceful kill"
)
