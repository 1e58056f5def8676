package process

// MaxPID mirrors PID_MAX from the XNU headers.
const MaxPID = 99998

func New() Provider {
	return &unixProvider{}
}
