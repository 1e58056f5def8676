package process

// MaxPID is the largest pid the kernel hands out. pid_max can be raised to at
// most 1<<22 on 64-bit systems and pids run up to pid_max-1.
const MaxPID = 1<<22 - 1

func New() Provider {
	return &unixProvider{}
}
