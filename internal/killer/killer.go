package killer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aiomayo/portwatch/internal/process"
	"github.com/charmbracelet/log"
)

const (
	defaultGracefulTimeout = 3 * time.Second
	defaultKillGrace       = time.Second
	defaultPollInterval    = 200 * time.Millisecond
)

// Invalidator is told when a termination changed the process table.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

type Options struct {
	GracefulTimeout time.Duration
	KillGrace       time.Duration
	PollInterval    time.Duration
	Protected       []string
}

type Result struct {
	PID       int32   `json:"pid"`
	Name      string  `json:"name,omitempty"`
	Outcome   Outcome `json:"outcome"`
	Detail    string  `json:"detail,omitempty"`
	Escalated bool    `json:"escalated,omitempty"`
	DryRun    bool    `json:"-"`
}

func (r Result) Terminated() bool { return r.Outcome == Terminated }

type Target struct {
	PID  int32
	Name string
}

type Killer struct {
	provider    process.Provider
	invalidator Invalidator
	opts        Options
	self        int32
}

func New(provider process.Provider, opts Options, invalidator Invalidator) *Killer {
	if opts.GracefulTimeout <= 0 {
		opts.GracefulTimeout = defaultGracefulTimeout
	}
	if opts.KillGrace <= 0 {
		opts.KillGrace = defaultKillGrace
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	return &Killer{
		provider:    provider,
		invalidator: invalidator,
		opts:        opts,
		self:        int32(os.Getpid()),
	}
}

// MaxWait is the longest a single Terminate call can block.
func (k *Killer) MaxWait() time.Duration {
	return k.opts.GracefulTimeout + k.opts.KillGrace
}

// Terminate asks pid to exit, escalating to a forceful kill once if it is
// still alive after the graceful timeout. It never blocks longer than MaxWait
// plus one poll interval, and it ignores cancellation of ctx.
func (k *Killer) Terminate(ctx context.Context, pid int32) Result {
	r := Result{PID: pid}
	if !process.ValidPID(pid) {
		r.Outcome, r.Detail = Failed, DetailInvalidPID
		return r
	}
	if pid == k.self {
		r.Outcome, r.Detail = Failed, DetailSelf
		return r
	}

	ctx = context.WithoutCancel(ctx)
	if info, err := k.provider.Lookup(ctx, pid); err == nil {
		r.Name = info.Name
	}
	if k.isProtected(r.Name) {
		log.Warn("refusing to terminate protected process", "name", r.Name, "pid", pid)
		r.Outcome, r.Detail = Failed, DetailProtected
		return r
	}

	r = k.escalate(ctx, r)
	log.Info("terminate", "pid", pid, "name", r.Name, "outcome", r.Outcome, "escalated", r.Escalated)

	if r.Outcome == Terminated || r.Outcome == NotFound {
		if k.invalidator != nil {
			k.invalidator.Invalidate(ctx)
		}
	}
	return r
}

// Execute terminates each target in order. With dryRun nothing is signalled.
func (k *Killer) Execute(ctx context.Context, targets []Target, dryRun bool) []Result {
	results := make([]Result, 0, len(targets))
	for _, t := range targets {
		if dryRun {
			results = append(results, Result{PID: t.PID, Name: t.Name, DryRun: true})
			continue
		}
		r := k.Terminate(ctx, t.PID)
		if r.Name == "" {
			r.Name = t.Name
		}
		results = append(results, r)
	}
	return results
}

func (k *Killer) escalate(ctx context.Context, r Result) Result {
	if err := k.provider.Terminate(r.PID); err != nil {
		return withError(r, err)
	}
	if k.waitExit(ctx, r.PID, k.opts.GracefulTimeout) {
		r.Outcome = Terminated
		return r
	}

	log.Debug("graceful timeout reached, escalating", "pid", r.PID, "timeout", k.opts.GracefulTimeout)
	r.Escalated = true
	if err := k.provider.Kill(r.PID); err != nil {
		if errors.Is(err, process.ErrNoSuchProcess) {
			r.Outcome = Terminated
			return r
		}
		return withError(r, err)
	}
	if k.waitExit(ctx, r.PID, k.opts.KillGrace) {
		r.Outcome = Terminated
		return r
	}
	r.Outcome, r.Detail = Failed, DetailStillAlive
	return r
}

func (k *Killer) waitExit(ctx context.Context, pid int32, timeout time.Duration) bool {
	if !k.provider.IsRunning(ctx, pid) {
		return true
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(k.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-deadline.C:
			return !k.provider.IsRunning(ctx, pid)
		case <-ticker.C:
			if !k.provider.IsRunning(ctx, pid) {
				return true
			}
		}
	}
}

func (k *Killer) isProtected(name string) bool {
	if name == "" {
		return false
	}
	for _, p := range k.opts.Protected {
		if strings.EqualFold(p, name) {
			return true
		}
	}
	return false
}

func withError(r Result, err error) Result {
	switch {
	case errors.Is(err, process.ErrNoSuchProcess):
		r.Outcome = NotFound
	case errors.Is(err, process.ErrPermission):
		r.Outcome, r.Detail = PermissionDenied, err.Error()
	default:
		r.Outcome, r.Detail = Failed, err.Error()
	}
	return r
}

func FormatResult(r Result) string {
	name := r.Name
	if name == "" {
		name = "process"
	}
	switch {
	case r.DryRun:
		return fmt.Sprintf("[dry-run] would kill %s (PID %d)", name, r.PID)
	case r.Outcome == Terminated && r.Escalated:
		return fmt.Sprintf("killed %s (PID %d) after escalating to force kill", name, r.PID)
	case r.Outcome == Terminated:
		return fmt.Sprintf("killed %s (PID %d)", name, r.PID)
	case r.Outcome == NotFound:
		return fmt.Sprintf("%s (PID %d) is not running", name, r.PID)
	case r.Outcome == PermissionDenied:
		return fmt.Sprintf("permission denied killing %s (PID %d)", name, r.PID)
	case r.Detail != "":
		return fmt.Sprintf("failed to kill %s (PID %d): %s", name, r.PID, r.Detail)
	default:
		return fmt.Sprintf("failed to kill %s (PID %d)", name, r.PID)
	}
}
