package killer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/aiomayo/portwatch/internal/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcess struct {
	name        string
	exitsOnTerm bool
	exitsOnKill bool
	termErr     error
	killErr     error
	running     bool
}

type fakeProvider struct {
	mu     sync.Mutex
	procs  map[int32]*fakeProcess
	terms  []int32
	kills  []int32
	checks int
}

func newFakeProvider(procs map[int32]*fakeProcess) *fakeProvider {
	for _, p := range procs {
		p.running = true
	}
	return &fakeProvider{procs: procs}
}

func (f *fakeProvider) Connections(context.Context) ([]process.Conn, error) { return nil, nil }

func (f *fakeProvider) Lookup(_ context.Context, pid int32) (process.Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.procs[pid]
	if !ok || !p.running {
		return process.Info{}, process.ErrNoSuchProcess
	}
	return process.Info{PID: pid, Name: p.name}, nil
}

func (f *fakeProvider) StartTime(context.Context, int32) (int64, error) { return 0, nil }

func (f *fakeProvider) Terminate(pid int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terms = append(f.terms, pid)
	p, ok := f.procs[pid]
	if !ok || !p.running {
		return fmt.Errorf("SIGTERM pid %d: %w", pid, process.ErrNoSuchProcess)
	}
	if p.termErr != nil {
		return p.termErr
	}
	if p.exitsOnTerm {
		p.running = false
	}
	return nil
}

func (f *fakeProvider) Kill(pid int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kills = append(f.kills, pid)
	p, ok := f.procs[pid]
	if !ok || !p.running {
		return fmt.Errorf("SIGKILL pid %d: %w", pid, process.ErrNoSuchProcess)
	}
	if p.killErr != nil {
		return p.killErr
	}
	if p.exitsOnKill {
		p.running = false
	}
	return nil
}

func (f *fakeProvider) IsRunning(_ context.Context, pid int32) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks++
	p, ok := f.procs[pid]
	return ok && p.running
}

type countingInvalidator struct {
	mu sync.Mutex
	n  int
}

func (c *countingInvalidator) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

func (c *countingInvalidator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func fastOptions() Options {
	return Options{
		GracefulTimeout: 60 * time.Millisecond,
		KillGrace:       40 * time.Millisecond,
		PollInterval:    5 * time.Millisecond,
	}
}

func TestTerminateGracefulExit(t *testing.T) {
	fp := newFakeProvider(map[int32]*fakeProcess{4000: {name: "node", exitsOnTerm: true}})
	inv := &countingInvalidator{}
	k := New(fp, fastOptions(), inv)

	r := k.Terminate(context.Background(), 4000)

	assert.Equal(t, Terminated, r.Outcome)
	assert.True(t, r.Terminated())
	assert.False(t, r.Escalated)
	assert.Equal(t, "node", r.Name)
	assert.Equal(t, []int32{4000}, fp.terms)
	assert.Empty(t, fp.kills)
	assert.Equal(t, 1, inv.count())
}

func TestTerminateEscalatesToKill(t *testing.T) {
	fp := newFakeProvider(map[int32]*fakeProcess{4001: {name: "stubborn", exitsOnKill: true}})
	inv := &countingInvalidator{}
	k := New(fp, fastOptions(), inv)

	start := time.Now()
	r := k.Terminate(context.Background(), 4001)

	assert.Equal(t, Terminated, r.Outcome)
	assert.True(t, r.Escalated)
	assert.Equal(t, []int32{4001}, fp.kills)
	assert.GreaterOrEqual(t, time.Since(start), fastOptions().GracefulTimeout)
	assert.Equal(t, 1, inv.count())
}

func TestTerminateStillAliveAfterKill(t *testing.T) {
	fp := newFakeProvider(map[int32]*fakeProcess{4002: {name: "unkillable"}})
	inv := &countingInvalidator{}
	opts := fastOptions()
	k := New(fp, opts, inv)

	start := time.Now()
	r := k.Terminate(context.Background(), 4002)
	elapsed := time.Since(start)

	assert.Equal(t, Failed, r.Outcome)
	assert.Equal(t, DetailStillAlive, r.Detail)
	assert.True(t, r.Escalated)
	assert.Len(t, fp.kills, 1)
	assert.Less(t, elapsed, opts.GracefulTimeout+opts.KillGrace+time.Second)
	assert.Zero(t, inv.count())
}

func TestTerminateMissingProcess(t *testing.T) {
	fp := newFakeProvider(nil)
	inv := &countingInvalidator{}
	k := New(fp, fastOptions(), inv)

	r := k.Terminate(context.Background(), 99999)

	assert.Equal(t, NotFound, r.Outcome)
	assert.False(t, r.Terminated())
	assert.Empty(t, fp.kills)
	assert.Equal(t, 1, inv.count())
}

func TestTerminateProcessExitsBetweenSignals(t *testing.T) {
	fp := newFakeProvider(map[int32]*fakeProcess{4003: {name: "racy"}})
	k := New(fp, fastOptions(), nil)

	go func() {
		time.Sleep(fastOptions().GracefulTimeout - 10*time.Millisecond)
		fp.mu.Lock()
		fp.procs[4003].running = false
		fp.mu.Unlock()
	}()

	r := k.Terminate(context.Background(), 4003)
	assert.Equal(t, Terminated, r.Outcome)
}

func TestTerminatePermissionDenied(t *testing.T) {
	fp := newFakeProvider(map[int32]*fakeProcess{
		1234: {name: "root-daemon", termErr: fmt.Errorf("SIGTERM pid 1234: %w", process.ErrPermission)},
	})
	inv := &countingInvalidator{}
	k := New(fp, fastOptions(), inv)

	r := k.Terminate(context.Background(), 1234)

	assert.Equal(t, PermissionDenied, r.Outcome)
	assert.Contains(t, r.Detail, "operation not permitted")
	assert.Empty(t, fp.kills)
	assert.Zero(t, inv.count())
}

func TestTerminateOtherSignalError(t *testing.T) {
	fp := newFakeProvider(map[int32]*fakeProcess{
		1235: {name: "odd", termErr: errors.New("invalid argument")},
	})
	inv := &countingInvalidator{}
	r := New(fp, fastOptions(), inv).Terminate(context.Background(), 1235)

	assert.Equal(t, Failed, r.Outcome)
	assert.Equal(t, "invalid argument", r.Detail)
	assert.Zero(t, inv.count())
}

func TestTerminateInvalidPID(t *testing.T) {
	fp := newFakeProvider(nil)
	inv := &countingInvalidator{}
	k := New(fp, fastOptions(), inv)

	for _, pid := range []int32{0, -1, -4242} {
		r := k.Terminate(context.Background(), pid)
		assert.Equal(t, Failed, r.Outcome, pid)
		assert.Equal(t, DetailInvalidPID, r.Detail, pid)
	}
	assert.Empty(t, fp.terms)
	assert.Zero(t, fp.checks)
	assert.Zero(t, inv.count())
}

func TestTerminateRefusesSelf(t *testing.T) {
	self := int32(os.Getpid())
	fp := newFakeProvider(map[int32]*fakeProcess{self: {name: "portwatch"}})
	r := New(fp, fastOptions(), nil).Terminate(context.Background(), self)

	assert.Equal(t, Failed, r.Outcome)
	assert.Equal(t, DetailSelf, r.Detail)
	assert.Empty(t, fp.terms)
}

func TestTerminateRefusesProtected(t *testing.T) {
	fp := newFakeProvider(map[int32]*fakeProcess{1: {name: "systemd", exitsOnTerm: true}})
	opts := fastOptions()
	opts.Protected = []string{"SystemD"}
	inv := &countingInvalidator{}

	r := New(fp, opts, inv).Terminate(context.Background(), 1)

	assert.Equal(t, Failed, r.Outcome)
	assert.Equal(t, DetailProtected, r.Detail)
	assert.Empty(t, fp.terms)
	assert.Zero(t, inv.count())
}

func TestTerminateIgnoresCallerCancellation(t *testing.T) {
	fp := newFakeProvider(map[int32]*fakeProcess{4004: {name: "stubborn", exitsOnKill: true}})
	k := New(fp, fastOptions(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := k.Terminate(ctx, 4004)

	assert.Equal(t, Terminated, r.Outcome)
	assert.True(t, r.Escalated)
}

func TestExecuteDryRunSignalsNothing(t *testing.T) {
	fp := newFakeProvider(map[int32]*fakeProcess{10: {name: "a"}, 20: {name: "b"}})
	inv := &countingInvalidator{}
	k := New(fp, fastOptions(), inv)

	results := k.Execute(context.Background(), []Target{{PID: 10, Name: "a"}, {PID: 20, Name: "b"}}, true)

	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.DryRun)
	}
	assert.Empty(t, fp.terms)
	assert.Zero(t, inv.count())
}

func TestExecuteKeepsTargetName(t *testing.T) {
	fp := newFakeProvider(nil)
	k := New(fp, fastOptions(), nil)

	results := k.Execute(context.Background(), []Target{{PID: 31337, Name: "ghost"}}, false)

	require.Len(t, results, 1)
	assert.Equal(t, NotFound, results[0].Outcome)
	assert.Equal(t, "ghost", results[0].Name)
}

func TestNewAppliesDefaults(t *testing.T) {
	k := New(newFakeProvider(nil), Options{}, nil)
	assert.Equal(t, 4*time.Second, k.MaxWait())
}

func TestFormatResult(t *testing.T) {
	tests := []struct {
		r    Result
		want string
	}{
		{Result{PID: 1, Name: "a", DryRun: true}, "[dry-run] would kill a (PID 1)"},
		{Result{PID: 2, Name: "b", Outcome: Terminated}, "killed b (PID 2)"},
		{Result{PID: 3, Name: "c", Outcome: Terminated, Escalated: true}, "killed c (PID 3) after escalating to force kill"},
		{Result{PID: 4, Outcome: NotFound}, "process (PID 4) is not running"},
		{Result{PID: 5, Name: "e", Outcome: Failed, Detail: DetailProtected}, "failed to kill e (PID 5): protected process"},
		{Result{PID: 6, Name: "f", Outcome: PermissionDenied, Detail: "operation not permitted"}, "permission denied killing f (PID 6)"},
		{Result{PID: 7, Name: "g", Outcome: Failed}, "failed to kill g (PID 7)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatResult(tt.r))
	}
}

func TestOutcomeText(t *testing.T) {
	for _, o := range []Outcome{Terminated, NotFound, PermissionDenied, Failed} {
		b, err := o.MarshalText()
		require.NoError(t, err)

		var got Outcome
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, o, got)
	}

	var o Outcome
	assert.Error(t, o.UnmarshalText([]byte("exploded")))
}
