package kill

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"killport/pkg/model"
)

// MockResolver implements Resolver for testing
type MockResolver struct {
	Cands []model.Candidate
	Err   error
	Calls int
}

func (m *MockResolver) Candidates(port uint16) ([]model.Candidate, error) {
	m.Calls++
	return m.Cands, m.Err
}

// MockSignaler implements Signaler for testing
type MockSignaler struct {
	Terminated []int
	Killed     []int
	TermErr    map[int]error
	KillErr    map[int]error
	Survivors  map[int]bool // still alive after the graceful stage
}

func (m *MockSignaler) Terminate(pid int) error {
	m.Terminated = append(m.Terminated, pid)
	if err, ok := m.TermErr[pid]; ok {
		return err
	}
	return nil
}

func (m *MockSignaler) Kill(pid int) error {
	m.Killed = append(m.Killed, pid)
	if err, ok := m.KillErr[pid]; ok {
		return err
	}
	return nil
}

func (m *MockSignaler) Alive(pid int) bool { return m.Survivors[pid] }

var (
	_ Resolver = (*MockResolver)(nil) // Compile-time interface check
	_ Signaler = (*MockSignaler)(nil)
)

func testEngine(r Resolver, s Signaler) *Engine {
	return &Engine{
		Resolver: r,
		Signaler: s,
		Grace:    time.Millisecond,
		SelfPID:  99999,
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		cands    []model.Candidate
		selfPID  int
		expected []int
	}{
		{
			name:     "empty input",
			cands:    nil,
			selfPID:  1,
			expected: []int{},
		},
		{
			name: "self excluded",
			cands: []model.Candidate{
				{PID: 100, Name: "nginx"},
				{PID: 42, Name: "killport"},
			},
			selfPID:  42,
			expected: []int{100},
		},
		{
			name: "only self",
			cands: []model.Candidate{
				{PID: 42, Name: "killport"},
			},
			selfPID:  42,
			expected: []int{},
		},
		{
			name: "sorted by PID",
			cands: []model.Candidate{
				{PID: 300, Name: "c"},
				{PID: 100, Name: "a"},
				{PID: 200, Name: "b"},
			},
			selfPID:  1,
			expected: []int{100, 200, 300},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(tt.cands, tt.selfPID)
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %d candidates, got %d", len(tt.expected), len(got))
			}
			for i, pid := range tt.expected {
				if got[i].PID != pid {
					t.Errorf("candidate[%d]: expected PID %d, got %d", i, pid, got[i].PID)
				}
			}
		})
	}
}

func TestResolveAndKillNoCandidates(t *testing.T) {
	sig := &MockSignaler{}
	e := testEngine(&MockResolver{}, sig)

	res, err := e.ResolveAndKill(9999, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != model.NotKilled {
		t.Errorf("expected NotKilled, got %v", res)
	}
	if len(sig.Terminated) != 0 || len(sig.Killed) != 0 {
		t.Errorf("expected no signals, got term=%v kill=%v", sig.Terminated, sig.Killed)
	}
}

func TestResolveAndKillDryRun(t *testing.T) {
	res := &MockResolver{Cands: []model.Candidate{
		{PID: 100, Name: "node"},
		{PID: 200, Name: "node"},
	}}
	sig := &MockSignaler{}
	e := testEngine(res, sig)

	got, err := e.ResolveAndKill(8080, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != model.DryRun {
		t.Errorf("expected DryRun, got %v", got)
	}
	if len(sig.Terminated) != 0 || len(sig.Killed) != 0 {
		t.Errorf("dry run must not signal, got term=%v kill=%v", sig.Terminated, sig.Killed)
	}
}

func TestResolveAndKillDryRunEmpty(t *testing.T) {
	e := testEngine(&MockResolver{}, &MockSignaler{})

	got, err := e.ResolveAndKill(8080, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != model.NotKilled {
		t.Errorf("expected NotKilled for dry run without candidates, got %v", got)
	}
}

func TestResolveAndKillGracefulSuffices(t *testing.T) {
	res := &MockResolver{Cands: []model.Candidate{{PID: 100, Name: "node"}}}
	sig := &MockSignaler{} // not in Survivors: gone after SIGTERM
	e := testEngine(res, sig)

	got, err := e.ResolveAndKill(8080, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != model.Killed {
		t.Errorf("expected Killed, got %v", got)
	}
	if len(sig.Terminated) != 1 || sig.Terminated[0] != 100 {
		t.Errorf("expected Terminate(100), got %v", sig.Terminated)
	}
	if len(sig.Killed) != 0 {
		t.Errorf("expected no forceful kill, got %v", sig.Killed)
	}
}

func TestResolveAndKillEscalates(t *testing.T) {
	res := &MockResolver{Cands: []model.Candidate{{PID: 100, Name: "java"}}}
	sig := &MockSignaler{Survivors: map[int]bool{100: true}}
	e := testEngine(res, sig)

	got, err := e.ResolveAndKill(8080, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != model.Killed {
		t.Errorf("expected Killed, got %v", got)
	}
	if len(sig.Terminated) != 1 || len(sig.Killed) != 1 {
		t.Errorf("expected graceful then forceful, got term=%v kill=%v", sig.Terminated, sig.Killed)
	}
}

func TestResolveAndKillSelfOnly(t *testing.T) {
	res := &MockResolver{Cands: []model.Candidate{{PID: 99999, Name: "killport"}}}
	sig := &MockSignaler{}
	e := testEngine(res, sig) // SelfPID is 99999

	got, err := e.ResolveAndKill(9999, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != model.NotKilled {
		t.Errorf("expected NotKilled when only candidate is self, got %v", got)
	}
	if len(sig.Terminated) != 0 {
		t.Errorf("self must never be signalled, got %v", sig.Terminated)
	}
}

func TestResolveAndKillPermissionDenied(t *testing.T) {
	res := &MockResolver{Cands: []model.Candidate{{PID: 1, Name: "systemd"}}}
	sig := &MockSignaler{TermErr: map[int]error{1: errors.New("operation not permitted")}}
	e := testEngine(res, sig)

	got, err := e.ResolveAndKill(443, false)
	if got != model.NotKilled {
		t.Errorf("expected NotKilled, got %v", got)
	}
	if err == nil {
		t.Fatal("expected failure detail, got nil")
	}
	if !strings.Contains(err.Error(), "pid 1") {
		t.Errorf("error should name the failed PID, got %q", err)
	}
}

func TestResolveAndKillPartialFailure(t *testing.T) {
	res := &MockResolver{Cands: []model.Candidate{
		{PID: 100, Name: "root-owned"},
		{PID: 200, Name: "node"},
	}}
	sig := &MockSignaler{TermErr: map[int]error{100: errors.New("operation not permitted")}}
	e := testEngine(res, sig)

	got, err := e.ResolveAndKill(8080, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != model.Killed {
		t.Errorf("expected Killed when at least one candidate dies, got %v", got)
	}
	if len(sig.Terminated) != 2 {
		t.Errorf("one failure must not abort the loop, got term=%v", sig.Terminated)
	}
}

func TestResolveAndKillAllFail(t *testing.T) {
	res := &MockResolver{Cands: []model.Candidate{
		{PID: 100, Name: "a"},
		{PID: 200, Name: "b"},
	}}
	sig := &MockSignaler{TermErr: map[int]error{
		100: errors.New("operation not permitted"),
		200: errors.New("operation not permitted"),
	}}
	e := testEngine(res, sig)

	got, err := e.ResolveAndKill(443, false)
	if got != model.NotKilled {
		t.Errorf("expected NotKilled, got %v", got)
	}
	if err == nil {
		t.Fatal("expected joined failure detail, got nil")
	}
	for _, want := range []string{"pid 100", "pid 200"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q, got %q", want, err)
		}
	}
}

func TestResolveAndKillResolutionError(t *testing.T) {
	tableErr := errors.New("permission denied")
	res := &MockResolver{Err: tableErr}
	sig := &MockSignaler{}
	e := testEngine(res, sig)

	got, err := e.ResolveAndKill(8080, false)
	if got != model.NotKilled {
		t.Errorf("expected NotKilled, got %v", got)
	}
	if !errors.Is(err, tableErr) {
		t.Errorf("expected wrapped resolution error, got %v", err)
	}
	if len(sig.Terminated) != 0 {
		t.Errorf("resolution failure must not signal anything, got %v", sig.Terminated)
	}
}

func TestResolveAndKillPortZero(t *testing.T) {
	res := &MockResolver{Cands: []model.Candidate{{PID: 100, Name: "node"}}}
	e := testEngine(res, &MockSignaler{})

	got, err := e.ResolveAndKill(0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != model.NotKilled {
		t.Errorf("expected NotKilled for port 0, got %v", got)
	}
	if res.Calls != 0 {
		t.Errorf("port 0 must not hit the resolver, got %d calls", res.Calls)
	}
}

func TestResolveAndKillOrdersByPID(t *testing.T) {
	res := &MockResolver{Cands: []model.Candidate{
		{PID: 300, Name: "c"},
		{PID: 100, Name: "a"},
		{PID: 200, Name: "b"},
	}}
	sig := &MockSignaler{}
	e := testEngine(res, sig)

	if _, err := e.ResolveAndKill(8080, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{100, 200, 300}
	if len(sig.Terminated) != len(want) {
		t.Fatalf("expected %d terminations, got %d", len(want), len(sig.Terminated))
	}
	for i, pid := range want {
		if sig.Terminated[i] != pid {
			t.Errorf("termination[%d]: expected PID %d, got %d", i, pid, sig.Terminated[i])
		}
	}
}

func TestResolveAndKillForcefulFails(t *testing.T) {
	res := &MockResolver{Cands: []model.Candidate{{PID: 100, Name: "stuck"}}}
	sig := &MockSignaler{
		Survivors: map[int]bool{100: true},
		KillErr:   map[int]error{100: errors.New("operation not permitted")},
	}
	e := testEngine(res, sig)

	got, err := e.ResolveAndKill(8080, false)
	if got != model.NotKilled {
		t.Errorf("expected NotKilled, got %v", got)
	}
	if err == nil {
		t.Fatal("expected failure detail, got nil")
	}
}

func TestKillCandidate(t *testing.T) {
	sig := &MockSignaler{Survivors: map[int]bool{100: true}}
	e := testEngine(&MockResolver{}, sig)

	if err := e.KillCandidate(model.Candidate{PID: 100, Name: "java"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sig.Terminated) != 1 || len(sig.Killed) != 1 {
		t.Errorf("expected escalation, got term=%v kill=%v", sig.Terminated, sig.Killed)
	}
}

func TestKillCandidateRefusesSelf(t *testing.T) {
	sig := &MockSignaler{}
	e := testEngine(&MockResolver{}, sig) // SelfPID is 99999

	if err := e.KillCandidate(model.Candidate{PID: 99999, Name: "killport"}); err == nil {
		t.Fatal("expected refusal to kill self")
	}
	if len(sig.Terminated) != 0 {
		t.Errorf("self must never be signalled, got %v", sig.Terminated)
	}
}

func TestKillSupervisedWarns(t *testing.T) {
	var buf bytes.Buffer
	res := &MockResolver{Cands: []model.Candidate{{
		PID:        100,
		Name:       "nginx",
		Supervisor: model.Supervisor{Kind: model.SupervisorSystemd, Unit: "nginx.service"},
	}}}
	e := testEngine(res, &MockSignaler{})
	e.Log = slog.New(slog.NewTextHandler(&buf, nil))

	if _, err := e.ResolveAndKill(80, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "supervised") || !strings.Contains(out, "nginx.service") {
		t.Errorf("expected supervision warning in log, got %q", out)
	}
}

func TestKillUnsupervisedStaysQuiet(t *testing.T) {
	var buf bytes.Buffer
	res := &MockResolver{Cands: []model.Candidate{{PID: 100, Name: "node"}}}
	e := testEngine(res, &MockSignaler{})
	e.Log = slog.New(slog.NewTextHandler(&buf, nil))

	if _, err := e.ResolveAndKill(8080, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(buf.String(), "supervised") {
		t.Errorf("unexpected supervision warning: %q", buf.String())
	}
}

func TestResolveAndKillRepeatIsIdempotent(t *testing.T) {
	res := &MockResolver{Cands: []model.Candidate{{PID: 100, Name: "node"}}}
	sig := &MockSignaler{}
	e := testEngine(res, sig)

	if got, _ := e.ResolveAndKill(8080, false); got != model.Killed {
		t.Fatalf("first run: expected Killed, got %v", got)
	}

	// Port is free now: the resolver comes back empty.
	res.Cands = nil
	got, err := e.ResolveAndKill(8080, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != model.NotKilled {
		t.Errorf("second run: expected NotKilled, got %v", got)
	}
}
