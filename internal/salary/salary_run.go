package salary

import (
	"sync"
	"time"
)

type RunState string

const (
	RunIdle      RunState = "idle"
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
)

type runEntry struct {
	state      RunState
	startedAt  time.Time
	finishedAt time.Time
	result     *RunResult
}

// runRegistry tracks runs per period inside this process. A period moves
// idle -> running -> completed and may run again once completed.
type runRegistry struct {
	mu   sync.Mutex
	runs map[Period]*runEntry
}

func newRunRegistry() *runRegistry {
	return &runRegistry{runs: make(map[Period]*runEntry)}
}

// begin returns false when the period is already running.
func (r *runRegistry) begin(p Period, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.runs[p]
	if ok && entry.state == RunRunning {
		return false
	}
	if !ok {
		entry = &runEntry{}
		r.runs[p] = entry
	}
	entry.state = RunRunning
	entry.startedAt = now
	entry.finishedAt = time.Time{}
	return true
}

func (r *runRegistry) complete(p Period, result RunResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.runs[p]
	if entry == nil {
		return
	}
	entry.state = RunCompleted
	entry.finishedAt = result.FinishedAt
	entry.result = &result
}

// abort rolls a run that never started work back to its previous state.
func (r *runRegistry) abort(p Period) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.runs[p]
	if entry == nil {
		return
	}
	if entry.result == nil {
		delete(r.runs, p)
		return
	}
	entry.state = RunCompleted
	entry.startedAt = entry.result.StartedAt
	entry.finishedAt = entry.result.FinishedAt
}

func (r *runRegistry) status(p Period) RunStatusResponse {
	r.mu.Lock()
	defer r.mu.Unlock()

	resp := RunStatusResponse{Month: p.Month, Year: p.Year, State: RunIdle}
	entry := r.runs[p]
	if entry == nil {
		return resp
	}
	resp.State = entry.state
	started := entry.startedAt
	resp.StartedAt = &started
	if !entry.finishedAt.IsZero() {
		finished := entry.finishedAt
		resp.FinishedAt = &finished
	}
	if entry.result != nil {
		result := *entry.result
		resp.Result = &result
	}
	return resp
}
