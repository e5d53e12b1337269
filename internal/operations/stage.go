package operations

import (
	"context"
	"sync"
	"time"

	"salarycli/internal/analysis"
	"salarycli/internal/ml"
	"salarycli/internal/survey"
)

// Stage identifiers in pipeline order
const (
	StageCleaning = "cleaning"
	StageAnalysis = "analysis"
	StageML       = "ml"
	StageCharts   = "charts"
	StageReport   = "report"
	StagePublish  = "publish"
)

// Stage is one batch step of the pipeline
type Stage interface {
	ID() string
	Name() string
	Execute(ctx context.Context, state *State) error
}

// StageStatus is the lifecycle of a stage within one run
type StageStatus string

const (
	StatusPending   StageStatus = "pending"
	StatusActive    StageStatus = "active"
	StatusCompleted StageStatus = "completed"
	StatusFailed    StageStatus = "failed"
	StatusSkipped   StageStatus = "skipped"
)

// StageState is the outcome of one stage
type StageState struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Status    StageStatus   `json:"status"`
	StartTime time.Time     `json:"start_time,omitempty"`
	EndTime   time.Time     `json:"end_time,omitempty"`
	Rows      int           `json:"rows,omitempty"`
	Outputs   []string      `json:"outputs,omitempty"`
	Message   string        `json:"message,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// State is shared by the stages of one run. Stages hand their results to the
// next one through it so a full run reads each artifact from disk only once.
type State struct {
	RunID string

	Dataset  *survey.Dataset
	Analysis *analysis.Results
	ML       *ml.Results

	mu     sync.RWMutex
	stages map[string]*StageState
	order  []string
}

// NewState creates the state of a run over the given stages
func NewState(runID string, stages []Stage) *State {
	s := &State{RunID: runID, stages: make(map[string]*StageState, len(stages))}
	for _, st := range stages {
		s.stages[st.ID()] = &StageState{ID: st.ID(), Name: st.Name(), Status: StatusPending}
		s.order = append(s.order, st.ID())
	}
	return s
}

// Stage returns a copy of the state of a stage
func (s *State) Stage(id string) (StageState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stages[id]
	if !ok {
		return StageState{}, false
	}
	return *st, true
}

// Stages lists the stage states in execution order
func (s *State) Stages() []StageState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]StageState, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.stages[id])
	}
	return out
}

// AddOutputs records files written by a stage
func (s *State) AddOutputs(id string, files ...string) {
	s.update(id, func(st *StageState) { st.Outputs = append(st.Outputs, files...) })
}

// SetRows records how many survey rows a stage processed
func (s *State) SetRows(id string, n int) {
	s.update(id, func(st *StageState) { st.Rows = n })
}

func (s *State) update(id string, fn func(*StageState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stages[id]; ok {
		fn(st)
	}
}

func (s *State) start(id string) {
	s.update(id, func(st *StageState) {
		st.Status = StatusActive
		st.StartTime = time.Now()
	})
}

func (s *State) finish(id string, status StageStatus, message string, err error) {
	s.update(id, func(st *StageState) {
		st.Status = status
		st.EndTime = time.Now()
		if !st.StartTime.IsZero() {
			st.Duration = st.EndTime.Sub(st.StartTime)
		}
		st.Message = message
		if err != nil {
			st.Error = err.Error()
		}
	})
}
