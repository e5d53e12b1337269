package operations

import (
	"fmt"
	"strings"
	"sync"
)

// Registry keeps stages in registration order
type Registry struct {
	mu     sync.RWMutex
	stages map[string]Stage
	order  []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{stages: make(map[string]Stage)}
}

// Register adds a stage; IDs must be unique
func (r *Registry) Register(stage Stage) error {
	if stage == nil {
		return fmt.Errorf("cannot register nil stage")
	}
	id := stage.ID()
	if id == "" {
		return fmt.Errorf("stage ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.stages[id]; exists {
		return fmt.Errorf("stage with ID %s already registered", id)
	}
	r.stages[id] = stage
	r.order = append(r.order, id)
	return nil
}

// Get retrieves a stage by ID
func (r *Registry) Get(id string) (Stage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stage, ok := r.stages[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStage, id)
	}
	return stage, nil
}

// IDs returns the registered stage IDs in order
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Select returns the named stages in registration order; no names selects all
func (r *Registry) Select(ids ...string) ([]Stage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := r.stages[id]; !ok {
			return nil, fmt.Errorf("%w: %s (known: %s)", ErrUnknownStage, id, strings.Join(r.order, ","))
		}
		want[id] = true
	}

	stages := make([]Stage, 0, len(r.order))
	for _, id := range r.order {
		if len(want) == 0 || want[id] {
			stages = append(stages, r.stages[id])
		}
	}
	return stages, nil
}

// ParseStages splits a comma separated stage list, ignoring blanks
func ParseStages(list string) []string {
	var ids []string
	for _, part := range strings.Split(list, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
