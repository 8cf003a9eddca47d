package emit

import (
	"sort"
	"sync"

	"github.com/kbukum/powerflow/stage"
)

// OperationFunc emits the commands of one stage.
type OperationFunc func(e *Emitter, st *stage.Stage) ([]Command, error)

// Registry maps stage operations to their emitters.
type Registry struct {
	mu  sync.RWMutex
	ops map[stage.Operation]OperationFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[stage.Operation]OperationFunc)}
}

// DefaultRegistry returns a registry with every built-in operation.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(stage.OpInitDesign, initDesign)
	r.Register(stage.OpSynthesizeDesign, synthesizeDesign)
	r.Register(stage.OpReadStimulus, readStimulus)
	r.Register(stage.OpComputePower, computePower)
	r.Register(stage.OpReportPower, reportPower)
	r.Register(stage.OpCustom, custom)
	return r
}

// Register adds or replaces an operation.
func (r *Registry) Register(op stage.Operation, fn OperationFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[op] = fn
}

// Get retrieves an operation.
func (r *Registry) Get(op stage.Operation) (OperationFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.ops[op]
	return fn, ok
}

// List returns sorted names of all registered operations.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ops))
	for op := range r.ops {
		names = append(names, string(op))
	}
	sort.Strings(names)
	return names
}
