// Package learner implements the post-decision learner subsystem (§4.8,
// C10): out-of-band evidence writers invoked only after a decision commits,
// restricted to the learned.* memory namespace, isolated from each other by
// a recovered errgroup fan-out the way the teacher dispatches worker pools
// in pkg/queue/pool.go.
package learner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/adecorp/ade/internal/memory"
)

// ErrMissingTemporalBoundary is returned when an Input lacks one of the
// finalized-commit markers §4.8 requires before any learner runs.
var ErrMissingTemporalBoundary = errors.New("learner: input missing finalized commit markers")

// allowedNamespacePrefix is the only memory namespace prefix a learner may
// write to.
const allowedNamespacePrefix = "learned."

// forbiddenNamespacePrefixes can never be written by a learner even if they
// happen to start with the allowed prefix after a malformed join.
var forbiddenNamespacePrefixes = []string{"scoring.", "guardrails.", "execution.", "scenario."}

// MemoryUpdate is one write a learner wants committed to non-authoritative
// memory (§3).
type MemoryUpdate struct {
	Namespace  string
	Key        string
	Value      any
	TTLSeconds *int
}

// Input is everything a learner receives. It doubles as the hard guard's
// subject: Validate must pass before Process is ever called.
type Input struct {
	DecisionID       string
	Platform         string
	UserID           string
	FinalDecision    any
	Timestamp        time.Time
	MemorySnapshotID string
}

// Validate enforces the temporal boundary guard (§4.8, invariant 8): a
// learner invocation whose input lacks committed audit markers must fail
// before Process is called.
func (in Input) Validate() error {
	if in.DecisionID == "" || in.FinalDecision == nil || in.Timestamp.IsZero() || in.MemorySnapshotID == "" {
		return ErrMissingTemporalBoundary
	}
	return nil
}

// Output is what a learner's Process call returns on success.
type Output struct {
	MemoryUpdates []MemoryUpdate
	Metadata      map[string]any
}

// Learner is a post-decision evidence writer (§4.8).
type Learner interface {
	ID() string
	Version() string
	Process(ctx context.Context, input Input) (Output, error)
}

// Outcome reports one learner's per-run result. The registry always
// returns one Outcome per registered learner, success or failure, never an
// error that would abort the others.
type Outcome struct {
	LearnerID      string
	Version        string
	Success        bool
	AppliedUpdates int
	Err            string
}

// Registry dispatches every learner on commit (§4.8).
type Registry struct {
	learners []Learner
	applyMu  sync.Mutex
}

// NewRegistry constructs a Registry seeded with learners.
func NewRegistry(learners ...Learner) *Registry {
	return &Registry{learners: append([]Learner{}, learners...)}
}

// Dispatch runs every registered learner concurrently, isolated by a
// recovered goroutine per learner, and applies each learner's validated
// memory updates to store. It must be called only after the triggering
// decision has committed (Stage 9), and only from a task separate from the
// request path — callers typically invoke it via `go registry.Dispatch(...)`.
func (r *Registry) Dispatch(ctx context.Context, input Input, store memory.Store) []Outcome {
	if err := input.Validate(); err != nil {
		results := make([]Outcome, len(r.learners))
		for i, l := range r.learners {
			results[i] = Outcome{LearnerID: l.ID(), Version: l.Version(), Success: false, Err: err.Error()}
		}
		return results
	}

	results := make([]Outcome, len(r.learners))
	g, gctx := errgroup.WithContext(ctx)
	for i, l := range r.learners {
		i, l := i, l
		g.Go(func() error {
			results[i] = r.runOne(gctx, l, input, store)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// runOne executes a single learner under panic recovery so a crashing or
// escalating learner can never skip or delay another (§4.8, invariant c).
func (r *Registry) runOne(ctx context.Context, l Learner, input Input, store memory.Store) (outcome Outcome) {
	outcome = Outcome{LearnerID: l.ID(), Version: l.Version()}
	defer func() {
		if rec := recover(); rec != nil {
			outcome.Success = false
			outcome.Err = fmt.Sprintf("panic: %v", rec)
		}
	}()

	out, err := l.Process(ctx, input)
	if err != nil {
		outcome.Err = err.Error()
		return outcome
	}
	if err := validateUpdates(out.MemoryUpdates); err != nil {
		outcome.Err = err.Error()
		return outcome
	}

	r.applyMu.Lock()
	applyUpdates(store, input.Platform, input.UserID, out.MemoryUpdates)
	r.applyMu.Unlock()

	outcome.Success = true
	outcome.AppliedUpdates = len(out.MemoryUpdates)
	return outcome
}

// validateUpdates is the governance guard (§4.8, invariant 6): the entire
// result is rejected atomically if any update's namespace escapes
// learned.*.
func validateUpdates(updates []MemoryUpdate) error {
	for _, u := range updates {
		for _, forbidden := range forbiddenNamespacePrefixes {
			if strings.HasPrefix(u.Namespace, forbidden) {
				return fmt.Errorf("learner: namespace %q uses forbidden prefix %q", u.Namespace, forbidden)
			}
		}
		if !strings.HasPrefix(u.Namespace, allowedNamespacePrefix) {
			return fmt.Errorf("learner: namespace %q is outside learned.*", u.Namespace)
		}
	}
	return nil
}

// applyUpdates merges a learner's accepted writes into the user's memory
// entry. Read-modify-write is serialized by the registry's applyMu since
// memory.Store itself offers no atomic update.
func applyUpdates(store memory.Store, platform, userID string, updates []MemoryUpdate) {
	entry, ok := store.Get(platform, userID)
	if !ok {
		entry = memory.Entry{Platform: platform, UserID: userID, Custom: map[string]map[string]any{}}
	}
	if entry.Custom == nil {
		entry.Custom = map[string]map[string]any{}
	}
	for _, u := range updates {
		ns, ok := entry.Custom[u.Namespace]
		if !ok {
			ns = map[string]any{}
			entry.Custom[u.Namespace] = ns
		}
		ns[u.Key] = u.Value
	}
	store.Put(platform, userID, entry)
}
