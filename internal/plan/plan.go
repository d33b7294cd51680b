// Package plan builds multi-step pomodoro plans.
package plan

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/sadopc/tomato/internal/store"
)

const (
	DefaultName = "Classic pomodoro"

	focusSeconds     = 25 * 60
	breakSeconds     = 5 * 60
	longBreakSeconds = 15 * 60
)

func newID() string { return uuid.NewString() }

// Default returns the canonical four-pomodoro plan with a fresh id:
// focus and short breaks alternating, ending in a 15-minute long break.
func Default() store.Plan {
	p := store.Plan{ID: newID(), Name: DefaultName}
	for i := 1; i <= 4; i++ {
		p.Steps = append(p.Steps, store.PlanStep{
			ID:       newID(),
			Type:     store.StepFocus,
			Duration: focusSeconds,
			Label:    fmt.Sprintf("Focus %d", i),
		})
		if i < 4 {
			p.Steps = append(p.Steps, store.PlanStep{
				ID:       newID(),
				Type:     store.StepShortBreak,
				Duration: breakSeconds,
				Label:    fmt.Sprintf("Break %d", i),
			})
		}
	}
	p.Steps = append(p.Steps, store.PlanStep{
		ID:       newID(),
		Type:     store.StepLongBreak,
		Duration: longBreakSeconds,
		Label:    "Long break",
	})
	return p
}

// PlanSaver persists a finished plan. *store.Persistence satisfies it.
type PlanSaver interface {
	SavePlan(ctx context.Context, p store.Plan) error
}

// Builder is the editing state of a plan that has not been saved yet. It
// always holds at least one step.
type Builder struct {
	name  string
	steps []store.PlanStep
	added int
}

func NewBuilder() *Builder {
	b := &Builder{}
	b.Reset()
	return b
}

// Reset drops the name and all steps, leaving one fresh focus step.
func (b *Builder) Reset() {
	b.name = ""
	b.steps = nil
	b.added = 0
	b.Append()
}

func (b *Builder) SetName(name string) { b.name = name }
func (b *Builder) Name() string        { return b.name }

// Steps returns a copy of the steps in order.
func (b *Builder) Steps() []store.PlanStep { return slices.Clone(b.steps) }

// Append adds a 25-minute focus step and returns its id.
func (b *Builder) Append() string {
	b.added++
	s := store.PlanStep{
		ID:       newID(),
		Type:     store.StepFocus,
		Duration: focusSeconds,
		Label:    fmt.Sprintf("Step %d", b.added),
	}
	b.steps = append(b.steps, s)
	return s.ID
}

func (b *Builder) find(id string) (int, error) {
	i := slices.IndexFunc(b.steps, func(s store.PlanStep) bool { return s.ID == id })
	if i < 0 {
		return 0, fmt.Errorf("step %s: %w", id, store.ErrNotFound)
	}
	return i, nil
}

func (b *Builder) SetType(id string, t store.StepType) error {
	if !t.Valid() {
		return fmt.Errorf("step type %q: %w", t, store.ErrInvalidPlan)
	}
	i, err := b.find(id)
	if err != nil {
		return err
	}
	b.steps[i].Type = t
	return nil
}

// SetDuration sets a step's length in seconds; it must be positive.
func (b *Builder) SetDuration(id string, secs int64) error {
	if secs <= 0 {
		return fmt.Errorf("step duration %d: %w", secs, store.ErrInvalidPlan)
	}
	i, err := b.find(id)
	if err != nil {
		return err
	}
	b.steps[i].Duration = secs
	return nil
}

func (b *Builder) SetLabel(id, label string) error {
	i, err := b.find(id)
	if err != nil {
		return err
	}
	b.steps[i].Label = label
	return nil
}

// Remove deletes a step. The last remaining step cannot be removed.
func (b *Builder) Remove(id string) bool {
	if len(b.steps) <= 1 {
		return false
	}
	i, err := b.find(id)
	if err != nil {
		return false
	}
	b.steps = slices.Delete(b.steps, i, i+1)
	return true
}

// Build returns the plan under a fresh id. Blank step labels fall back to
// the step type.
func (b *Builder) Build() (store.Plan, error) {
	p := store.Plan{
		ID:    newID(),
		Name:  strings.TrimSpace(b.name),
		Steps: slices.Clone(b.steps),
	}
	for i := range p.Steps {
		if strings.TrimSpace(p.Steps[i].Label) == "" {
			p.Steps[i].Label = string(p.Steps[i].Type)
		}
	}
	if err := store.ValidatePlan(p); err != nil {
		return store.Plan{}, err
	}
	return p, nil
}

// Save builds and persists the plan, then resets the builder.
func (b *Builder) Save(ctx context.Context, s PlanSaver) (store.Plan, error) {
	p, err := b.Build()
	if err != nil {
		return store.Plan{}, err
	}
	if err := s.SavePlan(ctx, p); err != nil {
		return store.Plan{}, err
	}
	b.Reset()
	return p, nil
}
