// Package wizard tracks where a user is in the guided project builder and
// decides whether they may move on.
package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/soyeahso/aiosforge/internal/domain"
)

// Step is one page of the wizard.
type Step string

const (
	StepDiscovery    Step = "discovery"
	StepProject      Step = "project"
	StepAgents       Step = "agents"
	StepSquads       Step = "squads"
	StepIntegrations Step = "integrations"
	StepReview       Step = "review"
	StepGeneration   Step = "generation"
)

var steps = []Step{
	StepDiscovery,
	StepProject,
	StepAgents,
	StepSquads,
	StepIntegrations,
	StepReview,
	StepGeneration,
}

var (
	ErrBlocked     = errors.New("step is not complete")
	ErrUnknownStep = errors.New("unknown wizard step")
	ErrLastStep    = errors.New("already at the last step")
)

// Steps returns every step in order.
func Steps() []Step {
	out := make([]Step, len(steps))
	copy(out, steps)
	return out
}

// Index returns the position of s, or -1 if s is not a step.
func (s Step) Index() int {
	for i, st := range steps {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known step.
func (s Step) Valid() bool { return s.Index() >= 0 }

// State is the wizard position of one session. Furthest is the last step
// the user has reached; any step up to it may be revisited freely.
type State struct {
	Current  Step `json:"current"`
	Furthest Step `json:"furthest"`
}

// Start returns the state of a fresh session.
func Start() State {
	return State{Current: StepDiscovery, Furthest: StepDiscovery}
}

// CanProceed reports whether the user may leave step for the one after it.
// The returned error wraps ErrBlocked with the reason.
func CanProceed(step Step, m domain.Model) error {
	switch step {
	case StepDiscovery, StepIntegrations:
		return nil
	case StepProject:
		if strings.TrimSpace(m.Project.Name) == "" {
			return fmt.Errorf("%w: project name is required", ErrBlocked)
		}
		return nil
	case StepAgents:
		if len(m.Agents) == 0 {
			return fmt.Errorf("%w: add at least one agent", ErrBlocked)
		}
		return nil
	case StepSquads:
		if issues := domain.IssuesUnder(domain.Validate(m), "squads"); len(issues) > 0 {
			return fmt.Errorf("%w: %s", ErrBlocked, issues[0])
		}
		return nil
	case StepReview:
		if issues := domain.Validate(m); len(issues) > 0 {
			return fmt.Errorf("%w: %d validation issue(s), first: %s", ErrBlocked, len(issues), issues[0])
		}
		return nil
	case StepGeneration:
		return ErrLastStep
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
}

// normalized repairs states loaded from storage so Current and Furthest are
// always known steps with Current not past Furthest.
func (s State) normalized() State {
	if !s.Current.Valid() {
		s.Current = StepDiscovery
	}
	if !s.Furthest.Valid() || s.Furthest.Index() < s.Current.Index() {
		s.Furthest = s.Current
	}
	return s
}

// Next advances one step when the current step is complete.
func (s State) Next(m domain.Model) (State, error) {
	s = s.normalized()
	if err := CanProceed(s.Current, m); err != nil {
		return s, err
	}
	s.Current = steps[s.Current.Index()+1]
	if s.Current.Index() > s.Furthest.Index() {
		s.Furthest = s.Current
	}
	return s, nil
}

// Back moves one step back. It is a no-op on the first step.
func (s State) Back() State {
	s = s.normalized()
	if i := s.Current.Index(); i > 0 {
		s.Current = steps[i-1]
	}
	return s
}

// GoTo jumps to target. Any step already reached is allowed; the step right
// after the furthest one is allowed when the furthest step is complete.
func (s State) GoTo(target Step, m domain.Model) (State, error) {
	s = s.normalized()
	ti := target.Index()
	if ti < 0 {
		return s, fmt.Errorf("%w: %q", ErrUnknownStep, target)
	}
	fi := s.Furthest.Index()
	switch {
	case ti <= fi:
		s.Current = target
		return s, nil
	case ti == fi+1:
		if err := CanProceed(s.Furthest, m); err != nil {
			return s, err
		}
		s.Current, s.Furthest = target, target
		return s, nil
	default:
		return s, fmt.Errorf("%w: %s must be completed first", ErrBlocked, steps[fi+1])
	}
}

// StepStatus is how a step is shown in the progress bar.
type StepStatus string

const (
	StatusDone    StepStatus = "done"
	StatusCurrent StepStatus = "current"
	StatusLocked  StepStatus = "locked"
)

// StepProgress pairs a step with its status.
type StepProgress struct {
	Step   Step       `json:"step"`
	Status StepStatus `json:"status"`
}

// Progress describes every step relative to s. Reached steps other than
// Current are done, steps after Furthest are locked.
func (s State) Progress() []StepProgress {
	s = s.normalized()
	ci, fi := s.Current.Index(), s.Furthest.Index()
	out := make([]StepProgress, len(steps))
	for i, st := range steps {
		status := StatusLocked
		switch {
		case i == ci:
			status = StatusCurrent
		case i <= fi:
			status = StatusDone
		}
		out[i] = StepProgress{Step: st, Status: status}
	}
	return out
}
