package discovery

import (
	"fmt"

	"github.com/km-arc/keel/framework/container"
)

// Candidate is a self-describing implementation offered by a Source: the
// contract it fulfills, an optional discriminator, and the factory that
// builds it. Candidates replace runtime type scanning — each implementation
// declares itself at init time, keeping discovery reflection-free.
type Candidate struct {
	Contract string
	Name     string
	Factory  container.Factory
}

// Source is one code unit offering candidates, identified by name. Names are
// what exclusion predicates match against.
type Source struct {
	Name       string
	Candidates []Candidate
}

// Add appends a candidate and returns the source for chaining.
func (s *Source) Add(contract, name string, factory container.Factory) *Source {
	s.Candidates = append(s.Candidates, Candidate{Contract: contract, Name: name, Factory: factory})
	return s
}

// Predicate decides whether a source is excluded from scanning. If ANY
// predicate returns true for a source, the source is skipped — true from one
// wins, regardless of what the others say.
type Predicate func(Source) bool

// DuplicateAction is the policy applied when a contract is offered by more
// than one candidate.
type DuplicateAction int

const (
	// RegisterSingle keeps the first candidate in source order and drops the
	// rest.
	RegisterSingle DuplicateAction = iota

	// RegisterMultiple binds all candidates as an ordered multi-registration.
	// The kernel's default.
	RegisterMultiple

	// Fail rejects the conflict with a ConfigurationError.
	Fail
)

// Engine scans candidate sources and bulk-registers the contracts they offer.
//
// Sources matched by any exclusion predicate are skipped. The Host source —
// the engine's own hosting module — bypasses the predicates entirely; it is
// recognized by pointer identity, never by name matching, so the generic
// name-prefix exclusions cannot accidentally silence the framework's own
// registrations.
type Engine struct {
	Sources    []*Source
	Exclusions []Predicate
	Host       *Source

	// DefaultLifetime is used for every discovered registration.
	DefaultLifetime container.Lifetime

	// OnDuplicate resolves contracts offered by multiple candidates.
	OnDuplicate DuplicateAction
}

// NewEngine creates an engine over the given sources with the orchestrator
// defaults: Singleton lifetime, RegisterMultiple on duplicates, no
// exclusions.
func NewEngine(sources ...*Source) *Engine {
	return &Engine{
		Sources:         sources,
		DefaultLifetime: container.Singleton,
		OnDuplicate:     RegisterMultiple,
	}
}

// Exclude installs exclusion predicates and returns the engine for chaining.
func (e *Engine) Exclude(preds ...Predicate) *Engine {
	e.Exclusions = append(e.Exclusions, preds...)
	return e
}

// Apply scans the non-excluded sources and registers their candidates on c.
//
// Contracts offered by exactly one candidate are registered under
// DefaultLifetime (named, when the candidate carries a discriminator).
// Contracts offered by several candidates go through OnDuplicate. In a
// multi-registration the individual candidate names are not retained; the
// candidates keep their source order and are returned in it by ResolveAll.
func (e *Engine) Apply(c *container.Container) error {
	type group struct {
		contract   string
		candidates []Candidate
	}
	var (
		order  []string
		groups = make(map[string]*group)
	)

	for _, src := range e.Sources {
		if src == nil {
			continue
		}
		if src != e.Host && e.excluded(*src) {
			continue
		}
		for _, cand := range src.Candidates {
			g, ok := groups[cand.Contract]
			if !ok {
				g = &group{contract: cand.Contract}
				groups[cand.Contract] = g
				order = append(order, cand.Contract)
			}
			g.candidates = append(g.candidates, cand)
		}
	}

	for _, contract := range order {
		g := groups[contract]
		if err := e.register(c, g.contract, g.candidates); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) register(c *container.Container, contract string, cands []Candidate) error {
	if len(cands) == 1 || e.OnDuplicate == RegisterSingle {
		cand := cands[0]
		if cand.Name != "" {
			return c.RegisterNamed(contract, cand.Name, cand.Factory, e.DefaultLifetime)
		}
		return c.Register(contract, cand.Factory, e.DefaultLifetime)
	}

	switch e.OnDuplicate {
	case RegisterMultiple:
		factories := make([]container.Factory, 0, len(cands))
		for _, cand := range cands {
			factories = append(factories, cand.Factory)
		}
		return c.RegisterMultiple(contract, factories, e.DefaultLifetime)
	case Fail:
		return &container.ConfigurationError{
			Reason: fmt.Sprintf("discovery: contract %q offered by %d candidates", contract, len(cands)),
		}
	}
	return &container.ConfigurationError{
		Reason: fmt.Sprintf("discovery: unknown duplicate action %d", int(e.OnDuplicate)),
	}
}

func (e *Engine) excluded(src Source) bool {
	for _, pred := range e.Exclusions {
		if pred(src) {
			return true
		}
	}
	return false
}
