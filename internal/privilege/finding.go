package privilege

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies a finding.
type Kind int

const (
	// KindViolation is an unprivileged-to-privileged call not covered by elevation.
	KindViolation Kind = iota

	// KindWarning is a privileged-to-privileged call that is not marked elevated.
	KindWarning
)

// String returns a string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindViolation:
		return "violation"
	case KindWarning:
		return "warning"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Frame is one step of a call path.
type Frame struct {
	Name string

	// Privileged is the effective privilege at this point of the path: the
	// function's own classification OR privilege inherited from the prefix.
	Privileged bool

	Address uint64
}

// Path is an ordered walk from a root to the point of interest.
// A Path never contains the same address twice.
type Path []Frame

// Contains reports whether addr occurs in the path.
func (p Path) Contains(addr uint64) bool {
	for _, f := range p {
		if f.Address == addr {
			return true
		}
	}
	return false
}

// Root returns the first frame of the path.
func (p Path) Root() (Frame, bool) {
	if len(p) == 0 {
		return Frame{}, false
	}
	return p[0], true
}

// normalized renders the path content used for de-duplication.
// Addresses are left out so that content-identical paths compare equal.
// Names are quoted, so separators inside a name cannot forge another path.
func (p Path) normalized() string {
	var b strings.Builder
	for i, f := range p {
		if i > 0 {
			b.WriteString(" > ")
		}
		b.WriteString(strconv.Quote(f.Name))
		if f.Privileged {
			b.WriteString("|P")
		} else {
			b.WriteString("|U")
		}
	}
	return b.String()
}

// Endpoint identifies the caller or callee of a finding.
type Endpoint struct {
	Name    string
	Address uint64
}

func (e Endpoint) key() string {
	return strconv.Quote(e.Name) + "@" + strconv.FormatUint(e.Address, 16)
}

// Finding is a detected violation or warning.
type Finding struct {
	Kind   Kind
	Caller Endpoint
	Callee Endpoint

	// Path is the walk from a root that ends at the callee.
	Path Path
}

// Key returns the de-duplication key of the finding: caller and callee
// identities plus the normalized path content.
func (f Finding) Key() string {
	return f.Kind.String() + ":" + f.Caller.key() + "->" + f.Callee.key() + ":" + f.Path.normalized()
}

// Signature is Key without addresses. It survives relinking, but two
// same-named functions (e.g. static functions of different translation units)
// share it; baselines therefore record Key as well.
func (f Finding) Signature() string {
	return f.Kind.String() + ":" + strconv.Quote(f.Caller.Name) + "->" + strconv.Quote(f.Callee.Name) + ":" + f.Path.normalized()
}

// Findings holds violations and warnings in first-discovered order.
type Findings struct {
	Violations []Finding
	Warnings   []Finding
}

// HasViolations reports whether any violation was found.
func (f Findings) HasViolations() bool {
	return len(f.Violations) > 0
}

// FilterByRoot keeps findings whose path starts at a function whose name
// contains root. An empty root returns the findings unchanged.
func (f Findings) FilterByRoot(root string) Findings {
	if root == "" {
		return f
	}
	keep := func(in []Finding) []Finding {
		var out []Finding
		for _, finding := range in {
			if first, ok := finding.Path.Root(); ok && strings.Contains(first.Name, root) {
				out = append(out, finding)
			}
		}
		return out
	}
	return Findings{
		Violations: keep(f.Violations),
		Warnings:   keep(f.Warnings),
	}
}

// findingStore accumulates findings for one analysis run and suppresses
// duplicates by Finding.Key.
type findingStore struct {
	seen     map[string]struct{}
	findings Findings
}

func newFindingStore() *findingStore {
	return &findingStore{seen: make(map[string]struct{})}
}

// record adds the finding unless an identical one was already recorded.
// It returns true when the finding was new.
func (s *findingStore) record(f Finding) bool {
	key := f.Key()
	if _, dup := s.seen[key]; dup {
		return false
	}
	s.seen[key] = struct{}{}
	switch f.Kind {
	case KindViolation:
		s.findings.Violations = append(s.findings.Violations, f)
	case KindWarning:
		s.findings.Warnings = append(s.findings.Warnings, f)
	}
	return true
}
