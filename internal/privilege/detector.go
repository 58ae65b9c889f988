package privilege

import (
	"strings"

	"github.com/isseis/go-privsep-analyzer/internal/callgraph"
)

// Default elevation primitive names.
const (
	DefaultElevateSymbol = "dynpriv::elevate"
	DefaultLowerSymbol   = "dynpriv::lower"
	DefaultExemptPrefix  = "dynpriv::"
)

// Detector classifies traversed call edges. It holds no per-run state.
type Detector struct {
	exemptNames    map[string]struct{}
	exemptPrefixes []string
}

// DetectorOptions configures which callers are treated as the elevation
// primitive itself and are therefore never reported as warnings.
type DetectorOptions struct {
	// ExemptNames are simplified function names (e.g. "dynpriv::elevate").
	ExemptNames []string

	// ExemptPrefixes are name prefixes (e.g. "dynpriv::").
	ExemptPrefixes []string
}

// NewDetector creates a Detector.
func NewDetector(opts DetectorOptions) *Detector {
	d := &Detector{
		exemptNames:    make(map[string]struct{}, len(opts.ExemptNames)),
		exemptPrefixes: append([]string(nil), opts.ExemptPrefixes...),
	}
	for _, n := range opts.ExemptNames {
		d.exemptNames[n] = struct{}{}
	}
	return d
}

// NewDefaultDetector creates a Detector exempting the dynpriv primitives.
func NewDefaultDetector() *Detector {
	return NewDetector(DetectorOptions{
		ExemptNames:    []string{DefaultElevateSymbol, DefaultLowerSymbol},
		ExemptPrefixes: []string{DefaultExemptPrefix},
	})
}

// Classify evaluates a single edge. callerPrivileged is the caller's
// effective privilege at traversal time. The boolean result is false when
// the edge is clean.
//
//   - violation: caller unprivileged, callee privileged, edge not elevated
//   - warning:   caller privileged, callee privileged, edge not elevated,
//     caller is not the elevation primitive
func (d *Detector) Classify(caller callgraph.Function, callerPrivileged bool, callee callgraph.Function, elevated bool) (Kind, bool) {
	if elevated || !callee.Privileged {
		return 0, false
	}
	if !callerPrivileged {
		return KindViolation, true
	}
	if d.isElevationPrimitive(caller) {
		return 0, false
	}
	return KindWarning, true
}

func (d *Detector) isElevationPrimitive(fn callgraph.Function) bool {
	name := fn.ShortName()
	if _, ok := d.exemptNames[name]; ok {
		return true
	}
	for _, p := range d.exemptPrefixes {
		if p != "" && strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
