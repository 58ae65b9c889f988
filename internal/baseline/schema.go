package baseline

import (
	"time"

	"github.com/isseis/go-privsep-analyzer/internal/privilege"
)

// CurrentSchemaVersion is the current baseline schema version.
// Increment this when making breaking changes to the record format.
const CurrentSchemaVersion = 2

// Record is the accepted findings of one binary.
type Record struct {
	SchemaVersion int `json:"schema_version"`

	// Binary is the path of the analyzed binary as given on the command line.
	Binary string `json:"binary"`

	// ContentHash is the SHA-256 of the binary in "sha256:<hex>" form.
	ContentHash string `json:"content_hash"`

	UpdatedAt time.Time `json:"updated_at"`

	// RunID is the run that wrote the record.
	RunID string `json:"run_id"`

	Violations []Entry `json:"violations"`
	Warnings   []Entry `json:"warnings"`
}

// Entry is one accepted finding.
type Entry struct {
	// Signature is privilege.Finding.Signature.
	Signature string `json:"signature"`

	// Key is privilege.Finding.Key. It tells apart findings that share a
	// signature.
	Key string `json:"key"`

	Caller string `json:"caller"`
	Callee string `json:"callee"`
}

// NewRecord creates a record accepting every finding in f.
func NewRecord(binary, contentHash, runID string, f privilege.Findings) *Record {
	r := &Record{}
	r.Replace(binary, contentHash, runID, f)
	return r
}

// Replace makes r accept exactly the findings in f and reports how many
// entries were added and removed, compared by Key.
func (r *Record) Replace(binary, contentHash, runID string, f privilege.Findings) (added, removed int) {
	before := r.keys()

	r.Binary = binary
	r.ContentHash = contentHash
	r.RunID = runID
	r.Violations = entries(f.Violations)
	r.Warnings = entries(f.Warnings)

	after := r.keys()
	for k := range after {
		if _, ok := before[k]; !ok {
			added++
		}
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			removed++
		}
	}
	return added, removed
}

func (r *Record) keys() map[string]struct{} {
	keys := make(map[string]struct{}, len(r.Violations)+len(r.Warnings))
	for _, e := range r.Violations {
		keys[e.Key] = struct{}{}
	}
	for _, e := range r.Warnings {
		keys[e.Key] = struct{}{}
	}
	return keys
}

func entries(in []privilege.Finding) []Entry {
	out := make([]Entry, 0, len(in))
	for _, f := range in {
		out = append(out, Entry{
			Signature: f.Signature(),
			Key:       f.Key(),
			Caller:    f.Caller.Name,
			Callee:    f.Callee.Name,
		})
	}
	return out
}

// Partition splits f into findings not in the record and findings the
// record accepts. A nil record accepts nothing.
//
// A finding is accepted when its Key is recorded. Otherwise, after a relink,
// it is accepted by Signature, but only while the current findings carry that
// signature no more often than the record does; a second same-named function
// showing up is reported rather than silently accepted.
func (r *Record) Partition(f privilege.Findings) (fresh, accepted privilege.Findings) {
	if r == nil {
		return f, privilege.Findings{}
	}
	keys := r.keys()
	recorded := make(map[string]int, len(r.Violations)+len(r.Warnings))
	for _, e := range r.Violations {
		recorded[e.Signature]++
	}
	for _, e := range r.Warnings {
		recorded[e.Signature]++
	}
	current := make(map[string]int, len(f.Violations)+len(f.Warnings))
	for _, finding := range f.Violations {
		current[finding.Signature()]++
	}
	for _, finding := range f.Warnings {
		current[finding.Signature()]++
	}

	split := func(in []privilege.Finding) (newOnes, old []privilege.Finding) {
		for _, finding := range in {
			sig := finding.Signature()
			_, exact := keys[finding.Key()]
			if exact || current[sig] <= recorded[sig] {
				old = append(old, finding)
			} else {
				newOnes = append(newOnes, finding)
			}
		}
		return newOnes, old
	}
	fresh.Violations, accepted.Violations = split(f.Violations)
	fresh.Warnings, accepted.Warnings = split(f.Warnings)
	return fresh, accepted
}
