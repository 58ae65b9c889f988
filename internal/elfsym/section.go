package elfsym

import (
	"debug/elf"
	"strings"
)

// DefaultPrivilegedSections are the sections whose code runs privileged.
var DefaultPrivilegedSections = []string{".ktext", ".kdata", ".krodata", ".bootstrap"}

// DefaultExecutableSections are the sections whose functions are analyzed.
var DefaultExecutableSections = []string{".text", ".ktext"}

// Section is a classified section.
type Section struct {
	Name       string
	Privileged bool
	Executable bool
}

// SectionClassifier classifies sections by normalized name.
type SectionClassifier struct {
	privileged map[string]struct{}
	executable map[string]struct{}
}

// NewSectionClassifier creates a classifier. Names are normalized on entry.
func NewSectionClassifier(privileged, executable []string) *SectionClassifier {
	return &SectionClassifier{
		privileged: nameSet(privileged),
		executable: nameSet(executable),
	}
}

// NewDefaultSectionClassifier creates a classifier for the default section sets.
func NewDefaultSectionClassifier() *SectionClassifier {
	return NewSectionClassifier(DefaultPrivilegedSections, DefaultExecutableSections)
}

func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[Normalize(n)] = struct{}{}
	}
	return set
}

// Normalize reduces a section name to its first dot-separated component.
// ".ktext.foo" becomes ".ktext"; names without a leading dot are unchanged.
func Normalize(name string) string {
	if !strings.HasPrefix(name, ".") {
		return name
	}
	rest := name[1:]
	if i := strings.IndexByte(rest, '.'); i >= 0 {
		rest = rest[:i]
	}
	return "." + rest
}

// IsPrivileged reports whether the section named raw is privileged.
func (c *SectionClassifier) IsPrivileged(raw string) bool {
	_, ok := c.privileged[Normalize(raw)]
	return ok
}

// IsExecutable reports whether functions in the section named raw are analyzed.
func (c *SectionClassifier) IsExecutable(raw string) bool {
	_, ok := c.executable[Normalize(raw)]
	return ok
}

// Classify returns the classification of the section named raw.
func (c *SectionClassifier) Classify(raw string) Section {
	return Section{
		Name:       Normalize(raw),
		Privileged: c.IsPrivileged(raw),
		Executable: c.IsExecutable(raw),
	}
}

// Gather classifies every named section of f, keyed by normalized name.
// The first section with a given normalized name wins.
func (c *SectionClassifier) Gather(f *elf.File) map[string]Section {
	out := make(map[string]Section, len(f.Sections))
	for _, s := range f.Sections {
		if s.Name == "" {
			continue
		}
		cls := c.Classify(s.Name)
		if _, exists := out[cls.Name]; exists {
			continue
		}
		out[cls.Name] = cls
	}
	return out
}
