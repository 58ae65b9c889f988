// Package elfsym extracts the analyzable functions of an ELF binary.
//
// Sections are classified by their normalized name: the first dot-separated
// component, so ".ktext.init" and ".ktext" are the same section. Functions in
// a privileged section are privileged; only functions in executable sections
// take part in call-graph analysis. Symbol names are demangled when they carry
// a C++ mangling.
package elfsym
