// Package report renders audit results: numbered violation and warning blocks
// with their call stacks, an ASCII call tree per root, a summary table and a
// JSON document.
package report
