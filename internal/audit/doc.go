// Package audit runs the privilege-separation pipeline over one binary:
// open and validate the file, classify sections, extract functions, decode
// their instruction streams, build the call graph and propagate privilege.
//
// Any failure before graph construction fails the whole audit. A partially
// built symbol universe would produce misleading findings in both directions.
package audit
