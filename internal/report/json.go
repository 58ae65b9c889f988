package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/isseis/go-privsep-analyzer/internal/privilege"
)

// Document is the JSON form of an audit.
type Document struct {
	RunID       string             `json:"run_id,omitempty"`
	Binary      string             `json:"binary"`
	ContentHash string             `json:"content_hash,omitempty"`
	Strategy    privilege.Strategy `json:"strategy"`
	Stats       DocumentStats      `json:"stats"`
	Violations  []FindingDoc       `json:"violations"`
	Warnings    []FindingDoc       `json:"warnings"`
}

// DocumentStats mirrors Summary counters.
type DocumentStats struct {
	Functions   int `json:"functions"`
	Edges       int `json:"edges"`
	CallSites   int `json:"call_sites"`
	Roots       int `json:"roots"`
	OrphanSeeds int `json:"orphan_seeds"`
	Accepted    int `json:"accepted"`
}

// FindingDoc is one finding. Addresses are hex strings.
type FindingDoc struct {
	Caller EndpointDoc `json:"caller"`
	Callee EndpointDoc `json:"callee"`
	Path   []FrameDoc  `json:"path"`
}

// EndpointDoc identifies a caller or callee.
type EndpointDoc struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// FrameDoc is one step of a call path.
type FrameDoc struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	Privileged bool   `json:"privileged"`
}

// NewDocument builds a Document from a summary and the reported findings.
func NewDocument(runID, contentHash string, s Summary, f privilege.Findings) Document {
	return Document{
		RunID:       runID,
		Binary:      s.Binary,
		ContentHash: contentHash,
		Strategy:    s.Strategy,
		Stats: DocumentStats{
			Functions:   s.Graph.Functions,
			Edges:       s.Graph.Edges,
			CallSites:   s.Graph.CallSites,
			Roots:       s.Graph.Roots,
			OrphanSeeds: s.Engine.OrphanSeeds,
			Accepted:    s.Accepted,
		},
		Violations: findingDocs(f.Violations),
		Warnings:   findingDocs(f.Warnings),
	}
}

func findingDocs(in []privilege.Finding) []FindingDoc {
	out := make([]FindingDoc, 0, len(in))
	for _, f := range in {
		doc := FindingDoc{
			Caller: EndpointDoc{Name: f.Caller.Name, Address: hexAddr(f.Caller.Address)},
			Callee: EndpointDoc{Name: f.Callee.Name, Address: hexAddr(f.Callee.Address)},
			Path:   make([]FrameDoc, 0, len(f.Path)),
		}
		for _, fr := range f.Path {
			doc.Path = append(doc.Path, FrameDoc{Name: fr.Name, Address: hexAddr(fr.Address), Privileged: fr.Privileged})
		}
		out = append(out, doc)
	}
	return out
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

func hexAddr(addr uint64) string {
	return fmt.Sprintf("0x%x", addr)
}
