package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/isseis/go-privsep-analyzer/internal/audit"
	"github.com/isseis/go-privsep-analyzer/internal/baseline"
	"github.com/isseis/go-privsep-analyzer/internal/color"
	"github.com/isseis/go-privsep-analyzer/internal/privilege"
	"github.com/isseis/go-privsep-analyzer/internal/report"
)

// applyBaseline splits findings into fresh and accepted ones. With
// -update-baseline every current finding is written to the baseline and
// accepted. findings must not be filtered by root, or an update would drop
// accepted findings of other roots.
func applyBaseline(opts *options, rep *audit.Report, runID string, findings privilege.Findings) (fresh, accepted privilege.Findings, err error) {
	if opts.baselinePath == "" {
		return findings, privilege.Findings{}, nil
	}
	store := baseline.NewStore()

	if opts.updateBaseline {
		var added, removed int
		err := store.Update(opts.baselinePath, func(r *baseline.Record) error {
			added, removed = r.Replace(opts.binary, rep.ContentHash, runID, findings)
			return nil
		})
		if err != nil {
			return privilege.Findings{}, privilege.Findings{}, fmt.Errorf("failed to update baseline: %w", err)
		}
		slog.Info("baseline updated",
			slog.String("path", opts.baselinePath),
			slog.Int("accepted", countFindings(findings)),
			slog.Int("added", added),
			slog.Int("removed", removed))
		return privilege.Findings{}, findings, nil
	}

	record, err := store.Load(opts.baselinePath)
	switch {
	case errors.Is(err, baseline.ErrRecordNotFound):
		slog.Warn("baseline not found, reporting every finding", slog.String("path", opts.baselinePath))
	case err != nil:
		return privilege.Findings{}, privilege.Findings{}, fmt.Errorf("failed to load baseline: %w", err)
	case record.ContentHash != rep.ContentHash:
		slog.Info("binary changed since baseline was recorded",
			slog.String("path", opts.baselinePath),
			slog.String("recorded", record.ContentHash),
			slog.String("current", rep.ContentHash))
	}

	fresh, accepted = record.Partition(findings)
	return fresh, accepted, nil
}

func writeReport(w io.Writer, opts *options, rep *audit.Report, runID string, fresh, accepted privilege.Findings) error {
	summary := report.Summary{
		Binary:     opts.binary,
		Strategy:   rep.Result.Strategy,
		Graph:      rep.Graph.Stats(),
		Engine:     rep.Result.Stats,
		Violations: len(fresh.Violations),
		Warnings:   len(fresh.Warnings),
		Accepted:   countFindings(accepted),
	}

	if opts.json {
		return report.WriteJSON(w, report.NewDocument(runID, rep.ContentHash, summary, fresh))
	}

	tw := report.NewTextWriter(w, color.NewPalette(capabilitiesFor(w, opts).SupportsColor()))
	if opts.tree {
		if err := tw.Tree(rep.Graph, opts.root); err != nil {
			return err
		}
	}
	if err := tw.Violations(fresh.Violations); err != nil {
		return err
	}
	if opts.warnings {
		if err := tw.Warnings(fresh.Warnings); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	report.WriteSummary(w, summary)
	return nil
}
