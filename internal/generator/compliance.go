package generator

import (
	"github.com/soyeahso/aiosforge/internal/domain"
)

// ApplyCompliance returns a copy of files with the verdicts in results
// applied. A result only touches the file whose path it names and only
// when its status is a real verdict; everything else passes through
// unchanged.
func ApplyCompliance(files []domain.GeneratedFile, results map[string]domain.ComplianceResult) []domain.GeneratedFile {
	out := make([]domain.GeneratedFile, len(files))
	copy(out, files)
	for i, f := range out {
		r, ok := results[f.Path]
		if !ok || !r.Status.Verdict() {
			continue
		}
		out[i].ComplianceStatus = r.Status
		out[i].ComplianceNotes = r.Notes
	}
	return out
}

// ResultsByPath indexes a reviewer's results by path. Later entries for
// the same path win.
func ResultsByPath(results []domain.ComplianceResult) map[string]domain.ComplianceResult {
	out := make(map[string]domain.ComplianceResult, len(results))
	for _, r := range results {
		out[r.Path] = r
	}
	return out
}
