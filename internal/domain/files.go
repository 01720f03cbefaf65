package domain

// FileType classifies a generated file by its content format.
type FileType string

const (
	FileYAML       FileType = "yaml"
	FileJSON       FileType = "json"
	FileMarkdown   FileType = "markdown"
	FileTypeScript FileType = "typescript"
	FileDockerfile FileType = "dockerfile"
	FileShell      FileType = "shell"
	FileText       FileType = "text"
)

// ComplianceStatus is an externally judged verdict on a generated file.
type ComplianceStatus string

const (
	CompliancePending ComplianceStatus = "pending"
	CompliancePassed  ComplianceStatus = "passed"
	ComplianceWarning ComplianceStatus = "warning"
	ComplianceFailed  ComplianceStatus = "failed"
)

// Verdict reports whether s is a status a reviewer may return.
// Pending is the absence of a verdict, so it does not count.
func (s ComplianceStatus) Verdict() bool {
	switch s {
	case CompliancePassed, ComplianceWarning, ComplianceFailed:
		return true
	default:
		return false
	}
}

// GeneratedFile is one file of an exported scaffold.
type GeneratedFile struct {
	Path             string           `json:"path"`
	Content          string           `json:"content"`
	Type             FileType         `json:"type"`
	ComplianceStatus ComplianceStatus `json:"complianceStatus"`
	ComplianceNotes  string           `json:"complianceNotes,omitempty"`
}

// ComplianceResult is a reviewer's verdict for a single path.
type ComplianceResult struct {
	Path   string           `json:"path"`
	Status ComplianceStatus `json:"status"`
	Notes  string           `json:"notes,omitempty"`
}
