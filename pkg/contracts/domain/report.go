package domain

import (
	"time"
)

// ArtifactKind classifies a file produced by a report run.
type ArtifactKind string

const (
	ArtifactChart    ArtifactKind = "chart"
	ArtifactReport   ArtifactKind = "report"
	ArtifactExport   ArtifactKind = "export"
	ArtifactManifest ArtifactKind = "manifest"
)

// Artifact is a file written by a run.
type Artifact struct {
	Kind      ArtifactKind `json:"kind" validate:"required"`
	Name      string       `json:"name" validate:"required"`
	Path      string       `json:"path" validate:"required"`
	Size      int64        `json:"size"`
	WrittenAt time.Time    `json:"written_at"`
}

// ReportManifest lists everything a run produced, in write order.
type ReportManifest struct {
	Format      string     `json:"format"`
	Generator   string     `json:"generator"`
	RunID       string     `json:"run_id"`
	Source      string     `json:"source"`
	Rows        int        `json:"rows"`
	Artifacts   []Artifact `json:"artifacts"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// Add records an artifact.
func (m *ReportManifest) Add(a Artifact) {
	m.Artifacts = append(m.Artifacts, a)
}

// Paths returns the artifact paths in write order.
func (m *ReportManifest) Paths() []string {
	paths := make([]string, 0, len(m.Artifacts))
	for _, a := range m.Artifacts {
		paths = append(paths, a.Path)
	}
	return paths
}

// ByKind returns the artifacts of kind k.
func (m *ReportManifest) ByKind(k ArtifactKind) []Artifact {
	var out []Artifact
	for _, a := range m.Artifacts {
		if a.Kind == k {
			out = append(out, a)
		}
	}
	return out
}
