package operations

import (
	"os"
	"sync"
	"time"

	"github.com/Dokarii/TercerMomento/internal/dataprocessing"
	apperrors "github.com/Dokarii/TercerMomento/internal/errors"
	"github.com/Dokarii/TercerMomento/pkg/contracts/domain"
)

// OperationStatusValue represents the overall run status
type OperationStatusValue string

const (
	OperationStatusPending   OperationStatusValue = "pending"
	OperationStatusRunning   OperationStatusValue = "running"
	OperationStatusCompleted OperationStatusValue = "completed"
	OperationStatusFailed    OperationStatusValue = "failed"
	OperationStatusCancelled OperationStatusValue = "cancelled"
)

// OperationState represents the complete state of one report run. Steps
// pass their results to later steps through the data fields.
type OperationState struct {
	mu sync.RWMutex

	ID        string               `json:"id"`
	Status    OperationStatusValue `json:"status"`
	StartTime time.Time            `json:"start_time"`
	EndTime   *time.Time           `json:"end_time,omitempty"`

	Steps map[string]*StepState `json:"steps"`
	order []string

	// Run data, filled in step order.
	InputFile  string                     `json:"input_file,omitempty"`
	Table      *domain.Table              `json:"-"`
	Derived    *domain.Table              `json:"-"`
	Aggregates *dataprocessing.Aggregates `json:"-"`
	Values     map[string]string          `json:"-"`
	Manifest   *domain.ReportManifest     `json:"manifest"`

	Error error `json:"-"`
}

// NewOperationState creates a new run state
func NewOperationState(id string) *OperationState {
	return &OperationState{
		ID:        id,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		Steps:     make(map[string]*StepState),
		Manifest:  &domain.ReportManifest{RunID: id},
	}
}

// Start marks the run as running
func (p *OperationState) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

// Complete marks the run as completed
func (p *OperationState) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCompleted
}

// Fail marks the run as failed
func (p *OperationState) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusFailed
	p.Error = err
}

// Cancel marks the run as cancelled
func (p *OperationState) Cancel(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCancelled
	p.Error = err
}

// GetStage returns the state of a specific Step
func (p *OperationState) GetStage(stepID string) *StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Steps[stepID]
}

// SetStage adds or replaces the state of a Step. New steps keep their
// insertion order.
func (p *OperationState) SetStage(stepID string, state *StepState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.Steps[stepID]; !exists {
		p.order = append(p.order, stepID)
	}
	p.Steps[stepID] = state
}

// StepsInOrder returns the step states in execution order.
func (p *OperationState) StepsInOrder() []*StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*StepState, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.Steps[id])
	}
	return out
}

// Duration returns the duration of the run
func (p *OperationState) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}

// GetCompletedStages returns all completed steps in order
func (p *OperationState) GetCompletedStages() []*StepState {
	return p.stepsWithStatus(StepStatusCompleted)
}

func (p *OperationState) stepsWithStatus(status StepStatus) []*StepState {
	var out []*StepState
	for _, s := range p.StepsInOrder() {
		if s.GetStatus() == status {
			out = append(out, s)
		}
	}
	return out
}

// AddArtifact records a file written by the run.
func (p *OperationState) AddArtifact(kind domain.ArtifactKind, name, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return apperrors.NewStorageError("artifact missing after write", err).
			WithContext("path", path)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.Manifest.Add(domain.Artifact{
		Kind:      kind,
		Name:      name,
		Path:      path,
		Size:      info.Size(),
		WrittenAt: info.ModTime(),
	})
	return nil
}

// Artifacts returns the files written so far in write order.
func (p *OperationState) Artifacts() []domain.Artifact {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]domain.Artifact(nil), p.Manifest.Artifacts...)
}

// ReportPath returns the HTML report path, empty until it is written.
func (p *OperationState) ReportPath() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if reports := p.Manifest.ByKind(domain.ArtifactReport); len(reports) > 0 {
		return reports[0].Path
	}
	return ""
}
