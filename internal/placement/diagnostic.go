package placement

import "fmt"

// Kind classifies a soft failure.
type Kind string

const (
	// PlacementExhausted means an object kept a colliding position.
	PlacementExhausted Kind = "placement_exhausted"
	// SpaceExhausted means a feature found no free space and was skipped.
	SpaceExhausted Kind = "space_exhausted"
	// ProcedureSkipped means a stage procedure gave up without changes.
	ProcedureSkipped Kind = "procedure_skipped"
	// TrackRejected means a custom track was unusable and left out.
	TrackRejected Kind = "track_rejected"
)

// Diagnostic is a non-fatal event collected during a run.
type Diagnostic struct {
	Kind    Kind   `json:"kind"`
	Stage   string `json:"stage,omitempty"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// String renders the diagnostic on one line.
func (d Diagnostic) String() string {
	if d.Stage == "" {
		return fmt.Sprintf("%s: %s: %s", d.Kind, d.Subject, d.Message)
	}

	return fmt.Sprintf("%s: stage %s: %s: %s", d.Kind, d.Stage, d.Subject, d.Message)
}
