package model

import "time"

// ProfileExport is the top-level JSON structure for learner data export.
type ProfileExport struct {
	ExportedAt time.Time       `json:"exported_at"`
	Count      int             `json:"count"`
	Learners   []LearnerExport `json:"learners"`
}

// LearnerExport holds one learner's profile and marks for export.
type LearnerExport struct {
	Profile LearnerProfile         `json:"profile"`
	Marks   map[string]ProblemMark `json:"marks,omitempty"`
}
