package model

// Difficulty represents problem difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Problem is one entry of the ordered problem catalog.
type Problem struct {
	ID         string     `json:"id" yaml:"id" validate:"required,excludesall=.$"`
	Title      string     `json:"title" yaml:"title" validate:"required"`
	Category   string     `json:"category" yaml:"category" validate:"required"`
	Difficulty Difficulty `json:"difficulty,omitempty" yaml:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

// ProblemStatus is the derived solve status of a problem.
type ProblemStatus string

const (
	StatusUnsolved  ProblemStatus = "unsolved"
	StatusAttempted ProblemStatus = "attempted"
	StatusSolved    ProblemStatus = "solved"
)

// ProblemState is derived from attempt history plus user marks. It is never stored.
type ProblemState struct {
	ProblemID string        `json:"problem_id"`
	Status    ProblemStatus `json:"status"`
	Starred   bool          `json:"starred"`
	Notes     string        `json:"notes"`
}

// NodeState is the position of a lesson node on the progression path.
type NodeState string

const (
	NodeLocked    NodeState = "locked"
	NodeAvailable NodeState = "available"
	NodeCurrent   NodeState = "current"
	NodeCompleted NodeState = "completed"
)

// LessonNode is one problem placed in a unit.
type LessonNode struct {
	ProblemID string        `json:"problem_id"`
	Title     string        `json:"title"`
	Status    ProblemStatus `json:"status"`
	State     NodeState     `json:"state"`
}

// Unit groups the nodes of one catalog category.
type Unit struct {
	Category  string       `json:"category"`
	Nodes     []LessonNode `json:"nodes"`
	Completed int          `json:"completed"`
}
