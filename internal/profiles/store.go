package profiles

import (
	"context"

	"github.com/pavelanni/codequest/internal/model"
)

//go:generate mockgen -source=store.go -destination=../mocks/profiles/mock_store.go -package=mock_profiles

// Store is everything the service needs from a backend: the versioned
// profile contract of progress.ProfileStore plus listing and marks.
type Store interface {
	GetProfile(ctx context.Context, userID string) (model.LearnerProfile, error)
	PutProfile(ctx context.Context, userID string, p model.LearnerProfile) (model.LearnerProfile, error)
	ListProfiles(ctx context.Context) ([]model.LearnerProfile, error)
	GetMarks(ctx context.Context, userID string) (map[string]model.ProblemMark, error)
	SetMark(ctx context.Context, userID, problemID string, m model.ProblemMark) error
}
