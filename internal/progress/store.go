package progress

import (
	"context"

	"github.com/pavelanni/codequest/internal/model"
)

// ProfileStore persists learner profiles with optimistic versioning.
//
// GetProfile returns ErrProfileNotFound for an unknown learner.
// PutProfile writes p if the stored version still equals p.Version
// (0 means "create") and returns the stored profile with its new version;
// otherwise it returns ErrStoreConflict. Attempt records already stored are
// never rewritten.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (model.LearnerProfile, error)
	PutProfile(ctx context.Context, userID string, p model.LearnerProfile) (model.LearnerProfile, error)
}
