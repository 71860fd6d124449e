package student

import (
	"context"
)

// Repository defines persistence operations for student profiles.
type Repository interface {
	// GetByUserID returns a profile by its owner's user ID.
	// Returns shared.ErrProfileNotFound when missing.
	GetByUserID(ctx context.Context, userID string) (*Profile, error)

	// Create persists a new profile.
	Create(ctx context.Context, p *Profile) error

	// Update persists an existing profile.
	Update(ctx context.Context, p *Profile) error

	// SetLevel updates only the level column. The reassignment flow runs it
	// first so the level change is durable before any week is touched.
	SetLevel(ctx context.Context, userID string, level string) error
}
