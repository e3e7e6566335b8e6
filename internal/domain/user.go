package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User carries the projected fields this subsystem reads from the external
// user store. Registration, credentials and profile editing live elsewhere.
type User struct {
	ID        uuid.UUID `db:"id"`
	Username  string    `db:"username"`
	CreatedAt time.Time `db:"created_at"`
}

// UserRepository abstracts read access to the external user store.
type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	// ListByIDs returns the users for the given id set. Unknown ids are
	// silently absent from the result.
	ListByIDs(ctx context.Context, userIDs []uuid.UUID) ([]User, error)
}
