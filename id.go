package crossbase

import "github.com/google/uuid"

// NewID returns a version 7 UUID. Its time prefix makes ids, and so the
// full backend's messages/<id>.json keys, sort in creation order; message
// queries use the id to break timestamp ties.
func NewID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// IsValidID reports whether s parses as a UUID of any version. Ids supplied by
// callers of the standalone backend need not be v7.
func IsValidID(s string) bool {
	return uuid.Validate(s) == nil
}
