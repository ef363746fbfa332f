package domain

import "github.com/google/uuid"

// IsUUID reports whether id is a canonical RFC 4122 UUID of version 1 to 5.
// Locally generated placeholders such as "round_1700000000000_1" fail this check.
func IsUUID(id string) bool {
	if len(id) != 36 {
		return false
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	if v := u.Version(); v < 1 || v > 5 {
		return false
	}
	return u.Variant() == uuid.RFC4122
}
