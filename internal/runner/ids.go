package runner

import "github.com/google/uuid"

// IDGenerator produces sweep IDs.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator produces time-sortable UUIDv7 sweep IDs.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7. It panics if the system
// random source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
