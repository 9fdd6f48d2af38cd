package testutil

// FixedIDGenerator returns the same sweep ID every time, so ledger contents
// and rendered reports are byte-identical across test runs.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator returns a generator for id, or "sweep-test" when empty.
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "sweep-test"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed ID.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
