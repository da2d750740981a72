package testutil

import "time"

// StubDateExtractor answers with fixed capture dates per path.
// Paths without an entry report no capture date.
type StubDateExtractor struct {
	Dates map[string]time.Time
}

func NewStubDateExtractor() *StubDateExtractor {
	return &StubDateExtractor{Dates: make(map[string]time.Time)}
}

func (e *StubDateExtractor) Set(path string, taken time.Time) *StubDateExtractor {
	e.Dates[path] = taken
	return e
}

func (e *StubDateExtractor) Taken(path string) (time.Time, bool) {
	taken, ok := e.Dates[path]
	return taken, ok
}
