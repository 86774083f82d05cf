package mocks

import (
	"sync"

	"github.com/SergeiKhy/shorturl/internal/idgen"
)

// SequenceIDs hands out the scripted codes first, then falls back to random ones
type SequenceIDs struct {
	mu    sync.Mutex
	Codes []string
}

func (s *SequenceIDs) NewInternalID() string {
	return idgen.NewInternalID()
}

func (s *SequenceIDs) NewPublicCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Codes) == 0 {
		return idgen.NewPublicCode()
	}
	code := s.Codes[0]
	s.Codes = s.Codes[1:]
	return code
}
