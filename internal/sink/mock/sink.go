package mock

import (
	"context"
	"strings"
)

// Sink records payloads and can fail specific sends for tests.
type Sink struct {
	MaxPayload int
	Sent       []string
	// FailOn makes Send return Err only when the payload contains the
	// substring. Empty FailOn fails every send once Err is set.
	FailOn string
	Err    error
}

func (s *Sink) Limit() int {
	if s.MaxPayload > 0 {
		return s.MaxPayload
	}
	return 2000
}

func (s *Sink) Send(ctx context.Context, content string) error {
	_ = ctx
	if s.Err != nil && (s.FailOn == "" || strings.Contains(content, s.FailOn)) {
		return s.Err
	}
	s.Sent = append(s.Sent, content)
	return nil
}
