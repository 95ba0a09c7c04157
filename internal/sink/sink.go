// Package sink defines the boundary to the chat-delivery collaborator.
package sink

import "context"

// Sink delivers one text payload to the downstream chat endpoint. Payloads
// must not exceed Limit; splitting oversized content is the dispatcher's job.
type Sink interface {
	Send(ctx context.Context, content string) error
	// Limit is the maximum payload size in characters the sink accepts.
	Limit() int
}
