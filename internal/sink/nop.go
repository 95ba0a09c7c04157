package sink

import (
	"context"
	"fmt"
)

// Nop is a disabled sink. Dry-run mode never calls Send, so Nop lets the
// pipeline run without webhook credentials; any real send fails loudly.
type Nop struct{}

func (Nop) Limit() int {
	return 2000
}

func (Nop) Send(ctx context.Context, content string) error {
	_ = ctx
	_ = content
	return fmt.Errorf("sink is disabled")
}
