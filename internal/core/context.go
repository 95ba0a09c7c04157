package core

import "context"

type digestKey struct{}
type runIDKey struct{}

func WithDigest(ctx context.Context, digest string) context.Context {
	if ctx == nil || digest == "" {
		return ctx
	}
	return context.WithValue(ctx, digestKey{}, digest)
}

func WithRunID(ctx context.Context, runID string) context.Context {
	if ctx == nil || runID == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey{}, runID)
}

func DigestFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(digestKey{}).(string); ok {
		return v
	}
	return ""
}

func RunIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(runIDKey{}).(string); ok {
		return v
	}
	return ""
}
