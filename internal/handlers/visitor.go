package handlers

import "context"

type visitorKey struct{}

// Visitor identifies who is calling, as far as the request headers tell.
// Link events carry it to analytics.
type Visitor struct {
	IP        string
	UserAgent string
	Referrer  string
}

func WithVisitor(ctx context.Context, v Visitor) context.Context {
	return context.WithValue(ctx, visitorKey{}, v)
}

// VisitorFrom returns the visitor stored in ctx, or the zero Visitor.
func VisitorFrom(ctx context.Context) Visitor {
	v, _ := ctx.Value(visitorKey{}).(Visitor)

	return v
}
