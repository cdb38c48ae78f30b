package obs

import "context"

type routePatternKey struct{}

// WithRoutePattern records the matched chi route pattern on the context so
// metrics can label by template instead of raw path.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext returns the recorded pattern, or "" when absent.
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(routePatternKey{}).(string)
	return v
}
