// Package auditctx attaches an audit identity (actor and service name) to a
// worker cycle's context, distinguishing automated worker-initiated activity
// from manual intervention. The Executor tags its cycle context with it;
// broker calls take no context and Store.LogEvent does not record these
// values.
package auditctx

import "context"

type contextKey string

const (
	actorKey   contextKey = "audit_actor"
	serviceKey contextKey = "audit_service"
)

// ActorFromCtx extracts the audit actor from context, defaulting to
// "unknown" if none was set.
func ActorFromCtx(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey).(string); ok {
		return actor
	}
	return "unknown"
}

// ServiceFromCtx extracts the originating worker's service name from
// context, defaulting to "unknown" if none was set.
func ServiceFromCtx(ctx context.Context) string {
	if svc, ok := ctx.Value(serviceKey).(string); ok {
		return svc
	}
	return "unknown"
}

// NewWorkerContext builds a child context tagged as originating from the
// named worker service, run by the engine itself rather than a human
// operator.
func NewWorkerContext(parent context.Context, service string) context.Context {
	ctx := context.WithValue(parent, actorKey, "engine")
	ctx = context.WithValue(ctx, serviceKey, service)
	return ctx
}
