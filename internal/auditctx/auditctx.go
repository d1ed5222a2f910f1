package auditctx

import "context"

// Actor is the authenticated caller behind a request. Services read it to
// attribute audit entries and to scope queries to the caller's tenant.
type Actor struct {
	UserID    string
	Subject   string
	TenantID  string
	Role      string
	IPAddress string
	UserAgent string
}

// System is the actor used for scheduled jobs and other internal callers.
var System = Actor{Subject: "system"}

type actorContextKey struct{}

// WithActor returns a derived context carrying actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// FromContext extracts previously stored actor metadata from the context.
func FromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
