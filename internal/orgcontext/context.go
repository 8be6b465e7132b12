package orgcontext

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type key string

var orgIDKey key = "org_id"

// WithOrgID returns a new context carrying the scope (organization) identifier.
func WithOrgID(ctx context.Context, id snowflake.ID) context.Context {
	return context.WithValue(ctx, orgIDKey, id)
}

// OrgIDFromContext extracts the scope identifier set by the auth middleware.
func OrgIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	id, ok := ctx.Value(orgIDKey).(snowflake.ID)
	return id, ok
}
