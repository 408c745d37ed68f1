package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/tms-platform/tracking-service/pkg/middleware"
)

// ErrUnknownToken is returned when a token is not in the credential set
var ErrUnknownToken = errors.New("unknown api token")

// StaticTokenResolver resolves bearer tokens against a fixed credential set
// loaded at startup. Entries are parsed from "token:actorId:role:org" tuples
// separated by commas, e.g. "tok-1:alice:admin:org-1,tok-2:scanner-7:driver:org-1".
type StaticTokenResolver struct {
	actors map[string]middleware.Actor
}

// NewStaticTokenResolver parses the credential spec into a resolver
func NewStaticTokenResolver(spec string) *StaticTokenResolver {
	actors := make(map[string]middleware.Actor)
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 4 {
			continue
		}
		actors[parts[0]] = middleware.Actor{
			ID:   parts[1],
			Role: parts[2],
			Org:  parts[3],
		}
	}
	return &StaticTokenResolver{actors: actors}
}

// ResolveToken implements middleware.TokenResolver
func (r *StaticTokenResolver) ResolveToken(_ context.Context, token string) (*middleware.Actor, error) {
	actor, ok := r.actors[token]
	if !ok {
		return nil, ErrUnknownToken
	}
	return &actor, nil
}

// Size returns the number of configured credentials
func (r *StaticTokenResolver) Size() int {
	return len(r.actors)
}
