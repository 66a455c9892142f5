package identity

import (
	"context"
	"slices"
	"strings"
)

type Role string

const (
	RoleClient     Role = "client"
	RoleProducteur Role = "producteur"
	RoleVendeur    Role = "vendeur"
	RoleLivreur    Role = "livreur"
	RoleAdmin      Role = "admin"
	RoleSystem     Role = "system"
)

// Actor is whoever drives the current operation.
type Actor struct {
	ID    string `json:"id"`
	Roles []Role `json:"roles"`
}

// System is the actor used by the workflow for transitions no user may request.
func System() Actor {
	return Actor{ID: "system", Roles: []Role{RoleSystem}}
}

func (a Actor) Has(r Role) bool { return slices.Contains(a.Roles, r) }

func (a Actor) IsZero() bool { return a.ID == "" }

// ParseRoles accepts a comma separated list and drops empty or unknown entries.
func ParseRoles(csv string) []Role {
	var out []Role
	for _, raw := range strings.Split(csv, ",") {
		r := Role(strings.ToLower(strings.TrimSpace(raw)))
		switch r {
		case RoleClient, RoleProducteur, RoleVendeur, RoleLivreur, RoleAdmin:
			if !slices.Contains(out, r) {
				out = append(out, r)
			}
		}
	}
	return out
}

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// FromContext returns the actor stored by the auth middleware.
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok && !a.IsZero()
}
