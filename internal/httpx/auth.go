package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/agromarket/internal/identity"
)

const (
	HeaderActorID    = "X-Actor-ID"
	HeaderActorRoles = "X-Actor-Roles"
	actorKey         = "actor"
)

// Authenticator resolves the current actor from, in order: a bearer token
// when Verifier is set, X-Actor-ID through Directory, or X-Actor-ID plus
// X-Actor-Roles when TrustHeaders is set. Requests without credentials
// continue anonymously.
type Authenticator struct {
	Verifier     *identity.Verifier
	Directory    identity.Directory
	TrustHeaders bool
}

func (a Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := a.resolve(c)
		if err != nil {
			switch {
			case errors.Is(err, identity.ErrInvalidToken), errors.Is(err, identity.ErrUnknownActor):
				abort(c, http.StatusUnauthorized, "UNAUTHENTICATED", "UNAUTHENTICATED", "invalid credentials")
			default:
				abort(c, http.StatusBadGateway, "DEPENDENCY_FAILURE", "IDENTITY_UNAVAILABLE", "identity lookup failed")
			}
			return
		}
		if !actor.IsZero() {
			c.Set(actorKey, actor)
			c.Request = c.Request.WithContext(identity.WithActor(c.Request.Context(), actor))
		}
		c.Next()
	}
}

func (a Authenticator) resolve(c *gin.Context) (identity.Actor, error) {
	if a.Verifier != nil {
		if h := c.GetHeader("Authorization"); h != "" {
			return a.Verifier.Verify(h)
		}
	}
	id := strings.TrimSpace(c.GetHeader(HeaderActorID))
	if id == "" {
		return identity.Actor{}, nil
	}
	if a.Directory != nil {
		return a.Directory.Lookup(c.Request.Context(), id)
	}
	if a.TrustHeaders {
		return identity.Actor{ID: id, Roles: identity.ParseRoles(c.GetHeader(HeaderActorRoles))}, nil
	}
	return identity.Actor{}, nil
}

// CurrentActor returns the authenticated actor, or the zero Actor.
func CurrentActor(c *gin.Context) identity.Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(identity.Actor); ok {
			return a
		}
	}
	return identity.Actor{}
}
