package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// GetActorMethod is the identity service RPC: StringValue(actor id) -> Struct{id, roles}.
const GetActorMethod = "/identity.v1.Directory/GetActor"

var ErrUnknownActor = errors.New("unknown actor")

// Directory resolves an actor id to its roles.
type Directory interface {
	Lookup(ctx context.Context, id string) (Actor, error)
}

type GRPCDirectory struct {
	conn    grpc.ClientConnInterface
	timeout time.Duration
}

// Dial opens a non-blocking connection to the identity service.
func Dial(addr string) (*grpc.ClientConn, error) {
	return grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

func NewGRPCDirectory(conn grpc.ClientConnInterface, timeout time.Duration) *GRPCDirectory {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &GRPCDirectory{conn: conn, timeout: timeout}
}

func (d *GRPCDirectory) Lookup(ctx context.Context, id string) (Actor, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	out := &structpb.Struct{}
	if err := d.conn.Invoke(ctx, GetActorMethod, wrapperspb.String(id), out); err != nil {
		if status.Code(err) == codes.NotFound {
			return Actor{}, ErrUnknownActor
		}
		return Actor{}, fmt.Errorf("identity lookup %s: %w", id, err)
	}
	return actorFromStruct(out)
}

func actorFromStruct(s *structpb.Struct) (Actor, error) {
	fields := s.GetFields()
	a := Actor{ID: fields["id"].GetStringValue()}
	if a.ID == "" {
		return Actor{}, fmt.Errorf("identity lookup: response without id")
	}
	var roles []string
	for _, v := range fields["roles"].GetListValue().GetValues() {
		roles = append(roles, v.GetStringValue())
	}
	a.Roles = ParseRoles(strings.Join(roles, ","))
	return a, nil
}

// StaticDirectory serves a fixed set of actors.
type StaticDirectory map[string][]Role

func (s StaticDirectory) Lookup(_ context.Context, id string) (Actor, error) {
	roles, ok := s[id]
	if !ok {
		return Actor{}, ErrUnknownActor
	}
	return Actor{ID: id, Roles: append([]Role(nil), roles...)}, nil
}
