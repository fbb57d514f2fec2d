// Package graph exposes the GraphQL query surface. Public fields resolve for
// every caller; protected fields go through auth.Protected.
package graph

import (
	"context"
	_ "embed"
	"fmt"

	auth "github.com/goliatone/go-auth-gate"
	goerrors "github.com/goliatone/go-errors"
	"github.com/graph-gophers/graphql-go"
)

//go:embed schema.graphql
var schemaSDL string

// ProfileStore is the persistence used by the profile fields.
type ProfileStore interface {
	Create(ctx context.Context, profile *auth.Profile) (*auth.Profile, bool, error)
	GetByUID(ctx context.Context, uid string) (*auth.Profile, error)
}

// Resolver is the root resolver for queries and mutations.
type Resolver struct {
	profiles ProfileStore
	logger   auth.Logger

	hello         func(context.Context) (string, error)
	protectedData func(context.Context) (string, error)
	me            func(context.Context) (*profileResolver, error)
}

// NewResolver creates the root resolver. profiles may be nil, in which case
// the profile fields report an internal error.
func NewResolver(profiles ProfileStore, logger auth.Logger) *Resolver {
	if logger == nil {
		logger = auth.DefaultLogger()
	}
	r := &Resolver{
		profiles: profiles,
		logger:   logger,
	}
	r.hello = auth.Public(r.resolveHello)
	r.protectedData = auth.Protected(r.resolveProtectedData)
	r.me = auth.Protected(r.resolveMe)
	return r
}

// NewSchema parses the schema bound to resolver.
func NewSchema(resolver *Resolver) (*graphql.Schema, error) {
	return graphql.ParseSchema(schemaSDL, resolver)
}

// Hello resolves the public greeting.
func (r *Resolver) Hello(ctx context.Context) (string, error) {
	return r.hello(ctx)
}

// ProtectedData greets the authenticated principal.
func (r *Resolver) ProtectedData(ctx context.Context) (string, error) {
	out, err := r.protectedData(ctx)
	if err != nil {
		return "", r.fail(err)
	}
	return out, nil
}

// Me returns the profile of the authenticated principal.
func (r *Resolver) Me(ctx context.Context) (*profileResolver, error) {
	out, err := r.me(ctx)
	if err != nil {
		return nil, r.fail(err)
	}
	return out, nil
}

type profileInput struct {
	DisplayName *string
	Phone       *string
	Age         *int32
}

type createProfileArgs struct {
	Input *profileInput
}

// CreateProfile creates the profile of the authenticated principal unless it
// already exists, and returns the stored profile.
func (r *Resolver) CreateProfile(ctx context.Context, args createProfileArgs) (*profileResolver, error) {
	create := auth.Protected(func(ctx context.Context, claims *auth.Claims) (*profileResolver, error) {
		return r.resolveCreateProfile(ctx, claims, args.Input)
	})
	out, err := create(ctx)
	if err != nil {
		return nil, r.fail(err)
	}
	return out, nil
}

func (r *Resolver) resolveHello(context.Context) (string, error) {
	return "Hello, world!", nil
}

func (r *Resolver) resolveProtectedData(_ context.Context, claims *auth.Claims) (string, error) {
	return fmt.Sprintf("Welcome, %s! Here is your protected data.", claims.DisplayName()), nil
}

func (r *Resolver) resolveMe(ctx context.Context, claims *auth.Claims) (*profileResolver, error) {
	if r.profiles == nil {
		return nil, errNoProfileStore()
	}
	profile, err := r.profiles.GetByUID(ctx, claims.UserID())
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &profileResolver{profile: profile}, nil
}

func (r *Resolver) resolveCreateProfile(ctx context.Context, claims *auth.Claims, input *profileInput) (*profileResolver, error) {
	if r.profiles == nil {
		return nil, errNoProfileStore()
	}

	var attrs *auth.ProfileAttributes
	if input != nil {
		attrs = &auth.ProfileAttributes{}
		if input.DisplayName != nil {
			attrs.DisplayName = *input.DisplayName
		}
		if input.Phone != nil {
			attrs.Phone = *input.Phone
		}
		if input.Age != nil {
			attrs.Age = int(*input.Age)
		}
	}
	if attrs == nil || attrs.DisplayName == "" {
		if attrs == nil {
			attrs = &auth.ProfileAttributes{}
		}
		attrs.DisplayName = claims.Name()
	}

	profile := auth.NewProfile(claims.UserID(), claims.Email(), claims.SignInProvider(), attrs)
	stored, created, err := r.profiles.Create(ctx, profile)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("profile write", "uid", claims.UserID(), "created", created)
	return &profileResolver{profile: stored}, nil
}

func (r *Resolver) fail(err error) error {
	if auth.IsUnauthenticated(err) {
		r.logger.Debug("rejected anonymous request to protected field")
	} else {
		r.logger.Error("resolver error", "error", err)
	}
	return newResolverError(err)
}

func errNoProfileStore() error {
	return goerrors.New("profile store is not configured", goerrors.CategoryInternal)
}

type profileResolver struct {
	profile *auth.Profile
}

func (p *profileResolver) UID() string { return p.profile.UID }

func (p *profileResolver) DisplayName() *string { return optional(p.profile.DisplayName) }

func (p *profileResolver) Email() *string { return optional(p.profile.Email) }

func (p *profileResolver) Phone() *string { return optional(p.profile.Phone) }

func (p *profileResolver) Provider() *string { return optional(p.profile.Provider) }

func (p *profileResolver) Age() *int32 {
	if p.profile.Age == nil {
		return nil
	}
	age := int32(*p.profile.Age)
	return &age
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
