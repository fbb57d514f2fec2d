package repository

import (
	"context"
	"strings"
	"time"

	auth "github.com/goliatone/go-auth-gate"
	"github.com/goliatone/go-auth-gate/client"
	goerrors "github.com/goliatone/go-errors"
	bunrepo "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrProfileNotFound is returned when no profile exists for a uid.
var ErrProfileNotFound = goerrors.New("profile not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ProfileRepository stores public profiles using Bun, keyed by uid.
type ProfileRepository struct {
	bunrepo.Repository[*auth.Profile]
	db *bun.DB
}

// NewProfileRepository creates a new repository.
func NewProfileRepository(db *bun.DB) *ProfileRepository {
	handlers := bunrepo.ModelHandlers[*auth.Profile]{
		NewRecord: func() *auth.Profile {
			return &auth.Profile{}
		},
		GetID: func(record *auth.Profile) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *auth.Profile, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
		GetIdentifier: func() string {
			return "uid"
		},
	}
	return &ProfileRepository{
		Repository: bunrepo.NewRepository(db, handlers),
		db:         db,
	}
}

// Migrate creates the profiles table if it does not exist.
func (r *ProfileRepository) Migrate(ctx context.Context) error {
	_, err := r.db.NewCreateTable().
		Model((*auth.Profile)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create profiles table")
	}
	return nil
}

// Create inserts profile unless a profile with the same uid already exists.
// It returns the stored profile and whether this call created it, so
// repeated calls for the same principal are safe.
func (r *ProfileRepository) Create(ctx context.Context, profile *auth.Profile) (*auth.Profile, bool, error) {
	return r.CreateTx(ctx, r.db, profile)
}

// CreateTx is Create running on tx.
func (r *ProfileRepository) CreateTx(ctx context.Context, tx bun.IDB, profile *auth.Profile) (*auth.Profile, bool, error) {
	if profile == nil || strings.TrimSpace(profile.UID) == "" {
		return nil, false, goerrors.New("profile uid is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	stored, err := r.GetByUIDTx(ctx, tx, profile.UID)
	if err == nil {
		return stored, false, nil
	}
	if !goerrors.IsNotFound(err) {
		return nil, false, err
	}

	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	now := time.Now().UTC()
	if profile.CreatedAt == nil {
		profile.CreatedAt = &now
	}
	profile.UpdatedAt = &now

	created, createErr := r.Repository.CreateTx(ctx, tx, profile)
	if createErr == nil {
		return created, true, nil
	}

	// a concurrent writer may have inserted the same uid first
	if stored, err := r.GetByUIDTx(ctx, tx, profile.UID); err == nil {
		return stored, false, nil
	}
	return nil, false, goerrors.Wrap(createErr, goerrors.CategoryInternal, "could not create profile").
		WithMetadata(map[string]any{"uid": profile.UID})
}

// GetByUID returns the profile for a principal subject.
func (r *ProfileRepository) GetByUID(ctx context.Context, uid string) (*auth.Profile, error) {
	return r.GetByUIDTx(ctx, r.db, uid)
}

// GetByUIDTx is GetByUID running on tx.
func (r *ProfileRepository) GetByUIDTx(ctx context.Context, tx bun.IDB, uid string) (*auth.Profile, error) {
	profile, err := r.Repository.GetByIdentifierTx(ctx, tx, uid)
	if err != nil {
		if bunrepo.IsRecordNotFound(err) {
			clone := ErrProfileNotFound.Clone()
			clone.Source = err
			return nil, clone.WithMetadata(map[string]any{"uid": uid})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve profile")
	}
	return profile, nil
}

// ProfileWriter exposes the repository as the client createProfile
// capability for hosts that run the credential flow in-process.
type ProfileWriter struct {
	repo *ProfileRepository
}

// NewProfileWriter wraps repo.
func NewProfileWriter(repo *ProfileRepository) *ProfileWriter {
	return &ProfileWriter{repo: repo}
}

var _ client.ProfileWriter = (*ProfileWriter)(nil)

// CreateProfile implements client.ProfileWriter.
func (w *ProfileWriter) CreateProfile(ctx context.Context, principal *client.Principal, attrs *auth.ProfileAttributes) error {
	if principal == nil {
		return goerrors.New("principal is required", goerrors.CategoryBadInput)
	}
	profile := auth.NewProfile(principal.UID, principal.Email, principal.ProviderID, attrs)
	_, _, err := w.repo.Create(ctx, profile)
	return err
}
