// Package profile derives a consistent user view from a session plus the
// persisted profile records, creating missing records on first sight.
package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/artstore/artstore/internal/client/models"
	"github.com/artstore/artstore/internal/client/remote"
	"github.com/artstore/artstore/internal/logging"
)

// Reconciler ensures the base profile and the role-specific profile exist
// for a session's subject and merges them into a normalized user.
type Reconciler struct {
	client remote.Client
	logger logging.Logger
}

func NewReconciler(client remote.Client, logger logging.Logger) *Reconciler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Reconciler{client: client, logger: logger}
}

// Reconcile resolves a session to a user view. A nil session resolves to a
// nil user. For a present session the result is never nil: when profile
// access degrades, a minimal user built from the session alone is returned
// so the UI always has something to show. Reconcile never returns an error;
// failures are logged.
//
// Safe to call repeatedly for the same subject: existing records are left
// alone, missing ones are created exactly once.
func (r *Reconciler) Reconcile(ctx context.Context, session *models.Session) *models.User {
	if session == nil {
		return nil
	}

	user, err := r.reconcile(ctx, session)
	if err != nil {
		r.logger.Error(ctx, "profile reconciliation degraded, using session-only user",
			"user_id", session.UserID, "error", err)
		return fallbackUser(session)
	}
	return user
}

func (r *Reconciler) reconcile(ctx context.Context, session *models.Session) (*models.User, error) {
	var base models.BaseProfile
	err := r.client.SelectRecord(ctx, remote.TableProfiles, session.UserID, &base)
	if err != nil {
		if !errors.Is(err, remote.ErrNoRows) {
			// Treated as not-found: a transient read failure must not block
			// first-time provisioning.
			r.logger.Warn(ctx, "base profile fetch failed, attempting creation",
				"user_id", session.UserID, "error", err)
		}
		base = seedBaseProfile(session)
		if err := r.client.InsertRecord(ctx, remote.TableProfiles, &base); err != nil {
			return nil, fmt.Errorf("create base profile: %w", err)
		}
		r.logger.Info(ctx, "created base profile", "user_id", session.UserID, "role", base.UserType)
	}

	role := effectiveRole(&base, session)

	if err := r.EnsureRoleProfile(ctx, session.UserID, role); err != nil {
		// Degrades gracefully: the user view is still usable without the
		// role row.
		r.logger.Warn(ctx, "role profile reconciliation failed",
			"user_id", session.UserID, "role", role, "error", err)
	}

	return buildUser(session, &base, role), nil
}

// EnsureRoleProfile guarantees a row exists for userID in the role table
// matching role. Only the distinguished "no rows" code triggers creation;
// any other read error is logged and left alone. A stale row in the other
// role table is never touched.
func (r *Reconciler) EnsureRoleProfile(ctx context.Context, userID string, role models.Role) error {
	table := remote.RoleProfileTable(role)

	probe := struct {
		ID string `json:"id"`
	}{}
	err := r.client.SelectRecord(ctx, table, userID, &probe)
	if err == nil {
		return nil
	}
	if !errors.Is(err, remote.ErrNoRows) {
		r.logger.Warn(ctx, "role profile fetch failed", "table", table, "user_id", userID, "error", err)
		return nil
	}

	if err := r.client.InsertRecord(ctx, table, map[string]string{"id": userID}); err != nil {
		return fmt.Errorf("create role profile in %s: %w", table, err)
	}
	r.logger.Info(ctx, "created role profile", "table", table, "user_id", userID)
	return nil
}

// effectiveRole prefers the stored profile role, then the role requested at
// registration, then buyer.
func effectiveRole(base *models.BaseProfile, session *models.Session) models.Role {
	if base.UserType != "" {
		return models.ParseRole(string(base.UserType))
	}
	return session.MetadataRole()
}

// seedBaseProfile builds a first-time profile row from what the session
// already knows about the user.
func seedBaseProfile(session *models.Session) models.BaseProfile {
	username := session.Metadata.Username
	if username == "" {
		username = models.UsernameFromEmail(session.Email)
	}
	return models.BaseProfile{
		ID:       session.UserID,
		Username: username,
		UserType: session.MetadataRole(),
		IsArtist: session.Metadata.IsArtist,
	}
}

// buildUser merges profile fields with session fields as fallback for
// blanks.
func buildUser(session *models.Session, base *models.BaseProfile, role models.Role) *models.User {
	username := base.Username
	if username == "" {
		username = models.UsernameFromEmail(session.Email)
	}
	return &models.User{
		ID:         session.UserID,
		Email:      session.Email,
		Username:   username,
		FullName:   base.FullName,
		AvatarURL:  base.AvatarURL,
		UserType:   role,
		Bio:        base.Bio,
		Website:    base.Website,
		IsArtist:   base.IsArtist || session.Metadata.IsArtist,
		IsVerified: base.IsVerified,
	}
}

// fallbackUser is the minimal view used when reconciliation degraded: the
// session identity plus whatever the signup metadata claimed.
func fallbackUser(session *models.Session) *models.User {
	return &models.User{
		ID:       session.UserID,
		Email:    session.Email,
		Username: models.UsernameFromEmail(session.Email),
		UserType: session.MetadataRole(),
		IsArtist: session.Metadata.IsArtist,
	}
}
