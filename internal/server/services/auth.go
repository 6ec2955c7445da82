// Package services contains the dev backend's business logic. This file
// implements AuthService: registration with profile provisioning, login,
// refresh-token rotation, and logout.
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/artstore/artstore/internal/common"
	"github.com/artstore/artstore/internal/dbx"
	"github.com/artstore/artstore/internal/server/auth"
	"github.com/artstore/artstore/internal/server/config"
	"github.com/artstore/artstore/internal/server/models"
	"github.com/artstore/artstore/internal/server/repositories/repomanager"
)

// Session bundles a short-lived access token with a rotating refresh token.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// signupMetadata is the slice of registration metadata the server acts on
// when seeding the base profile; the full blob is stored as supplied.
type signupMetadata struct {
	UserType string `json:"user_type"`
	IsArtist bool   `json:"is_artist"`
	Username string `json:"username"`
}

// AuthService provides authentication operations:
//   - SignUp: create the identity and provision its base profile
//   - SignIn: verify credentials and mint tokens
//   - Refresh: rotate refresh tokens and mint new access tokens
//   - SignOut: revoke every refresh token of a user
type AuthService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	requireEmailConfirmation     bool
}

// NewAuthService constructs an AuthService using repositories and server config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *AuthService {
	return &AuthService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		requireEmailConfirmation:     cfg.RequireEmailConfirmation,
	}
}

// SignUp creates the auth identity and, in the same transaction, the base
// profile row seeded from the registration metadata. When email confirmation
// is required the returned session is nil.
func (s *AuthService) SignUp(ctx context.Context, email, password string, metadata json.RawMessage) (*models.AuthUser, *Session, error) {
	hash, err := auth.HashPassword([]byte(password))
	if err != nil {
		return nil, nil, common.ErrorInternal
	}
	if len(metadata) == 0 {
		metadata = json.RawMessage(`{}`)
	}

	var meta signupMetadata
	_ = json.Unmarshal(metadata, &meta)
	if meta.UserType == "" {
		meta.UserType = "buyer"
	}

	user := &models.AuthUser{
		Email:          email,
		PasswordHash:   hash,
		EmailConfirmed: !s.requireEmailConfirmation,
		Metadata:       metadata,
	}

	var session *Session
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Users(tx).Create(ctx, user)
		if err != nil {
			return err
		}
		user = created

		profile := map[string]any{
			"id":        user.ID,
			"username":  meta.Username,
			"user_type": meta.UserType,
			"is_artist": meta.IsArtist,
		}
		if err := s.repomanager.Records(tx).Insert(ctx, "profiles", profile); err != nil {
			return fmt.Errorf("provision profile: %w", err)
		}

		if user.EmailConfirmed {
			var genErr error
			session, genErr = s.generateSession(ctx, user, tx)
			return genErr
		}
		return nil
	}); err != nil {
		return nil, nil, err
	}

	return user, session, nil
}

// SignIn verifies credentials and returns the user with a fresh session.
// Unknown addresses and wrong passwords are indistinguishable to the caller.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*models.AuthUser, *Session, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, common.ErrorInternal
	}

	if !auth.CheckPassword(user.PasswordHash, []byte(password)) {
		return nil, nil, common.ErrorUnauthorized
	}
	if !user.EmailConfirmed {
		return nil, nil, common.ErrorEmailNotConfirmed
	}

	session, err := s.generateSession(ctx, user, s.db)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Refresh validates a refresh token, rotates it transactionally, and returns
// the user with a fresh session. Expired tokens yield ErrRefreshTokenExpired.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.AuthUser, *Session, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, nil, common.ErrRefreshTokenExpired
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, token.UserID)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}

	var session *Session
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		session, genErr = s.generateSession(ctx, user, tx)
		return genErr
	}); err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// SignOut revokes every refresh token of userID. The already-issued access
// token stays valid until expiry; its lifetime is short.
func (s *AuthService) SignOut(ctx context.Context, userID string) error {
	return s.repomanager.RefreshTokens(s.db).DeleteForUser(ctx, userID)
}

// ConfirmEmail marks the address verified. Exposed by the dev API in place
// of a real email delivery pipeline.
func (s *AuthService) ConfirmEmail(ctx context.Context, userID string) error {
	return s.repomanager.Users(s.db).ConfirmEmail(ctx, userID)
}

// GetUser loads the identity behind an access token subject.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*models.AuthUser, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, userID)
}

// VerifyAccessToken returns the subject of a valid access token.
func (s *AuthService) VerifyAccessToken(tokenString string) (string, error) {
	return auth.GetUserIDFromToken(tokenString, s.jwtSecret)
}

// --- helpers below ---

func (s *AuthService) generateSession(ctx context.Context, user *models.AuthUser, tx dbx.DBTX) (*Session, error) {
	access, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh := common.RandomHex(32)

	if err := s.repomanager.RefreshTokens(tx).Create(ctx, user.ID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTokenValidityDuration.Seconds()),
	}, nil
}
