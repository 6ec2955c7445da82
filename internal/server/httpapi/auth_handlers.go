package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/artstore/artstore/internal/common"
)

type signUpRequest struct {
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Data     json.RawMessage `json:"data"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthError(w, http.StatusBadRequest, "bad_json", "malformed request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeAuthError(w, http.StatusBadRequest, "validation_failed", "email and password are required")
		return
	}

	user, session, err := s.auth.SignUp(r.Context(), req.Email, req.Password, req.Data)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			writeAuthError(w, http.StatusUnprocessableEntity, "user_already_exists", "a user with this email already exists")
			return
		}
		s.logger.Error(r.Context(), "signup failed", "error", err)
		writeAuthError(w, http.StatusInternalServerError, "unexpected_failure", "signup failed")
		return
	}

	writeJSON(w, http.StatusOK, signUpResponse{
		User:    toUserPayload(user),
		Session: toSessionPayload(session, user),
	})
}

type passwordGrantRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req passwordGrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthError(w, http.StatusBadRequest, "bad_json", "malformed request body")
		return
	}

	switch r.URL.Query().Get("grant_type") {
	case "password":
		s.passwordGrant(w, r, req.Email, req.Password)
	case "refresh_token":
		s.refreshGrant(w, r, req.RefreshToken)
	default:
		writeAuthError(w, http.StatusBadRequest, "unsupported_grant_type", "unsupported grant type")
	}
}

func (s *Server) passwordGrant(w http.ResponseWriter, r *http.Request, email, password string) {
	user, session, err := s.auth.SignIn(r.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorUnauthorized):
			writeAuthError(w, http.StatusBadRequest, "invalid_credentials", "Invalid login credentials")
		case errors.Is(err, common.ErrorEmailNotConfirmed):
			writeAuthError(w, http.StatusBadRequest, "email_not_confirmed", "Email not confirmed")
		default:
			s.logger.Error(r.Context(), "password grant failed", "error", err)
			writeAuthError(w, http.StatusInternalServerError, "unexpected_failure", "login failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, toSessionPayload(session, user))
}

func (s *Server) refreshGrant(w http.ResponseWriter, r *http.Request, refreshToken string) {
	user, session, err := s.auth.Refresh(r.Context(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrRefreshTokenExpired):
			writeAuthError(w, http.StatusUnauthorized, "invalid_grant", "invalid or expired refresh token")
		default:
			s.logger.Error(r.Context(), "refresh grant failed", "error", err)
			writeAuthError(w, http.StatusInternalServerError, "unexpected_failure", "refresh failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, toSessionPayload(session, user))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeAuthError(w, http.StatusUnauthorized, "no_authorization", "missing bearer token")
		return
	}
	userID, err := s.auth.VerifyAccessToken(token)
	if err != nil {
		writeAuthError(w, http.StatusUnauthorized, "invalid_token", "invalid or expired token")
		return
	}
	if err := s.auth.SignOut(r.Context(), userID); err != nil {
		s.logger.Error(r.Context(), "logout failed", "user_id", userID, "error", err)
		writeAuthError(w, http.StatusInternalServerError, "unexpected_failure", "logout failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeAuthError(w, http.StatusUnauthorized, "no_authorization", "missing bearer token")
		return
	}
	userID, err := s.auth.VerifyAccessToken(token)
	if err != nil {
		writeAuthError(w, http.StatusUnauthorized, "invalid_token", "invalid or expired token")
		return
	}
	user, err := s.auth.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeAuthError(w, http.StatusNotFound, "user_not_found", "no such user")
			return
		}
		s.logger.Error(r.Context(), "get user failed", "user_id", userID, "error", err)
		writeAuthError(w, http.StatusInternalServerError, "unexpected_failure", "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, toUserPayload(user))
}

type verifyRequest struct {
	UserID string `json:"user_id"`
}

// handleVerify marks an address confirmed. It stands in for the hosted
// backend's email link flow; only the dev server exposes it.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeAuthError(w, http.StatusBadRequest, "validation_failed", "user_id is required")
		return
	}
	if err := s.auth.ConfirmEmail(r.Context(), req.UserID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeAuthError(w, http.StatusNotFound, "user_not_found", "no such user")
			return
		}
		s.logger.Error(r.Context(), "verify failed", "error", err)
		writeAuthError(w, http.StatusInternalServerError, "unexpected_failure", "verify failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
