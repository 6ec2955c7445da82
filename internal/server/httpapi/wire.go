package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/artstore/artstore/internal/server/models"
	"github.com/artstore/artstore/internal/server/services"
)

// Wire DTOs. The shapes mirror the hosted backend the client was written
// against; changing them breaks the client's remote package.

type userPayload struct {
	ID           string          `json:"id"`
	Email        string          `json:"email"`
	UserMetadata json.RawMessage `json:"user_metadata"`
}

type sessionPayload struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	User         *userPayload `json:"user"`
}

type signUpResponse struct {
	User    *userPayload    `json:"user"`
	Session *sessionPayload `json:"session"`
}

type authErrorBody struct {
	ErrorCode string `json:"error_code"`
	Msg       string `json:"msg"`
}

type restErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// pgrstNoRows is the distinguished "zero rows for a single-object request"
// code the client matches on.
const pgrstNoRows = "PGRST116"

func toUserPayload(user *models.AuthUser) *userPayload {
	metadata := user.Metadata
	if len(metadata) == 0 {
		metadata = json.RawMessage(`{}`)
	}
	return &userPayload{ID: user.ID, Email: user.Email, UserMetadata: metadata}
}

func toSessionPayload(session *services.Session, user *models.AuthUser) *sessionPayload {
	if session == nil {
		return nil
	}
	return &sessionPayload{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    session.ExpiresIn,
		User:         toUserPayload(user),
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeAuthError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, authErrorBody{ErrorCode: code, Msg: msg})
}

func writeRestError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, restErrorBody{Code: code, Message: msg})
}
