package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/artstore/artstore/internal/common"
	"github.com/artstore/artstore/internal/dbx"
	"github.com/artstore/artstore/internal/server/auth"
	"github.com/artstore/artstore/internal/server/config"
	"github.com/artstore/artstore/internal/server/models"
	recordsrepo "github.com/artstore/artstore/internal/server/repositories/records"
	refreshtokensrepo "github.com/artstore/artstore/internal/server/repositories/refreshtokens"
	"github.com/artstore/artstore/internal/server/repositories/repomanager"
	usersrepo "github.com/artstore/artstore/internal/server/repositories/users"
)

// --- helpers ---

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func newAuthService(t *testing.T, db *sql.DB, rm repomanager.RepositoryManager, requireConfirm bool) *AuthService {
	t.Helper()
	cfg := &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
		RequireEmailConfirmation:     requireConfirm,
	}
	return NewAuthService(db, rm, cfg)
}

type fakeUsersRepo struct {
	createOut *models.AuthUser
	createErr error

	byEmailOut *models.AuthUser
	byEmailErr error

	byIDOut *models.AuthUser
	byIDErr error

	confirmErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.AuthUser) (*models.AuthUser, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	u.ID = "user-1"
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.AuthUser, error) {
	if f.byEmailErr != nil {
		return nil, f.byEmailErr
	}
	return f.byEmailOut, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.AuthUser, error) {
	if f.byIDErr != nil {
		return nil, f.byIDErr
	}
	return f.byIDOut, nil
}

func (f *fakeUsersRepo) ConfirmEmail(ctx context.Context, id string) error {
	return f.confirmErr
}

type fakeRefreshRepo struct {
	findOut *models.RefreshToken
	findErr error

	delErr        error
	delForUserErr error
	createErr     error

	created int
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created++
	return nil
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error { return f.delErr }

func (f *fakeRefreshRepo) DeleteForUser(ctx context.Context, userID string) error {
	return f.delForUserErr
}

type fakeRecordsRepo struct {
	insertErr error

	insertedTable  string
	insertedRecord map[string]any
}

func (f *fakeRecordsRepo) SelectByID(ctx context.Context, table, id string) (map[string]any, error) {
	return nil, common.ErrorNotFound
}

func (f *fakeRecordsRepo) Insert(ctx context.Context, table string, record map[string]any) error {
	f.insertedTable, f.insertedRecord = table, record
	return f.insertErr
}

func (f *fakeRecordsRepo) Update(ctx context.Context, table, id string, record map[string]any) error {
	return nil
}

type fakeRepoManager struct {
	u   *fakeUsersRepo
	r   *fakeRefreshRepo
	rec *fakeRecordsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error           { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository { return m.r }
func (m *fakeRepoManager) Records(db dbx.DBTX) recordsrepo.Repository             { return m.rec }

// --- SignUp ---

func TestSignUp_ProvisionsProfileAndSession(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{}, rec: &fakeRecordsRepo{}}
	s := newAuthService(t, db, rm, false)

	meta := json.RawMessage(`{"user_type":"seller","is_artist":true,"username":"alice"}`)
	user, session, err := s.SignUp(context.Background(), "alice@example.com", "pw", meta)
	if err != nil {
		t.Fatalf("SignUp error: %v", err)
	}
	if user.ID != "user-1" || !user.EmailConfirmed {
		t.Fatalf("unexpected user: %+v", user)
	}
	if session == nil || session.AccessToken == "" || session.RefreshToken == "" {
		t.Fatalf("expected session, got %+v", session)
	}

	if rm.rec.insertedTable != "profiles" {
		t.Fatalf("profile row went to %q", rm.rec.insertedTable)
	}
	row := rm.rec.insertedRecord
	if row["id"] != "user-1" || row["user_type"] != "seller" || row["is_artist"] != true || row["username"] != "alice" {
		t.Fatalf("unexpected profile row: %+v", row)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestSignUp_ConfirmationRequired_NoSession(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{}, rec: &fakeRecordsRepo{}}
	s := newAuthService(t, db, rm, true)

	user, session, err := s.SignUp(context.Background(), "bob@example.com", "pw", nil)
	if err != nil {
		t.Fatalf("SignUp error: %v", err)
	}
	if user.EmailConfirmed {
		t.Fatalf("user should be unconfirmed")
	}
	if session != nil {
		t.Fatalf("expected nil session, got %+v", session)
	}
	if rm.r.created != 0 {
		t.Fatalf("no refresh token should be created")
	}
	if rm.rec.insertedRecord["user_type"] != "buyer" {
		t.Fatalf("expected default buyer role, got %+v", rm.rec.insertedRecord)
	}
}

func TestSignUp_DuplicateEmailRollsBack(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{
		u:   &fakeUsersRepo{createErr: common.ErrorAlreadyExists},
		r:   &fakeRefreshRepo{},
		rec: &fakeRecordsRepo{},
	}
	s := newAuthService(t, db, rm, false)

	_, _, err := s.SignUp(context.Background(), "dup@example.com", "pw", nil)
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want ErrorAlreadyExists, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestSignUp_ProfileInsertErrRollsBack(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{
		u:   &fakeUsersRepo{},
		r:   &fakeRefreshRepo{},
		rec: &fakeRecordsRepo{insertErr: errBoom{}},
	}
	s := newAuthService(t, db, rm, false)

	_, _, err := s.SignUp(context.Background(), "x@example.com", "pw", nil)
	if err == nil || !regexp.MustCompile(`provision profile: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped provision error, got %v", err)
	}
}

// --- SignIn ---

func hashFor(t *testing.T, password string) []byte {
	t.Helper()
	h, err := auth.HashPassword([]byte(password))
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	return h
}

func TestSignIn_Flows(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	hash := hashFor(t, "right")

	// not found → unauthorized
	rmNF := &fakeRepoManager{u: &fakeUsersRepo{byEmailErr: common.ErrorNotFound}, r: &fakeRefreshRepo{}}
	if _, _, err := newAuthService(t, db, rmNF, false).SignIn(context.Background(), "ghost@x.c", "pw"); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("notfound: want ErrorUnauthorized, got %v", err)
	}

	// wrong password → unauthorized
	rmWP := &fakeRepoManager{
		u: &fakeUsersRepo{byEmailOut: &models.AuthUser{ID: "u1", PasswordHash: hash, EmailConfirmed: true}},
		r: &fakeRefreshRepo{},
	}
	if _, _, err := newAuthService(t, db, rmWP, false).SignIn(context.Background(), "a@x.c", "wrong"); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("wrong password: want ErrorUnauthorized, got %v", err)
	}

	// unconfirmed → distinct sentinel
	rmUC := &fakeRepoManager{
		u: &fakeUsersRepo{byEmailOut: &models.AuthUser{ID: "u1", PasswordHash: hash}},
		r: &fakeRefreshRepo{},
	}
	if _, _, err := newAuthService(t, db, rmUC, false).SignIn(context.Background(), "a@x.c", "right"); !errors.Is(err, common.ErrorEmailNotConfirmed) {
		t.Fatalf("unconfirmed: want ErrorEmailNotConfirmed, got %v", err)
	}

	// success
	rmOK := &fakeRepoManager{
		u: &fakeUsersRepo{byEmailOut: &models.AuthUser{ID: "u1", Email: "a@x.c", PasswordHash: hash, EmailConfirmed: true}},
		r: &fakeRefreshRepo{},
	}
	user, session, err := newAuthService(t, db, rmOK, false).SignIn(context.Background(), "a@x.c", "right")
	if err != nil || user.ID != "u1" || session.AccessToken == "" || session.RefreshToken == "" {
		t.Fatalf("success: user=%+v session=%+v err=%v", user, session, err)
	}
	if session.ExpiresIn != 3600 {
		t.Fatalf("expires_in: want 3600, got %d", session.ExpiresIn)
	}
}

// --- Refresh ---

func TestRefresh_RotatesToken(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{byIDOut: &models.AuthUser{ID: "u1", Email: "a@x.c", EmailConfirmed: true}},
		r: &fakeRefreshRepo{findOut: &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(10 * time.Minute)}},
	}
	s := newAuthService(t, db, rm, false)

	user, session, err := s.Refresh(context.Background(), "refresh-xyz")
	if err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if user.ID != "u1" || session.AccessToken == "" || session.RefreshToken == "" {
		t.Fatalf("unexpected result: user=%+v session=%+v", user, session)
	}
	if rm.r.created != 1 {
		t.Fatalf("rotation should create exactly one token, got %d", rm.r.created)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestRefresh_Expired(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{},
		r: &fakeRefreshRepo{findOut: &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(-time.Minute)}},
	}
	s := newAuthService(t, db, rm, false)

	if _, _, err := s.Refresh(context.Background(), "stale"); !errors.Is(err, common.ErrRefreshTokenExpired) {
		t.Fatalf("want ErrRefreshTokenExpired, got %v", err)
	}
}

func TestRefresh_Unknown(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{findErr: common.ErrorNotFound}}
	s := newAuthService(t, db, rm, false)

	if _, _, err := s.Refresh(context.Background(), "unknown"); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("want ErrorUnauthorized, got %v", err)
	}
}

func TestRefresh_DeleteErrRollsBack(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{byIDOut: &models.AuthUser{ID: "u1"}},
		r: &fakeRefreshRepo{
			findOut: &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(10 * time.Minute)},
			delErr:  errBoom{},
		},
	}
	s := newAuthService(t, db, rm, false)

	_, _, err := s.Refresh(context.Background(), "r")
	if err == nil || !regexp.MustCompile(`error deleting refresh token: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped delete error, got %v", err)
	}
}

// --- SignOut / ConfirmEmail / VerifyAccessToken ---

func TestSignOut_RevokesAll(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{}}
	if err := newAuthService(t, db, rm, false).SignOut(context.Background(), "u1"); err != nil {
		t.Fatalf("SignOut error: %v", err)
	}

	rmErr := &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{delForUserErr: errBoom{}}}
	if err := newAuthService(t, db, rmErr, false).SignOut(context.Background(), "u1"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestVerifyAccessToken_RoundTrip(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{}}
	s := newAuthService(t, db, rm, false)

	token, err := auth.GenerateToken("u1", "a@x.c", []byte("k"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	userID, err := s.VerifyAccessToken(token)
	if err != nil || userID != "u1" {
		t.Fatalf("VerifyAccessToken: got (%q, %v)", userID, err)
	}

	if _, err := s.VerifyAccessToken("garbage"); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}
