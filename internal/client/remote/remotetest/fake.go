// Package remotetest provides an in-memory remote.Client for unit tests.
package remotetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/artstore/artstore/internal/client/models"
	"github.com/artstore/artstore/internal/client/remote"
)

// FakeClient implements remote.Client against in-memory tables. Error
// injection fields steer individual calls; zero value behaves like an empty
// backend with nobody signed in.
type FakeClient struct {
	mu sync.Mutex

	// tables[table][id] = raw record JSON
	tables map[string]map[string][]byte

	Session *models.Session

	GetSessionErr error
	SignInErr     error
	SignUpErr     error
	SignOutErr    error

	// SelectErrs[table] and InsertErrs[table] inject per-table failures.
	SelectErrs map[string]error
	InsertErrs map[string]error

	// SignInFn overrides SignInWithPassword entirely when set.
	SignInFn func(ctx context.Context, email, password string) (*models.Session, error)

	// RequireVerification makes SignUp return no session.
	RequireVerification bool

	// InsertCalls counts inserts per table.
	InsertCalls map[string]int

	subs   map[int]func(remote.Event, *models.Session)
	nextID int

	Closed bool
}

func NewFakeClient() *FakeClient {
	return &FakeClient{
		tables:      make(map[string]map[string][]byte),
		SelectErrs:  make(map[string]error),
		InsertErrs:  make(map[string]error),
		InsertCalls: make(map[string]int),
		subs:        make(map[int]func(remote.Event, *models.Session)),
	}
}

func (f *FakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

func (f *FakeClient) GetSession(ctx context.Context) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetSessionErr != nil {
		return nil, f.GetSessionErr
	}
	return f.Session, nil
}

func (f *FakeClient) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	if f.SignInFn != nil {
		return f.SignInFn(ctx, email, password)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SignInErr != nil {
		return nil, f.SignInErr
	}
	session := &models.Session{
		AccessToken:  "fake-access",
		RefreshToken: "fake-refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
		UserID:       "user-" + models.UsernameFromEmail(email),
		Email:        email,
	}
	f.Session = session
	return session, nil
}

func (f *FakeClient) SignUp(ctx context.Context, email, password string, metadata models.SignupMetadata) (*remote.SignUpResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SignUpErr != nil {
		return nil, f.SignUpErr
	}
	userID := "user-" + models.UsernameFromEmail(email)
	result := &remote.SignUpResult{UserID: userID, Email: email}
	if !f.RequireVerification {
		result.Session = &models.Session{
			AccessToken:  "fake-access",
			RefreshToken: "fake-refresh",
			ExpiresAt:    time.Now().Add(time.Hour),
			UserID:       userID,
			Email:        email,
			Metadata:     metadata,
		}
		f.Session = result.Session
	}
	return result, nil
}

func (f *FakeClient) SignOut(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Session = nil
	return f.SignOutErr
}

func (f *FakeClient) SelectRecord(ctx context.Context, table, id string, dest any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.SelectErrs[table]; err != nil {
		return err
	}
	rows, ok := f.tables[table]
	if !ok {
		return remote.ErrNoRows
	}
	raw, ok := rows[id]
	if !ok {
		return remote.ErrNoRows
	}
	return json.Unmarshal(raw, dest)
}

func (f *FakeClient) InsertRecord(ctx context.Context, table string, record any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InsertCalls[table]++
	if err := f.InsertErrs[table]; err != nil {
		return err
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil || probe.ID == "" {
		return fmt.Errorf("record without id")
	}
	rows, ok := f.tables[table]
	if !ok {
		rows = make(map[string][]byte)
		f.tables[table] = rows
	}
	if _, exists := rows[probe.ID]; exists {
		return fmt.Errorf("duplicate key in %s: %s", table, probe.ID)
	}
	rows[probe.ID] = raw
	return nil
}

func (f *FakeClient) UpdateRecord(ctx context.Context, table, id string, record any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows, ok := f.tables[table]
	if !ok {
		return remote.ErrNoRows
	}
	if _, exists := rows[id]; !exists {
		return remote.ErrNoRows
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	rows[id] = raw
	return nil
}

func (f *FakeClient) OnAuthStateChange(fn func(event remote.Event, session *models.Session)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

// Emit synchronously delivers an auth event to all subscribers, mimicking
// the serialized delivery of the real client.
func (f *FakeClient) Emit(event remote.Event, session *models.Session) {
	f.mu.Lock()
	fns := make([]func(remote.Event, *models.Session), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(event, session)
	}
}

// Seed stores a record directly, bypassing error injection.
func (f *FakeClient) Seed(table, id string, record any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := json.Marshal(record)
	if err != nil {
		panic(err)
	}
	rows, ok := f.tables[table]
	if !ok {
		rows = make(map[string][]byte)
		f.tables[table] = rows
	}
	rows[id] = raw
}

// Rows returns how many records table holds.
func (f *FakeClient) Rows(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tables[table])
}

// Record unmarshals the stored record with the given id into dest and
// reports whether it exists.
func (f *FakeClient) Record(table, id string, dest any) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows, ok := f.tables[table]
	if !ok {
		return false
	}
	raw, ok := rows[id]
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		panic(err)
	}
	return true
}
