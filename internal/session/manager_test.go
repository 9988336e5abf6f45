package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/voyager-portal/internal/domain"
	"github.com/pkordes/voyager-portal/internal/session"
	"github.com/pkordes/voyager-portal/internal/upstream"
)

// mockAuth is a hand-written test double for session.Authenticator.
type mockAuth struct {
	login func(ctx context.Context, email, password string) (upstream.LoginResult, error)
	calls int
}

func (m *mockAuth) Login(ctx context.Context, email, password string) (upstream.LoginResult, error) {
	m.calls++
	return m.login(ctx, email, password)
}

var _ session.Authenticator = (*mockAuth)(nil)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func ada() domain.User {
	return domain.User{ID: "u-1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
}

// passwordAuth accepts only the given password and issues token.
func passwordAuth(password, token string, user domain.User) *mockAuth {
	return &mockAuth{login: func(_ context.Context, _ string, pw string) (upstream.LoginResult, error) {
		if pw != password {
			return upstream.LoginResult{}, domain.ErrUnauthorized
		}
		return upstream.LoginResult{Token: token, User: user}, nil
	}}
}

func newManager(auth session.Authenticator) (*session.Manager, *session.MemoryStore) {
	store := session.NewMemoryStore()
	m := session.NewManager(auth, store, time.Hour, nil)
	m.SetClock(func() time.Time { return fixedNow })
	return m, store
}

// signedToken returns an HS256 token expiring at exp. The manager never
// verifies the signature, so the key is arbitrary.
func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return tok
}

// ---- Login -----------------------------------------------------------------

func TestManager_Login_OpaqueTokenUsesTTL(t *testing.T) {
	m, store := newManager(passwordAuth("pw", "opaque", ada()))

	s, err := m.Login(context.Background(), "ada@example.com", "pw")

	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "opaque", s.Token)
	assert.Equal(t, fixedNow.Add(time.Hour), s.ExpiresAt)

	stored, err := store.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.User, stored.User)
}

func TestManager_Login_JWTExpiry(t *testing.T) {
	exp := fixedNow.Add(15 * time.Minute).Truncate(time.Second)
	m, _ := newManager(passwordAuth("pw", signedToken(t, exp), ada()))

	s, err := m.Login(context.Background(), "ada@example.com", "pw")

	require.NoError(t, err)
	assert.True(t, exp.Equal(s.ExpiresAt), "want %v got %v", exp, s.ExpiresAt)
}

func TestManager_Login_Rejected(t *testing.T) {
	m, _ := newManager(passwordAuth("pw", "tok", ada()))

	_, err := m.Login(context.Background(), "ada@example.com", "nope")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

// ---- Get -------------------------------------------------------------------

func TestManager_Get_UnknownIsUnauthorized(t *testing.T) {
	m, _ := newManager(passwordAuth("pw", "tok", ada()))

	_, err := m.Get(context.Background(), "nope")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestManager_Get_ExpiredEndsSession(t *testing.T) {
	m, store := newManager(passwordAuth("pw", "tok", ada()))
	s, err := m.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)

	var ended []string
	m.OnEnd(func(id string) { ended = append(ended, id) })
	m.SetClock(func() time.Time { return fixedNow.Add(2 * time.Hour) })

	_, err = m.Get(context.Background(), s.ID)

	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, []string{s.ID}, ended)
	_, err = store.Get(context.Background(), s.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---- Reauthenticate --------------------------------------------------------

func TestManager_Reauthenticate_RefreshesUser(t *testing.T) {
	auth := passwordAuth("pw", "tok", ada())
	m, store := newManager(auth)
	s, err := m.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)

	renamed := ada()
	renamed.FirstName = "Augusta"
	auth.login = passwordAuth("pw", "tok-2", renamed).login

	got, err := m.Reauthenticate(context.Background(), s.ID, "ada@example.com", "pw")

	require.NoError(t, err)
	assert.Equal(t, "Augusta", got.FirstName)
	stored, _ := store.Get(context.Background(), s.ID)
	assert.Equal(t, "Augusta", stored.User.FirstName)
	assert.Equal(t, "tok-2", stored.Token)
}

func TestManager_Reauthenticate_WrongPasswordLeavesSession(t *testing.T) {
	m, store := newManager(passwordAuth("pw", "tok", ada()))
	s, err := m.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)

	_, err = m.Reauthenticate(context.Background(), s.ID, "ada@example.com", "wrong")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.NotErrorIs(t, err, domain.ErrSessionExpired)
	stored, _ := store.Get(context.Background(), s.ID)
	assert.Equal(t, s, stored)
}

func TestManager_Reauthenticate_ExpiredSession(t *testing.T) {
	auth := passwordAuth("pw", "tok", ada())
	m, _ := newManager(auth)
	s, err := m.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	m.SetClock(func() time.Time { return fixedNow.Add(2 * time.Hour) })

	_, err = m.Reauthenticate(context.Background(), s.ID, "ada@example.com", "pw")

	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.Equal(t, 1, auth.calls, "credentials are not resubmitted")
}

func TestManager_Reauthenticate_UpstreamDownIsNotUnauthorized(t *testing.T) {
	down := errors.New("connection refused")
	auth := passwordAuth("pw", "tok", ada())
	m, _ := newManager(auth)
	s, _ := m.Login(context.Background(), "ada@example.com", "pw")
	auth.login = func(context.Context, string, string) (upstream.LoginResult, error) {
		return upstream.LoginResult{}, down
	}

	_, err := m.Reauthenticate(context.Background(), s.ID, "ada@example.com", "pw")

	assert.ErrorIs(t, err, down)
	assert.NotErrorIs(t, err, domain.ErrUnauthorized)
}

// ---- Logout ----------------------------------------------------------------

func TestManager_Logout(t *testing.T) {
	m, _ := newManager(passwordAuth("pw", "tok", ada()))
	s, _ := m.Login(context.Background(), "ada@example.com", "pw")
	var ended string
	m.OnEnd(func(id string) { ended = id })

	require.NoError(t, m.Logout(context.Background(), s.ID))

	assert.Equal(t, s.ID, ended)
	_, err := m.Get(context.Background(), s.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestMemoryStore_PurgeExpired(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, session.Session{ID: "old", ExpiresAt: fixedNow.Add(-time.Minute)}))
	require.NoError(t, store.Save(ctx, session.Session{ID: "live", ExpiresAt: fixedNow.Add(time.Minute)}))

	n := store.PurgeExpired(fixedNow)

	assert.Equal(t, int64(1), n)
	_, err := store.Get(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.Get(ctx, "live")
	assert.NoError(t, err)
}

func TestContext_RoundTrip(t *testing.T) {
	s := session.Session{ID: "abc"}
	ctx := session.WithSession(context.Background(), s)

	got, ok := session.FromContext(ctx)

	require.True(t, ok)
	assert.Equal(t, "abc", got.ID)
	_, ok = session.FromContext(context.Background())
	assert.False(t, ok)
}
