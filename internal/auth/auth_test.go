package auth_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"resale-backend/internal/auth"
	"resale-backend/internal/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createDB(t *testing.T) *gorm.DB {
	db, err := database.NewDatabase(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	return db
}

// replay copies the cookies set on rec onto a new request. When a cookie was
// set more than once the last value wins, as in a browser.
func replay(rec *httptest.ResponseRecorder, method, target string) *http.Request {
	latest := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		latest[c.Name] = c
	}

	req := httptest.NewRequest(method, target, nil)
	for _, c := range latest {
		req.AddCookie(c)
	}
	return req
}

func TestPassword(t *testing.T) {
	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	assert.True(t, auth.CheckPassword(hash, "secret1"))
	assert.False(t, auth.CheckPassword(hash, "secret2"))
	assert.False(t, auth.CheckPassword("", ""))
}

func TestSessionLoginLogout(t *testing.T) {
	sessions := auth.NewSessionManager(auth.NewCookieStore("test-secret", false))
	userId := uuid.New()

	rec := httptest.NewRecorder()
	require.NoError(t, sessions.Login(rec, httptest.NewRequest(http.MethodPost, "/login", nil), userId))

	got, ok := sessions.CurrentUserId(replay(rec, http.MethodGet, "/home"))
	require.True(t, ok)
	assert.Equal(t, userId, got)

	logoutRec := httptest.NewRecorder()
	require.NoError(t, sessions.Logout(logoutRec, replay(rec, http.MethodGet, "/logout")))

	_, ok = sessions.CurrentUserId(replay(logoutRec, http.MethodGet, "/home"))
	assert.False(t, ok)
}

func TestSessionRejectsForeignCookie(t *testing.T) {
	issuer := auth.NewSessionManager(auth.NewCookieStore("secret-a", false))
	verifier := auth.NewSessionManager(auth.NewCookieStore("secret-b", false))

	rec := httptest.NewRecorder()
	require.NoError(t, issuer.Login(rec, httptest.NewRequest(http.MethodPost, "/login", nil), uuid.New()))

	_, ok := verifier.CurrentUserId(replay(rec, http.MethodGet, "/home"))
	assert.False(t, ok)
}

func TestFlashes(t *testing.T) {
	sessions := auth.NewSessionManager(auth.NewCookieStore("test-secret", false))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/signup", nil)
	sessions.AddFlash(rec, req, "success", "Account created! Please log in.")
	sessions.AddFlash(rec, req, "info", "second")

	readRec := httptest.NewRecorder()
	flashes := sessions.Flashes(readRec, replay(rec, http.MethodGet, "/login"))
	assert.Equal(t, []auth.Flash{
		{Category: "success", Message: "Account created! Please log in."},
		{Category: "info", Message: "second"},
	}, flashes)

	assert.Empty(t, sessions.Flashes(httptest.NewRecorder(), replay(readRec, http.MethodGet, "/login")))
}

func TestLoadUserAndRequireUser(t *testing.T) {
	db := createDB(t)
	user, err := database.CreateUser(context.Background(), db, "alice@example.com", "hash")
	require.NoError(t, err)

	sessions := auth.NewSessionManager(auth.NewCookieStore("test-secret", false))

	handler := sessions.LoadUser(db)(auth.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.UserFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(u.Email))
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	loginRec := httptest.NewRecorder()
	require.NoError(t, sessions.Login(loginRec, httptest.NewRequest(http.MethodPost, "/login", nil), user.Id))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, replay(loginRec, http.MethodGet, "/dashboard"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice@example.com", rec.Body.String())

	require.NoError(t, database.DeleteUser(context.Background(), db, user.Id))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, replay(loginRec, http.MethodGet, "/dashboard"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestRequireUserAPI(t *testing.T) {
	handler := auth.RequireUserAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/predictions", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/predictions", nil)
	req = req.WithContext(auth.WithUser(req.Context(), &database.User{Id: uuid.New()}))
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestResetTokens(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)
	user, err := database.CreateUser(ctx, db, "alice@example.com", hash)
	require.NoError(t, err)

	tokens := auth.NewResetTokens("test-secret")

	token, err := tokens.Generate(user)
	require.NoError(t, err)

	verified, err := tokens.Verify(ctx, db, token)
	require.NoError(t, err)
	assert.Equal(t, user.Id, verified.Id)

	_, err = tokens.Verify(ctx, db, token+"x")
	assert.ErrorIs(t, err, auth.ErrInvalidResetToken)

	_, err = auth.NewResetTokens("other-secret").Verify(ctx, db, token)
	assert.ErrorIs(t, err, auth.ErrInvalidResetToken)

	newHash, err := auth.HashPassword("secret2")
	require.NoError(t, err)
	require.NoError(t, database.UpdatePassword(ctx, db, user.Id, newHash))

	_, err = tokens.Verify(ctx, db, token)
	assert.ErrorIs(t, err, auth.ErrInvalidResetToken)
}
