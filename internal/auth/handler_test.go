package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ayush/digital-library/internal/middleware"
	"github.com/ayush/digital-library/internal/store/storetest"
)

func newAuthRouter(users *storetest.MemUserStore, tokens *TokenIssuer) chi.Router {
	h := NewHandler(users, tokens, false, zap.NewNop().Sugar())
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.With(middleware.RequireAuth(tokens, users)).Get("/profile", h.Profile)
	return r
}

func doJSON(t *testing.T, r chi.Router, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func tokenCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.TokenCookie {
			return c
		}
	}
	t.Fatal("no token cookie set")
	return nil
}

const registerAlice = `{"fullName":"Alice Smith","email":"alice@example.com","password":"Str0ng!Pass"}`

func TestRegisterHashesPassword(t *testing.T) {
	users := storetest.NewMemUserStore()
	r := newAuthRouter(users, NewTokenIssuer("test-secret"))

	rec := doJSON(t, r, http.MethodPost, "/register", registerAlice)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	hash := users.StoredHash("alice@example.com")
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "Str0ng!Pass", hash)

	// A subsequent login with the correct plaintext succeeds.
	rec = doJSON(t, r, http.MethodPost, "/login", `{"email":"alice@example.com","password":"Str0ng!Pass"}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRegisterValidation(t *testing.T) {
	users := storetest.NewMemUserStore()
	r := newAuthRouter(users, NewTokenIssuer("test-secret"))

	cases := []string{
		`{"fullName":"Al","email":"alice@example.com","password":"Str0ng!Pass"}`,
		`{"fullName":"Alice Smith","email":"nonsense","password":"Str0ng!Pass"}`,
		`{"fullName":"Alice Smith","email":"alice@example.com","password":"weakpwd"}`,
		`not even json`,
	}
	for _, body := range cases {
		rec := doJSON(t, r, http.MethodPost, "/register", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := storetest.NewMemUserStore()
	r := newAuthRouter(users, NewTokenIssuer("test-secret"))

	rec := doJSON(t, r, http.MethodPost, "/register", registerAlice)
	require.Equal(t, http.StatusOK, rec.Code)

	// Same email, different case: still a conflict.
	rec = doJSON(t, r, http.MethodPost, "/register",
		`{"fullName":"Alice Clone","email":"ALICE@Example.com","password":"Str0ng!Pass"}`)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	users := storetest.NewMemUserStore()
	r := newAuthRouter(users, NewTokenIssuer("test-secret"))
	doJSON(t, r, http.MethodPost, "/register", registerAlice)

	wrongPw := doJSON(t, r, http.MethodPost, "/login", `{"email":"alice@example.com","password":"Wr0ng!Pass"}`)
	unknown := doJSON(t, r, http.MethodPost, "/login", `{"email":"nobody@example.com","password":"Str0ng!Pass"}`)

	assert.Equal(t, http.StatusUnauthorized, wrongPw.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrongPw.Body.String(), unknown.Body.String())
}

func TestLoginSetsCookieAndProfileWorks(t *testing.T) {
	users := storetest.NewMemUserStore()
	r := newAuthRouter(users, NewTokenIssuer("test-secret"))
	doJSON(t, r, http.MethodPost, "/register", registerAlice)

	rec := doJSON(t, r, http.MethodPost, "/login", `{"email":"alice@example.com","password":"Str0ng!Pass"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "LOGGED")

	cookie := tokenCookie(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, int(TokenTTL/time.Second), cookie.MaxAge)

	profile := doJSON(t, r, http.MethodGet, "/profile", "", cookie)
	require.Equal(t, http.StatusOK, profile.Code)
	assert.Contains(t, profile.Body.String(), "alice@example.com")
	// The password hash must never be serialized.
	assert.NotContains(t, profile.Body.String(), users.StoredHash("alice@example.com"))
}

func TestProfileRejectsBadTokens(t *testing.T) {
	users := storetest.NewMemUserStore()
	issuer := NewTokenIssuer("test-secret")
	r := newAuthRouter(users, issuer)
	doJSON(t, r, http.MethodPost, "/register", registerAlice)

	// No cookie at all.
	rec := doJSON(t, r, http.MethodGet, "/profile", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Expired token, otherwise well-formed.
	expired := NewTokenIssuer("test-secret")
	expired.ttl = -time.Minute
	token, err := expired.Issue("some-user")
	require.NoError(t, err)
	rec = doJSON(t, r, http.MethodGet, "/profile", "", &http.Cookie{Name: middleware.TokenCookie, Value: token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid token whose subject no longer resolves to a user.
	token, err = issuer.Issue("ghost-user")
	require.NoError(t, err)
	rec = doJSON(t, r, http.MethodGet, "/profile", "", &http.Cookie{Name: middleware.TokenCookie, Value: token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutExpiresCookie(t *testing.T) {
	users := storetest.NewMemUserStore()
	r := newAuthRouter(users, NewTokenIssuer("test-secret"))

	rec := doJSON(t, r, http.MethodPost, "/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)

	cookie := tokenCookie(t, rec)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}
