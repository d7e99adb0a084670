package client

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ayush/digital-library/internal/apperr"
	"github.com/ayush/digital-library/internal/auth"
	"github.com/ayush/digital-library/internal/library"
	"github.com/ayush/digital-library/internal/middleware"
	"github.com/ayush/digital-library/internal/models"
	"github.com/ayush/digital-library/internal/store/storetest"
)

// newTestAPI spins up the real router over in-memory stores, so these tests
// cover the whole path: client -> cookie -> guard -> handlers -> stores.
func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()

	users := storetest.NewMemUserStore()
	books := storetest.NewMemBookStore()
	log := zap.NewNop().Sugar()

	tokens := auth.NewTokenIssuer("test-secret")
	authHandler := auth.NewHandler(users, tokens, false, log)
	libraryHandler := library.NewHandler(books, storetest.NewMemCache(), storetest.NewMemCoverStore(), log)
	requireAuth := middleware.RequireAuth(tokens, users)

	r := chi.NewRouter()
	r.Post("/register", authHandler.Register)
	r.Post("/login", authHandler.Login)
	r.Post("/logout", authHandler.Logout)
	r.With(requireAuth).Get("/profile", authHandler.Profile)
	r.Route("/api/books", func(r chi.Router) {
		r.Get("/", libraryHandler.ListAvailable)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", libraryHandler.Add)
			r.Post("/add", libraryHandler.Add)
			r.Put("/borrow/{id}", libraryHandler.Borrow)
			r.Put("/return/{id}", libraryHandler.Return)
			r.Get("/mybooks", libraryHandler.Mine)
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newSession(t *testing.T, baseURL string) *Session {
	t.Helper()
	api, err := New(baseURL)
	require.NoError(t, err)
	return NewSession(api)
}

func TestSessionFullFlow(t *testing.T) {
	srv := newTestAPI(t)
	ctx := t.Context()

	aliceSession := newSession(t, srv.URL)
	require.NoError(t, aliceSession.Register(ctx, "Alice Smith", "alice@example.com", "Str0ng!Pass"))
	require.NoError(t, aliceSession.Login(ctx, "alice@example.com", "Str0ng!Pass"))
	require.True(t, aliceSession.State().Authenticated())

	require.NoError(t, aliceSession.AddBook(ctx, models.AddBookRequest{
		Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593", Genre: "sci-fi",
	}))
	require.NoError(t, aliceSession.FetchBooks(ctx))
	require.Len(t, aliceSession.State().Filtered(), 1)

	dune := aliceSession.State().Books[0]
	require.NoError(t, aliceSession.Borrow(ctx, dune.ID.Hex()))
	assert.Empty(t, aliceSession.State().Filtered())
	assert.Len(t, aliceSession.State().MyBooks, 1)

	// A different authenticated user cannot return Alice's book.
	bobSession := newSession(t, srv.URL)
	require.NoError(t, bobSession.Register(ctx, "Bob Jones", "bob@example.com", "Str0ng!Pass"))
	require.NoError(t, bobSession.Login(ctx, "bob@example.com", "Str0ng!Pass"))
	err := bobSession.Return(ctx, dune.ID.Hex())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Authorization))

	// Nor borrow it while Alice holds it.
	err = bobSession.Borrow(ctx, dune.ID.Hex())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Conflict))

	// Alice returns it; it reappears for everyone.
	require.NoError(t, aliceSession.Return(ctx, dune.ID.Hex()))
	assert.Empty(t, aliceSession.State().MyBooks)

	require.NoError(t, bobSession.FetchBooks(ctx))
	assert.Len(t, bobSession.State().Filtered(), 1)
}

func TestSessionProfileAndLogout(t *testing.T) {
	srv := newTestAPI(t)
	ctx := t.Context()

	s := newSession(t, srv.URL)
	require.NoError(t, s.Register(ctx, "Alice Smith", "alice@example.com", "Str0ng!Pass"))
	require.NoError(t, s.Login(ctx, "alice@example.com", "Str0ng!Pass"))

	user, err := s.api.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	require.NoError(t, s.Logout(ctx))
	assert.False(t, s.State().Authenticated())

	_, err = s.api.Profile(ctx)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Authentication))
}

func TestSessionUnauthenticatedMutations(t *testing.T) {
	srv := newTestAPI(t)
	ctx := t.Context()

	s := newSession(t, srv.URL)
	err := s.AddBook(ctx, models.AddBookRequest{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Authentication))
}

func TestSessionLoginFailure(t *testing.T) {
	srv := newTestAPI(t)
	ctx := t.Context()

	s := newSession(t, srv.URL)
	err := s.Login(ctx, "nobody@example.com", "Str0ng!Pass")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Authentication))
	assert.False(t, s.State().Authenticated())
}

func TestFetchBooksFailureSetsError(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apperr.Write(w, apperr.New(apperr.Internal, "down"))
	}))
	t.Cleanup(broken.Close)

	s := newSession(t, broken.URL)
	require.Error(t, s.FetchBooks(t.Context()))

	state := s.State()
	assert.False(t, state.Loading)
	assert.NotEmpty(t, state.Err)
}
