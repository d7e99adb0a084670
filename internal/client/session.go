package client

import (
	"context"

	"github.com/ayush/digital-library/internal/models"
)

// Session pairs the API client with the state container, dispatching the
// request-lifecycle actions around each server call. This is the Go shape of
// the original async thunks: the store is only ever updated from completed
// responses.
type Session struct {
	api   *Client
	store *Store
}

func NewSession(api *Client) *Session {
	return &Session{api: api, store: NewStore()}
}

// State returns a snapshot of the session cache.
func (s *Session) State() State { return s.store.State() }

// SetSearchTerm updates the cosmetic free-text filter.
func (s *Session) SetSearchTerm(term string) { s.store.Dispatch(SearchChanged{Term: term}) }

// SetGenre updates the cosmetic genre filter.
func (s *Session) SetGenre(genre string) { s.store.Dispatch(GenreChanged{Genre: genre}) }

// Register creates an account; the cache is untouched (no auto-login).
func (s *Session) Register(ctx context.Context, fullName, email, password string) error {
	return s.api.Register(ctx, fullName, email, password)
}

func (s *Session) Login(ctx context.Context, email, password string) error {
	user, err := s.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	s.store.Dispatch(LoggedIn{User: user})
	return nil
}

func (s *Session) Logout(ctx context.Context) error {
	if err := s.api.Logout(ctx); err != nil {
		return err
	}
	s.store.Dispatch(LoggedOut{})
	return nil
}

func (s *Session) FetchBooks(ctx context.Context) error {
	s.store.Dispatch(BooksRequested{})
	books, err := s.api.AvailableBooks(ctx)
	if err != nil {
		s.store.Dispatch(BooksFailed{Err: err.Error()})
		return err
	}
	s.store.Dispatch(BooksLoaded{Books: books})
	return nil
}

func (s *Session) FetchMyBooks(ctx context.Context) error {
	s.store.Dispatch(MyBooksRequested{})
	books, err := s.api.MyBooks(ctx)
	if err != nil {
		s.store.Dispatch(MyBooksFailed{Err: err.Error()})
		return err
	}
	s.store.Dispatch(MyBooksLoaded{Books: books})
	return nil
}

func (s *Session) AddBook(ctx context.Context, req models.AddBookRequest) error {
	book, err := s.api.AddBook(ctx, req)
	if err != nil {
		return err
	}
	s.store.Dispatch(BookAdded{Book: *book})
	return nil
}

func (s *Session) Borrow(ctx context.Context, id string) error {
	book, err := s.api.Borrow(ctx, id)
	if err != nil {
		return err
	}
	s.store.Dispatch(BookBorrowed{Book: *book})
	return nil
}

func (s *Session) Return(ctx context.Context, id string) error {
	book, err := s.api.Return(ctx, id)
	if err != nil {
		return err
	}
	s.store.Dispatch(BookReturned{Book: *book})
	return nil
}
