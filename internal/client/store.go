package client

import (
	"strings"
	"sync"

	"github.com/ayush/digital-library/internal/models"
)

// State is the UI-facing mirror of server truth: the logged-in user, the
// catalog, the caller's borrowed books, the cosmetic filters and per-request
// loading/error flags. It is never authoritative; it only reflects the most
// recent completed server calls.
type State struct {
	User           *models.User
	Books          []models.Book
	MyBooks        []models.Book
	SearchTerm     string
	Genre          string
	Loading        bool
	MyBooksLoading bool
	Err            string
}

// Authenticated reports whether a user is logged in.
func (s State) Authenticated() bool { return s.User != nil }

// Filtered derives the visible book list from the search term and genre
// filters. Search matches title or author, case-insensitively.
func (s State) Filtered() []models.Book {
	term := strings.ToLower(s.SearchTerm)
	var out []models.Book
	for _, b := range s.Books {
		if !b.Available {
			continue
		}
		if s.Genre != "" && b.Genre != s.Genre {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(b.Title), term) &&
			!strings.Contains(strings.ToLower(b.Author), term) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Action is a request-lifecycle or UI event applied to the state.
type Action interface{ isAction() }

type (
	// LoggedIn records a successful login.
	LoggedIn struct{ User *models.User }
	// LoggedOut clears the session.
	LoggedOut struct{}

	// BooksRequested marks the catalog fetch as in flight.
	BooksRequested struct{}
	// BooksLoaded replaces the catalog with the server response.
	BooksLoaded struct{ Books []models.Book }
	// BooksFailed records a failed catalog fetch.
	BooksFailed struct{ Err string }

	// MyBooksRequested marks the borrowed-books fetch as in flight.
	MyBooksRequested struct{}
	// MyBooksLoaded replaces the borrowed-books list.
	MyBooksLoaded struct{ Books []models.Book }
	// MyBooksFailed records a failed borrowed-books fetch.
	MyBooksFailed struct{ Err string }

	// BookAdded appends a newly created book.
	BookAdded struct{ Book models.Book }
	// BookBorrowed moves a book from the catalog to MyBooks.
	BookBorrowed struct{ Book models.Book }
	// BookReturned moves a book from MyBooks back to the catalog.
	BookReturned struct{ Book models.Book }

	// SearchChanged updates the free-text filter.
	SearchChanged struct{ Term string }
	// GenreChanged updates the genre filter.
	GenreChanged struct{ Genre string }
)

func (LoggedIn) isAction()         {}
func (LoggedOut) isAction()        {}
func (BooksRequested) isAction()   {}
func (BooksLoaded) isAction()      {}
func (BooksFailed) isAction()      {}
func (MyBooksRequested) isAction() {}
func (MyBooksLoaded) isAction()    {}
func (MyBooksFailed) isAction()    {}
func (BookAdded) isAction()        {}
func (BookBorrowed) isAction()     {}
func (BookReturned) isAction()     {}
func (SearchChanged) isAction()    {}
func (GenreChanged) isAction()     {}

// reduce is the pure state transition. It never mutates its input.
func reduce(s State, a Action) State {
	switch a := a.(type) {
	case LoggedIn:
		s.User = a.User
	case LoggedOut:
		s.User = nil
		s.MyBooks = nil

	case BooksRequested:
		s.Loading = true
		s.Err = ""
	case BooksLoaded:
		s.Loading = false
		s.Books = keepAvailable(a.Books)
	case BooksFailed:
		s.Loading = false
		s.Err = a.Err

	case MyBooksRequested:
		s.MyBooksLoading = true
		s.Err = ""
	case MyBooksLoaded:
		s.MyBooksLoading = false
		s.MyBooks = a.Books
	case MyBooksFailed:
		s.MyBooksLoading = false
		s.Err = a.Err

	case BookAdded:
		s.Books = append(copyBooks(s.Books), a.Book)
	case BookBorrowed:
		s.Books = removeBook(s.Books, a.Book.ID.Hex())
		s.MyBooks = append(copyBooks(s.MyBooks), a.Book)
	case BookReturned:
		s.MyBooks = removeBook(s.MyBooks, a.Book.ID.Hex())
		s.Books = append(copyBooks(s.Books), a.Book)

	case SearchChanged:
		s.SearchTerm = a.Term
	case GenreChanged:
		s.Genre = a.Genre
	}
	return s
}

func keepAvailable(books []models.Book) []models.Book {
	var out []models.Book
	for _, b := range books {
		if b.Available {
			out = append(out, b)
		}
	}
	return out
}

func copyBooks(books []models.Book) []models.Book {
	out := make([]models.Book, len(books))
	copy(out, books)
	return out
}

func removeBook(books []models.Book, id string) []models.Book {
	var out []models.Book
	for _, b := range books {
		if b.ID.Hex() != id {
			out = append(out, b)
		}
	}
	return out
}

// Store holds the State behind a lock so UI goroutines can read while
// request completions dispatch.
type Store struct {
	mu    sync.RWMutex
	state State
}

func NewStore() *Store { return &Store{} }

// Dispatch applies an action to the state.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = reduce(s.state, a)
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}
