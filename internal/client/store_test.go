package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/digital-library/internal/models"
)

func book(title, author, genre string, available bool) models.Book {
	return models.Book{
		ID:        primitive.NewObjectID(),
		Title:     title,
		Author:    author,
		Genre:     genre,
		Available: available,
	}
}

func TestReduceBooksLifecycle(t *testing.T) {
	s := reduce(State{}, BooksRequested{})
	assert.True(t, s.Loading)
	assert.Empty(t, s.Err)

	dune := book("Dune", "Frank Herbert", "sci-fi", true)
	taken := book("Emma", "Jane Austen", "classic", false)
	s = reduce(s, BooksLoaded{Books: []models.Book{dune, taken}})
	assert.False(t, s.Loading)
	// Unavailable books never enter the catalog mirror.
	assert.Len(t, s.Books, 1)
	assert.Equal(t, "Dune", s.Books[0].Title)

	s = reduce(s, BooksFailed{Err: "boom"})
	assert.False(t, s.Loading)
	assert.Equal(t, "boom", s.Err)
}

func TestReduceLoginLogout(t *testing.T) {
	user := &models.User{ID: "u1", FullName: "Alice Smith"}

	s := reduce(State{}, LoggedIn{User: user})
	assert.True(t, s.Authenticated())

	s.MyBooks = []models.Book{book("Dune", "Frank Herbert", "", false)}
	s = reduce(s, LoggedOut{})
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.MyBooks)
}

func TestReduceBorrowAndReturnMoveBooks(t *testing.T) {
	dune := book("Dune", "Frank Herbert", "sci-fi", true)
	s := reduce(State{}, BooksLoaded{Books: []models.Book{dune}})

	borrowed := dune
	borrowed.Available = false
	borrowed.BorrowedBy = "u1"
	s = reduce(s, BookBorrowed{Book: borrowed})
	assert.Empty(t, s.Filtered())
	assert.Len(t, s.MyBooks, 1)

	returned := dune
	s = reduce(s, BookReturned{Book: returned})
	assert.Len(t, s.Filtered(), 1)
	assert.Empty(t, s.MyBooks)
}

func TestReduceIsPure(t *testing.T) {
	dune := book("Dune", "Frank Herbert", "sci-fi", true)
	before := State{Books: []models.Book{dune}}

	_ = reduce(before, BookAdded{Book: book("Emma", "Jane Austen", "classic", true)})
	assert.Len(t, before.Books, 1, "input state must not be mutated")
}

func TestFiltered(t *testing.T) {
	s := State{
		Books: []models.Book{
			book("Dune", "Frank Herbert", "sci-fi", true),
			book("Dune Messiah", "Frank Herbert", "sci-fi", true),
			book("Emma", "Jane Austen", "classic", true),
		},
	}

	s.SearchTerm = "dune"
	assert.Len(t, s.Filtered(), 2)

	s.SearchTerm = "austen" // author match
	assert.Len(t, s.Filtered(), 1)

	s.SearchTerm = ""
	s.Genre = "classic"
	assert.Len(t, s.Filtered(), 1)

	s.Genre = "sci-fi"
	s.SearchTerm = "messiah"
	assert.Len(t, s.Filtered(), 1)

	s.SearchTerm = "nothing matches this"
	assert.Empty(t, s.Filtered())
}

func TestStoreDispatch(t *testing.T) {
	store := NewStore()
	store.Dispatch(SearchChanged{Term: "dune"})
	store.Dispatch(GenreChanged{Genre: "sci-fi"})

	s := store.State()
	assert.Equal(t, "dune", s.SearchTerm)
	assert.Equal(t, "sci-fi", s.Genre)
}
