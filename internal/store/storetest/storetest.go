// Package storetest provides in-memory stand-ins for the persistence layer,
// matching the semantics of the real stores closely enough for handler tests:
// case-insensitive unique emails, unique isbns, and atomic conditional
// borrow/return transitions.
package storetest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/digital-library/internal/apperr"
	"github.com/ayush/digital-library/internal/models"
)

// MemUserStore is an in-memory UserStore.
type MemUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User // keyed by id
}

func NewMemUserStore() *MemUserStore {
	return &MemUserStore{users: make(map[string]*models.User)}
}

func (s *MemUserStore) CreateUser(_ context.Context, fullName, email, hashedPw string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email == email {
			return nil, apperr.New(apperr.Conflict, "email already registered")
		}
	}

	now := time.Now()
	u := &models.User{
		ID:        uuid.New().String(),
		FullName:  fullName,
		Email:     email,
		Password:  hashedPw,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.users[u.ID] = u

	out := *u
	out.Password = "" // callers of CreateUser never see the hash
	return &out, nil
}

func (s *MemUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (s *MemUserStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperr.New(apperr.Authentication, "user not found")
	}
	out := *u
	out.Password = ""
	return &out, nil
}

// StoredHash exposes the persisted hash for assertions.
func (s *MemUserStore) StoredHash(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == strings.ToLower(email) {
			return u.Password
		}
	}
	return ""
}

// MemBookStore is an in-memory BookStore with the same conditional
// transition semantics as the Mongo implementation.
type MemBookStore struct {
	mu    sync.Mutex
	books map[string]*models.Book // keyed by hex id
}

func NewMemBookStore() *MemBookStore {
	return &MemBookStore{books: make(map[string]*models.Book)}
}

func (s *MemBookStore) Insert(_ context.Context, book *models.Book) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.books {
		if b.ISBN == book.ISBN {
			return nil, apperr.New(apperr.Conflict, "a book with this isbn already exists")
		}
	}

	now := time.Now()
	book.ID = primitive.NewObjectID()
	book.Available = true
	book.BorrowedBy = ""
	book.CreatedAt = now
	book.UpdatedAt = now
	stored := *book
	s.books[book.ID.Hex()] = &stored

	out := stored
	return &out, nil
}

func (s *MemBookStore) GetByID(_ context.Context, id string) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "book not found")
	}
	out := *b
	return &out, nil
}

func (s *MemBookStore) ListAvailable(_ context.Context) ([]models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Book
	for _, b := range s.books {
		if b.Available {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *MemBookStore) ListBorrowedBy(_ context.Context, userID string) ([]models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Book
	for _, b := range s.books {
		if b.BorrowedBy == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *MemBookStore) Borrow(_ context.Context, id, userID string) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "book not found")
	}
	if !b.Available {
		return nil, apperr.New(apperr.Conflict, "book already borrowed")
	}
	b.Available = false
	b.BorrowedBy = userID
	b.UpdatedAt = time.Now()

	out := *b
	return &out, nil
}

func (s *MemBookStore) Return(_ context.Context, id, userID string) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "book not found")
	}
	if b.BorrowedBy != userID {
		return nil, apperr.New(apperr.Authorization, "you can only return books you borrowed")
	}
	b.Available = true
	b.BorrowedBy = ""
	b.UpdatedAt = time.Now()

	out := *b
	return &out, nil
}

func (s *MemBookStore) SetCoverKey(_ context.Context, id, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return apperr.New(apperr.NotFound, "book not found")
	}
	b.CoverKey = key
	return nil
}

// MemCache is an in-memory ListCache that counts hits and invalidations.
type MemCache struct {
	mu            sync.Mutex
	payload       []byte
	Hits          int
	Invalidations int
}

func NewMemCache() *MemCache { return &MemCache{} }

func (c *MemCache) Get(_ context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.payload != nil {
		c.Hits++
	}
	return c.payload, nil
}

func (c *MemCache) Set(_ context.Context, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payload = payload
	return nil
}

func (c *MemCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payload = nil
	c.Invalidations++
	return nil
}

type memObject struct {
	data        []byte
	contentType string
}

// MemCoverStore is an in-memory CoverStore.
type MemCoverStore struct {
	mu      sync.Mutex
	objects map[string]memObject
}

func NewMemCoverStore() *MemCoverStore {
	return &MemCoverStore{objects: make(map[string]memObject)}
}

func (s *MemCoverStore) Upload(_ context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memObject{data: data, contentType: contentType}
	return nil
}

func (s *MemCoverStore) Download(_ context.Context, key string) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, "", apperr.New(apperr.NotFound, "cover not available")
	}
	return obj.data, obj.contentType, nil
}
