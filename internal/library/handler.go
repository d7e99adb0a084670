package library

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ayush/digital-library/internal/apperr"
	"github.com/ayush/digital-library/internal/middleware"
	"github.com/ayush/digital-library/internal/models"
)

// maxCoverSize caps cover uploads at 5 MiB.
const maxCoverSize = 5 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// BookStore defines the interface for catalog persistence. Borrow and Return
// must be atomic conditional transitions: Borrow succeeds only if the book is
// currently available, Return only if userID is the current borrower.
type BookStore interface {
	Insert(ctx context.Context, book *models.Book) (*models.Book, error)
	GetByID(ctx context.Context, id string) (*models.Book, error)
	ListAvailable(ctx context.Context) ([]models.Book, error)
	ListBorrowedBy(ctx context.Context, userID string) ([]models.Book, error)
	Borrow(ctx context.Context, id, userID string) (*models.Book, error)
	Return(ctx context.Context, id, userID string) (*models.Book, error)
	SetCoverKey(ctx context.Context, id, key string) error
}

// ListCache caches the rendered available-books response.
type ListCache interface {
	Get(ctx context.Context) ([]byte, error)
	Set(ctx context.Context, payload []byte) error
	Invalidate(ctx context.Context) error
}

// CoverStore defines the interface for cover image storage.
type CoverStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
}

// Handler holds catalog HTTP handlers.
type Handler struct {
	books  BookStore
	cache  ListCache
	covers CoverStore
	log    *zap.SugaredLogger
}

func NewHandler(books BookStore, cache ListCache, covers CoverStore, log *zap.SugaredLogger) *Handler {
	return &Handler{books: books, cache: cache, covers: covers, log: log}
}

// Add creates a new book in the Available state.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req models.AddBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, apperr.New(apperr.Validation, "invalid request body"))
		return
	}
	if err := models.Validate.Struct(req); err != nil {
		apperr.Write(w, apperr.Wrap(apperr.Validation, "title, author and isbn are required", err))
		return
	}

	book, err := h.books.Insert(r.Context(), &models.Book{
		Title:  req.Title,
		Author: req.Author,
		ISBN:   req.ISBN,
		Genre:  req.Genre,
	})
	if err != nil {
		if !apperr.IsKind(err, apperr.Conflict) {
			h.log.Errorw("insert book", "err", err)
		}
		apperr.Write(w, err)
		return
	}

	h.invalidate(r.Context())
	writeJSON(w, http.StatusCreated, book)
}

// ListAvailable returns every book that can currently be borrowed. The
// rendered payload is served from the cache when present.
func (h *Handler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	if h.cache != nil {
		if payload, err := h.cache.Get(r.Context()); err == nil && payload != nil {
			w.Header().Set("Content-Type", "application/json")
			w.Write(payload)
			return
		}
	}

	books, err := h.books.ListAvailable(r.Context())
	if err != nil {
		h.log.Errorw("list available", "err", err)
		apperr.Write(w, err)
		return
	}
	if books == nil {
		books = []models.Book{}
	}

	payload, err := json.Marshal(books)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	if h.cache != nil {
		if err := h.cache.Set(r.Context(), payload); err != nil {
			h.log.Debugw("cache set", "err", err)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

// Borrow transitions a book to Borrowed(caller).
func (h *Handler) Borrow(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		apperr.Write(w, apperr.New(apperr.Authentication, "not authenticated"))
		return
	}

	book, err := h.books.Borrow(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		if apperr.KindOf(err) == apperr.Internal {
			h.log.Errorw("borrow book", "err", err)
		}
		apperr.Write(w, err)
		return
	}

	h.invalidate(r.Context())
	writeJSON(w, http.StatusOK, book)
}

// Return transitions a book back to Available, only for its borrower.
func (h *Handler) Return(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		apperr.Write(w, apperr.New(apperr.Authentication, "not authenticated"))
		return
	}

	book, err := h.books.Return(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		if apperr.KindOf(err) == apperr.Internal {
			h.log.Errorw("return book", "err", err)
		}
		apperr.Write(w, err)
		return
	}

	h.invalidate(r.Context())
	writeJSON(w, http.StatusOK, book)
}

// Mine returns the books currently borrowed by the caller.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		apperr.Write(w, apperr.New(apperr.Authentication, "not authenticated"))
		return
	}

	books, err := h.books.ListBorrowedBy(r.Context(), user.ID)
	if err != nil {
		h.log.Errorw("list borrowed", "err", err)
		apperr.Write(w, err)
		return
	}
	if books == nil {
		books = []models.Book{}
	}
	writeJSON(w, http.StatusOK, books)
}

// UploadCover stores a cover image for a book.
func (h *Handler) UploadCover(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.books.GetByID(r.Context(), id); err != nil {
		apperr.Write(w, err)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxCoverSize+1))
	if err != nil {
		apperr.Write(w, apperr.New(apperr.Validation, "could not read cover data"))
		return
	}
	if len(data) == 0 || len(data) > maxCoverSize {
		apperr.Write(w, apperr.New(apperr.Validation, "cover must be between 1 byte and 5 MiB"))
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	key := fmt.Sprintf("covers/%s-%s", id, uuid.New().String())
	if err := h.covers.Upload(r.Context(), key, data, contentType); err != nil {
		h.log.Errorw("upload cover", "err", err)
		apperr.Write(w, err)
		return
	}
	if err := h.books.SetCoverKey(r.Context(), id, key); err != nil {
		apperr.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "cover uploaded"})
}

// Cover streams a book's cover image.
func (h *Handler) Cover(w http.ResponseWriter, r *http.Request) {
	book, err := h.books.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apperr.Write(w, err)
		return
	}
	if book.CoverKey == "" {
		apperr.Write(w, apperr.New(apperr.NotFound, "cover not available"))
		return
	}

	data, ct, err := h.covers.Download(r.Context(), book.CoverKey)
	if err != nil {
		h.log.Errorw("download cover", "err", err)
		apperr.Write(w, err)
		return
	}
	w.Header().Set("Content-Type", ct)
	w.Write(data)
}

func (h *Handler) invalidate(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx); err != nil {
		h.log.Debugw("cache invalidate", "err", err)
	}
}
