// Package client is the Go counterpart of the web frontend: an API client
// that carries the token cookie automatically, plus an explicit state
// container mirroring "who is logged in" and "what books exist".
package client

import (
	"bytes"
	"context"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/ayush/digital-library/internal/apperr"
	"github.com/ayush/digital-library/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client talks to the library API. The cookie jar keeps the session token
// between calls, the same way the browser does.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, fullName, email, password string) error {
	req := models.RegisterRequest{FullName: fullName, Email: email, Password: password}
	return c.do(ctx, http.MethodPost, "/register", req, nil)
}

type loginResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

// Login authenticates and stores the token cookie in the jar.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	req := models.LoginRequest{Email: email, Password: password}
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/login", req, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Logout discards the server-side cookie.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil)
}

// Profile fetches the authenticated user.
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// AvailableBooks lists every book that can currently be borrowed.
func (c *Client) AvailableBooks(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	if err := c.do(ctx, http.MethodGet, "/api/books", nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// AddBook creates a new catalog entry.
func (c *Client) AddBook(ctx context.Context, req models.AddBookRequest) (*models.Book, error) {
	var book models.Book
	if err := c.do(ctx, http.MethodPost, "/api/books/add", req, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// Borrow borrows a book for the logged-in user.
func (c *Client) Borrow(ctx context.Context, id string) (*models.Book, error) {
	var book models.Book
	if err := c.do(ctx, http.MethodPut, "/api/books/borrow/"+id, nil, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// Return returns a borrowed book.
func (c *Client) Return(ctx context.Context, id string) (*models.Book, error) {
	var book models.Book
	if err := c.do(ctx, http.MethodPut, "/api/books/return/"+id, nil, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// MyBooks lists the books borrowed by the logged-in user.
func (c *Client) MyBooks(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	if err := c.do(ctx, http.MethodGet, "/api/books/mybooks", nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error == "" {
			apiErr.Error = resp.Status
		}
		return apperr.New(kindForStatus(resp.StatusCode), apiErr.Error)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func kindForStatus(status int) apperr.Kind {
	switch status {
	case http.StatusBadRequest:
		return apperr.Validation
	case http.StatusUnauthorized:
		return apperr.Authentication
	case http.StatusForbidden:
		return apperr.Authorization
	case http.StatusNotFound:
		return apperr.NotFound
	case http.StatusConflict:
		return apperr.Conflict
	default:
		return apperr.Internal
	}
}
