package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/digital-library/internal/apperr"
	"github.com/ayush/digital-library/internal/models"
)

// MongoStore handles catalog CRUD in MongoDB. Availability transitions are
// single conditional FindOneAndUpdate calls, so a borrow and its competing
// borrow can never both observe the book as available.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("books")}
}

// EnsureIndexes creates the unique isbn index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "isbn", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Insert adds a new book in the Available state.
func (s *MongoStore) Insert(ctx context.Context, book *models.Book) (*models.Book, error) {
	now := time.Now()
	book.ID = primitive.NilObjectID
	book.Available = true
	book.BorrowedBy = ""
	book.CreatedAt = now
	book.UpdatedAt = now

	res, err := s.col.InsertOne(ctx, book)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.New(apperr.Conflict, "a book with this isbn already exists")
		}
		return nil, err
	}
	book.ID = res.InsertedID.(primitive.ObjectID)
	return book, nil
}

func (s *MongoStore) GetByID(ctx context.Context, id string) (*models.Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.New(apperr.NotFound, "book not found")
	}
	var book models.Book
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&book); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.New(apperr.NotFound, "book not found")
		}
		return nil, err
	}
	return &book, nil
}

// ListAvailable returns every book currently available to borrow.
func (s *MongoStore) ListAvailable(ctx context.Context) ([]models.Book, error) {
	return s.list(ctx, bson.M{"available": true})
}

// ListBorrowedBy returns every book currently held by userID.
func (s *MongoStore) ListBorrowedBy(ctx context.Context, userID string) ([]models.Book, error) {
	return s.list(ctx, bson.M{"borrowed_by": userID})
}

// ListAll returns the whole catalog, newest first.
func (s *MongoStore) ListAll(ctx context.Context) ([]models.Book, error) {
	return s.list(ctx, bson.M{})
}

func (s *MongoStore) list(ctx context.Context, filter bson.M) ([]models.Book, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var books []models.Book
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// Borrow atomically transitions the book to Borrowed(userID). The filter
// requires available=true, so of two concurrent borrows exactly one matches.
func (s *MongoStore) Borrow(ctx context.Context, id, userID string) (*models.Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.New(apperr.NotFound, "book not found")
	}

	var book models.Book
	err = s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "available": true},
		bson.M{"$set": bson.M{
			"available":   false,
			"borrowed_by": userID,
			"updated_at":  time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&book)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either the book doesn't exist or someone else holds it.
		if _, getErr := s.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, apperr.New(apperr.Conflict, "book already borrowed")
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Return atomically transitions the book back to Available, but only when
// userID is its current borrower.
func (s *MongoStore) Return(ctx context.Context, id, userID string) (*models.Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.New(apperr.NotFound, "book not found")
	}

	var book models.Book
	err = s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "borrowed_by": userID},
		bson.M{
			"$set":   bson.M{"available": true, "updated_at": time.Now()},
			"$unset": bson.M{"borrowed_by": ""},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&book)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := s.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, apperr.New(apperr.Authorization, "you can only return books you borrowed")
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// SetCoverKey records the object key of the book's uploaded cover.
func (s *MongoStore) SetCoverKey(ctx context.Context, id, key string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.New(apperr.NotFound, "book not found")
	}
	res, err := s.col.UpdateByID(ctx, oid, bson.M{
		"$set": bson.M{"cover_key": key, "updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.NotFound, "book not found")
	}
	return nil
}
