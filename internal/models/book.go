package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Book is a single catalog entry stored in MongoDB.
//
// Invariant: Available is false exactly when BorrowedBy is set.
type Book struct {
	ID         primitive.ObjectID `json:"id"                   bson:"_id,omitempty"`
	Title      string             `json:"title"                bson:"title"`
	Author     string             `json:"author"               bson:"author"`
	ISBN       string             `json:"isbn"                 bson:"isbn"`
	Genre      string             `json:"genre,omitempty"      bson:"genre,omitempty"`
	Available  bool               `json:"available"            bson:"available"`
	BorrowedBy string             `json:"borrowedBy,omitempty" bson:"borrowed_by,omitempty"`
	CoverKey   string             `json:"-"                    bson:"cover_key,omitempty"`
	CreatedAt  time.Time          `json:"created_at"           bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"           bson:"updated_at"`
}

// AddBookRequest is the JSON body for POST /api/books.
type AddBookRequest struct {
	Title  string `json:"title"  validate:"required"`
	Author string `json:"author" validate:"required"`
	ISBN   string `json:"isbn"   validate:"required"`
	Genre  string `json:"genre"`
}
