package models

import "time"

// Movie represents a single entry in a user's movie collection. The owner is
// set at creation and never reassigned.
type Movie struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Rating      int       `json:"rating"` // 1..100
	ReleaseDate Date      `json:"releaseDate"`
	CatalogID   *int64    `json:"catalogId,omitempty"` // External catalog reference
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MovieInput holds the client-supplied fields for creating a movie.
type MovieInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Rating      int     `json:"rating"`
	ReleaseDate Date    `json:"releaseDate"`
	CatalogID   *int64  `json:"catalogId"`
}
