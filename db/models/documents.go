package models

import "time"

// NarrativeDocument is one key of the narrative cache. Text and expiry are
// stored as separate documents, mirroring the "<slug>" and "<slug>-expire" keys.
type NarrativeDocument struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// SlugDocument is the projection used when listing project slugs.
type SlugDocument struct {
	Slug string `bson:"slug"`
	Type string `bson:"_type,omitempty"`
}
