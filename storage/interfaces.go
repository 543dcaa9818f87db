package storage

import "reverb-sync/models"

// ListingWriter is the interface any snapshot backend must satisfy.
type ListingWriter interface {
	WriteListings(listings []*models.Listing) error
	Close() error
}
