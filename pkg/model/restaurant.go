package model

import (
	"strconv"
	"strings"
)

const (
	// NoticeName marks the pseudo restaurant returned when data for a ZIP
	// code could not be fetched. It is not a real venue.
	NoticeName = "🍔 Uh oh!"

	noticeCategory = "System Notice"
)

// Restaurant is one recommendation candidate. It is a value without identity
// beyond name+address, owned by a session only while being shown to the user.
type Restaurant struct {
	Name       string
	Categories string
	Rating     string
	Address    string
	ZIPCode    string
}

// RatingValue parses Rating as a number for ranking. "N/A", empty, and other
// non-numeric values rank as 0.
func (r *Restaurant) RatingValue() float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(r.Rating), 64)
	if err != nil {
		return 0
	}
	return v
}

// IsSystemNotice reports whether the entry is a fetch-failure notice rather
// than a real search result. Its Address carries the user-facing message.
func (r *Restaurant) IsSystemNotice() bool {
	return r.Name == NoticeName && r.Categories == noticeCategory
}

// NewNoticeRestaurant builds the placeholder entry surfaced when restaurant
// data for a ZIP code cannot be fetched or built.
func NewNoticeRestaurant(zipCode, message string) *Restaurant {
	return &Restaurant{
		Name:       NoticeName,
		Categories: noticeCategory,
		Rating:     "N/A",
		Address:    message,
		ZIPCode:    zipCode,
	}
}

// CatalogEntry is one row of a fetched dataset: a restaurant plus the
// synthesized text that becomes its embedding input.
type CatalogEntry struct {
	Restaurant
	EmbeddingText string
}
