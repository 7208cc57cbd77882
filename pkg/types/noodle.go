package types

import (
	"encoding/json"
	"time"
)

// Rating bounds and the default for new noodles.
const (
	MinRating     = 1
	MaxRating     = 10
	DefaultRating = 5
)

// Noodle is an instant noodle product in the catalog.
type Noodle struct {
	NoodleID       string         `json:"noodleId"`       // UUID v7, generated on creation.
	Name           string         `json:"name"`           // Product name (required).
	Brand          string         `json:"brand"`          // Manufacturer (required).
	SpicinessLevel SpicinessLevel `json:"spicinessLevel"` // 1..5, default 3.
	OriginCountry  string         `json:"originCountry"`  // One of the Country values.
	Rating         int            `json:"rating"`         // 1..10, default 5.
	ReviewsCount   int64          `json:"reviewsCount"`   // Never decreases.
	ImageURL       string         `json:"imageUrl"`       // Optional.
	CategoryID     string         `json:"categoryId"`     // Optional reference to a Category.
	CreatedAt      time.Time      `json:"createdAt"`

	// LastReviewedAt is the time reviewsCount last increased. Only the
	// review-count guard sets it; values supplied by callers are ignored.
	LastReviewedAt *time.Time `json:"lastReviewedAt"`
}

// SpicinessDescription returns the display label for the noodle's level.
// It is computed on every call and never stored.
func (n *Noodle) SpicinessDescription() string {
	return DescribeSpiciness(n.SpicinessLevel)
}

// AddReview increments ReviewsCount by one. The change is not persisted
// until the caller saves the noodle.
func (n *Noodle) AddReview() {
	n.ReviewsCount++
}

// noodleAlias drops Noodle's methods so MarshalJSON does not recurse.
type noodleAlias Noodle

// MarshalJSON encodes the noodle with its computed spicinessDescription.
func (n Noodle) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		noodleAlias
		SpicinessDescription string `json:"spicinessDescription"`
	}{
		noodleAlias:          noodleAlias(n),
		SpicinessDescription: n.SpicinessDescription(),
	})
}

// values returns the writable fields keyed by API name, in the shape
// Schema.Check expects.
func (n *Noodle) values() map[string]any {
	return map[string]any{
		"name":           n.Name,
		"brand":          n.Brand,
		"spicinessLevel": int64(n.SpicinessLevel),
		"originCountry":  n.OriginCountry,
		"rating":         int64(n.Rating),
		"reviewsCount":   n.ReviewsCount,
		"imageUrl":       n.ImageURL,
		"categoryId":     n.CategoryID,
	}
}

// Validate checks the noodle's writable fields against NoodleSchema.
// Returns a *ValidationError naming the first offending field.
func (n *Noodle) Validate() error {
	return NoodleSchema().Check(n.values())
}

// ApplyDefaults fills zero-valued fields that declare a schema default.
// Used on create, where zero means the caller left the field out.
func (n *Noodle) ApplyDefaults() {
	s := NoodleSchema()
	if n.SpicinessLevel == 0 {
		if v, ok := s.Default("spicinessLevel").(int64); ok {
			n.SpicinessLevel = SpicinessLevel(v)
		}
	}
	if n.Rating == 0 {
		if v, ok := s.Default("rating").(int64); ok {
			n.Rating = int(v)
		}
	}
}

// NoodlePatch is a partial noodle update. Nil fields are left untouched;
// in particular a nil ReviewsCount means the update does not propose a new
// review count.
type NoodlePatch struct {
	Name           *string         `json:"name,omitempty"`
	Brand          *string         `json:"brand,omitempty"`
	SpicinessLevel *SpicinessLevel `json:"spicinessLevel,omitempty"`
	OriginCountry  *string         `json:"originCountry,omitempty"`
	Rating         *int            `json:"rating,omitempty"`
	ReviewsCount   *int64          `json:"reviewsCount,omitempty"`
	ImageURL       *string         `json:"imageUrl,omitempty"`
	CategoryID     *string         `json:"categoryId,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p *NoodlePatch) Empty() bool {
	return p.Name == nil && p.Brand == nil && p.SpicinessLevel == nil &&
		p.OriginCountry == nil && p.Rating == nil && p.ReviewsCount == nil &&
		p.ImageURL == nil && p.CategoryID == nil
}

// ApplyTo copies the patch's non-nil fields onto n.
func (p *NoodlePatch) ApplyTo(n *Noodle) {
	if p.Name != nil {
		n.Name = *p.Name
	}
	if p.Brand != nil {
		n.Brand = *p.Brand
	}
	if p.SpicinessLevel != nil {
		n.SpicinessLevel = *p.SpicinessLevel
	}
	if p.OriginCountry != nil {
		n.OriginCountry = *p.OriginCountry
	}
	if p.Rating != nil {
		n.Rating = *p.Rating
	}
	if p.ReviewsCount != nil {
		n.ReviewsCount = *p.ReviewsCount
	}
	if p.ImageURL != nil {
		n.ImageURL = *p.ImageURL
	}
	if p.CategoryID != nil {
		n.CategoryID = *p.CategoryID
	}
}
