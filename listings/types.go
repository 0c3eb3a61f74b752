package listings

import "encoding/json"

// Location places a listing.
type Location struct {
	Country string  `json:"country"`
	State   string  `json:"state"`
	City    string  `json:"city"`
	Hood    *string `json:"hood"`
}

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Preview is the summary shown in listing grids.
type Preview struct {
	Name        string   `json:"name"`
	ImageURL    string   `json:"imageUrl"`
	Location    Location `json:"location"`
	Description string   `json:"description"`
}

// Detail is a full listing. StaySlots, OvernightInfo and the rest of the
// document are opaque to this package.
type Detail struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug,omitempty"`
	Address        string          `json:"address"`
	City           string          `json:"city"`
	State          string          `json:"state"`
	ZipCode        string          `json:"zipCode"`
	Images         []string        `json:"images"`
	Location       Location        `json:"location"`
	Coordinates    Coordinates     `json:"coordinates"`
	Description    string          `json:"description"`
	Rating         float64         `json:"rating"`
	ContactMethods []string        `json:"contactMethods,omitempty"`
	StaySlots      json.RawMessage `json:"motelStaySlots,omitempty"`
	OvernightInfo  json.RawMessage `json:"overnightInfo,omitempty"`
	// Telephone is a tel: URI derived from ContactMethods.
	Telephone string `json:"telephone,omitempty"`
}

// Review is a review or, when ParentID is set, a reply.
type Review struct {
	ID         string  `json:"id"`
	MotelID    string  `json:"motelId,omitempty"`
	ParentID   *string `json:"parentId"`
	Content    string  `json:"content"`
	Rating     int     `json:"rating"`
	AuthorName string  `json:"authorName,omitempty"`
	CreatedAt  string  `json:"createdAt,omitempty"`
	ReplyCount int     `json:"replyCount,omitempty"`
}

// IsReply reports whether r answers another review.
func (r Review) IsReply() bool { return r.ParentID != nil && *r.ParentID != "" }

// CreateReviewInput is the body of a review creation.
type CreateReviewInput struct {
	Content  string  `json:"content" validate:"notblank,max=2000"`
	Rating   int     `json:"rating" validate:"min=0,max=5"`
	ParentID *string `json:"parentId"`
}

// CreateReviewResult is the backend reply to a review creation.
type CreateReviewResult struct {
	ReviewID string `json:"reviewId"`
}
