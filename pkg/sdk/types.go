package sdk

// MediaItem is one processed upload attached to a record.
type MediaItem struct {
	Path string   `json:"path"`
	Kind string   `json:"kind"`
	Tags []string `json:"tags"`
}

// Record is a persisted listing or event.
type Record struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	OwnerID     string      `json:"owner_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Price       float64     `json:"price"`
	Location    string      `json:"location"`
	Tags        []string    `json:"tags"`
	Media       []MediaItem `json:"media"`
	CreatedAt   string      `json:"created_at,omitempty"`
	ScheduledAt string      `json:"scheduled_at,omitempty"`
}

// SearchHit is one ranked search result.
type SearchHit struct {
	ID      string         `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// CreateListingRequest creates a vendor listing from media files.
type CreateListingRequest struct {
	VendorID   string   `json:"vendor_id"`
	Title      string   `json:"title,omitempty"`
	Price      float64  `json:"price"`
	Location   string   `json:"location"`
	MediaFiles []string `json:"media_files"`
}

// CreateListingResponse is the ingestion result for a listing.
type CreateListingResponse struct {
	Status  string `json:"status"`
	Listing Record `json:"listing"`
	Warning string `json:"warning,omitempty"`
}

// CreateEventRequest creates an agency event from media files.
type CreateEventRequest struct {
	AgencyID   string   `json:"agency_id"`
	Title      string   `json:"title"`
	DateTime   string   `json:"datetime"`
	Location   string   `json:"location"`
	Price      float64  `json:"price"`
	MediaFiles []string `json:"media_files"`
}

// CreateEventResponse is the ingestion result for an event.
type CreateEventResponse struct {
	Status  string `json:"status"`
	Event   Record `json:"event"`
	Warning string `json:"warning,omitempty"`
}

// UpdateMetadataRequest merges fields into a stored record.
type UpdateMetadataRequest struct {
	Collection string         `json:"collection"`
	ID         string         `json:"id"`
	Update     map[string]any `json:"update"`
}

// SearchRequest runs a traveler search. Mode is "via_vendor" or "via_agency".
type SearchRequest struct {
	Query  string `json:"query"`
	Mode   string `json:"mode"`
	UserID string `json:"user_id,omitempty"`
}

// SearchResponse holds the reranked results.
type SearchResponse struct {
	Results []SearchHit `json:"results"`
}

// Recommendation pairs vendor and agency hits.
type Recommendation struct {
	Vendor []SearchHit `json:"vendor"`
	Agency []SearchHit `json:"agency"`
}

// ItineraryRequest builds a day plan from stored record ids.
type ItineraryRequest struct {
	UserID string   `json:"user_id"`
	Items  []string `json:"items"`
	Days   int      `json:"days"`
}

// MessageRequest drafts a negotiation message for a target record.
type MessageRequest struct {
	UserID   string `json:"user_id"`
	TargetID string `json:"target_id"`
	Context  string `json:"context,omitempty"`
}
