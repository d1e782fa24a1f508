package domain

import "encoding/json"

// RecordType discriminates listings from events across all three sinks.
type RecordType string

const (
	// RecordListing is a vendor listing (homestay, stall, experience).
	RecordListing RecordType = "listing"
	// RecordEvent is an agency event with a schedule.
	RecordEvent RecordType = "event"
)

// Collection is the document-store collection the type persists into.
func (t RecordType) Collection() string {
	if t == RecordEvent {
		return "events"
	}
	return "listings"
}

// VectorCollection is the vector-index collection the type is indexed into.
func (t RecordType) VectorCollection() string {
	if t == RecordEvent {
		return "agency_events_vectors"
	}
	return "vendor_listings_vectors"
}

// CreatedRoutingKey is the bus routing key announcing a persisted record.
func (t RecordType) CreatedRoutingKey() string {
	if t == RecordEvent {
		return "event.created"
	}
	return "listing.created"
}

// Record is a durable listing or event. ID is assigned once before any store
// write and is identical across the document store, the vector index, and the
// published event; it is the join key across all three sinks. CreatedAt is set
// at persistence time and immutable thereafter.
type Record struct {
	ID          string      `json:"id"`
	Type        RecordType  `json:"type"`
	OwnerID     string      `json:"owner_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Price       float64     `json:"price"`
	Location    string      `json:"location"`
	Tags        []string    `json:"tags"`
	Media       []MediaItem `json:"media"`
	CreatedAt   string      `json:"created_at,omitempty"`
	ScheduledAt string      `json:"scheduled_at,omitempty"` // events only
}

// Payload converts the record into the map shape shared by the vector index
// and the published creation event.
func (r Record) Payload() (map[string]any, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
