package sdk

import "context"

// CreateListing ingests a vendor listing with its media files.
func (c *Client) CreateListing(ctx context.Context, req CreateListingRequest) (CreateListingResponse, error) {
	var resp CreateListingResponse
	err := c.post(ctx, "/agent/vendor/create-listing", req, &resp)
	return resp, err
}

// CreateEvent ingests an agency event with its media files.
func (c *Client) CreateEvent(ctx context.Context, req CreateEventRequest) (CreateEventResponse, error) {
	var resp CreateEventResponse
	err := c.post(ctx, "/agent/vendor/create-event", req, &resp)
	return resp, err
}

// UpdateMetadata merges fields into a stored record.
func (c *Client) UpdateMetadata(ctx context.Context, req UpdateMetadataRequest) error {
	return c.post(ctx, "/agent/vendor/update-metadata", req, nil)
}

// Search runs a reranked similarity search.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]SearchHit, error) {
	var resp SearchResponse
	if err := c.post(ctx, "/agent/traveler/search", req, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Recommend derives suggestions from the user's query history.
func (c *Client) Recommend(ctx context.Context, userID string, limit int) (Recommendation, error) {
	var resp Recommendation
	err := c.post(ctx, "/agent/traveler/recommend", map[string]any{
		"user_id": userID,
		"limit":   limit,
	}, &resp)
	return resp, err
}

// Itinerary builds a day plan from stored record ids.
func (c *Client) Itinerary(ctx context.Context, req ItineraryRequest) (string, error) {
	var resp struct {
		Itinerary string `json:"itinerary"`
	}
	if err := c.post(ctx, "/agent/traveler/itinerary", req, &resp); err != nil {
		return "", err
	}
	return resp.Itinerary, nil
}

// Message drafts a negotiation message to a record's owner.
func (c *Client) Message(ctx context.Context, req MessageRequest) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.post(ctx, "/agent/traveler/message", req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}
