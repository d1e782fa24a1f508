// Package retrieval drives the read path: query embedding, vector search,
// generative reranking with a deterministic fallback, plus the derived
// recommend/itinerary/message operations.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperlocal-cloud/bazaar/internal/domain"
	"github.com/hyperlocal-cloud/bazaar/internal/logger"
)

const searchTopK = 10

// SearchModeAgency selects the events collection; anything else searches
// vendor listings.
const SearchModeAgency = "via_agency"

// Recommendation pairs vendor and agency hits derived from a user's history.
type Recommendation struct {
	Vendor []domain.SearchHit `json:"vendor"`
	Agency []domain.SearchHit `json:"agency"`
}

// Service handles traveler-side retrieval.
type Service struct {
	gen     Generator
	embed   Embedder
	vectors VectorSearcher
	records RecordReader
	history History
}

// New creates a retrieval service.
func New(gen Generator, embed Embedder, vectors VectorSearcher, records RecordReader, history History) *Service {
	return &Service{gen: gen, embed: embed, vectors: vectors, records: records, history: history}
}

// Search embeds the query, runs similarity search in the mode's collection
// and reranks the result window. The query is appended to the user's history
// best-effort.
func (s *Service) Search(ctx context.Context, userID, query, mode string) ([]domain.SearchHit, error) {
	collection := domain.RecordListing.VectorCollection()
	if mode == SearchModeAgency {
		collection = domain.RecordEvent.VectorCollection()
	}

	vector, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := s.vectors.Search(ctx, collection, vector, searchTopK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	if err := s.history.Append(ctx, userID, query); err != nil {
		logger.FromContext(ctx).Warn("history append failed",
			zap.String("user_id", userID), zap.Error(err))
	}

	return s.rerank(ctx, hits, query), nil
}

// Recommend searches both collections with the user's most recent query.
// An empty history yields empty lists, not an error.
func (s *Service) Recommend(ctx context.Context, userID string, limit int) (Recommendation, error) {
	if limit < 1 {
		limit = 5
	}

	queries, err := s.history.Recent(ctx, userID)
	if err != nil {
		return Recommendation{}, fmt.Errorf("read history: %w", err)
	}
	if len(queries) == 0 {
		return Recommendation{Vendor: []domain.SearchHit{}, Agency: []domain.SearchHit{}}, nil
	}

	vector, err := s.embedQuery(ctx, queries[0])
	if err != nil {
		return Recommendation{}, err
	}

	vendor, err := s.vectors.Search(ctx, domain.RecordListing.VectorCollection(), vector, limit)
	if err != nil {
		return Recommendation{}, fmt.Errorf("vendor search: %w", err)
	}
	agency, err := s.vectors.Search(ctx, domain.RecordEvent.VectorCollection(), vector, limit)
	if err != nil {
		return Recommendation{}, fmt.Errorf("agency search: %w", err)
	}

	return Recommendation{Vendor: vendor, Agency: agency}, nil
}

// Itinerary resolves the given ids against listings first, then events, and
// asks the model for a day plan. Returns domain.ErrNotFound when no id
// resolves.
func (s *Service) Itinerary(ctx context.Context, ids []string, days int) (string, error) {
	items := make([]string, 0, len(ids))
	for _, id := range ids {
		rec, err := s.lookup(ctx, id)
		if err != nil {
			continue
		}
		items = append(items, rec.Title+" - "+rec.Description)
	}
	if len(items) == 0 {
		return "", fmt.Errorf("itinerary items: %w", domain.ErrNotFound)
	}

	prompt := fmt.Sprintf(
		"Create a %d-day itinerary for a traveler using these items:\n%s",
		days, strings.Join(items, "\n"),
	)
	plan, err := s.gen.Generate(ctx, prompt, false)
	if err != nil {
		return "", fmt.Errorf("generate itinerary: %w", err)
	}
	return plan, nil
}

// Message drafts a negotiation message to the owner of the target record.
// Returns domain.ErrNotFound when the target does not exist.
func (s *Service) Message(ctx context.Context, userID, targetID, note string) (string, error) {
	rec, err := s.lookup(ctx, targetID)
	if err != nil {
		return "", fmt.Errorf("target %s: %w", targetID, domain.ErrNotFound)
	}

	prompt := fmt.Sprintf(
		"Write a polite negotiation message from user %s to the owner about %s trying to get a discount. Context: %s",
		userID, rec.Title, note,
	)
	msg, err := s.gen.Generate(ctx, prompt, false)
	if err != nil {
		return "", fmt.Errorf("generate message: %w", err)
	}
	return msg, nil
}

// lookup tries listings first, then events.
func (s *Service) lookup(ctx context.Context, id string) (domain.Record, error) {
	rec, err := s.records.Get(ctx, domain.RecordListing.Collection(), id)
	if err == nil {
		return rec, nil
	}
	return s.records.Get(ctx, domain.RecordEvent.Collection(), id)
}

func (s *Service) embedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := s.embed.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embed query: %w", domain.ErrParseFailure)
	}
	return vectors[0], nil
}
