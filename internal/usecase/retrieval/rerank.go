package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperlocal-cloud/bazaar/internal/domain"
	"github.com/hyperlocal-cloud/bazaar/internal/jsonx"
	"github.com/hyperlocal-cloud/bazaar/internal/logger"
	"github.com/hyperlocal-cloud/bazaar/internal/metrics"
)

// rerankWindow caps how many hits are offered to the model for reordering.
const rerankWindow = 10

// rerank asks the model to reorder hits by relevance to the query. It is
// best-effort: on any model or parse failure the original order is returned
// unchanged, and no hit is ever dropped or invented.
func (s *Service) rerank(ctx context.Context, hits []domain.SearchHit, query string) []domain.SearchHit {
	if len(hits) == 0 {
		metrics.RerankTotal.WithLabelValues("empty").Inc()
		return hits
	}

	window := hits
	if len(window) > rerankWindow {
		window = window[:rerankWindow]
	}

	var b strings.Builder
	for i, h := range window {
		title, _ := h.Payload["title"].(string)
		desc, _ := h.Payload["description"].(string)
		fmt.Fprintf(&b, "%d. (id=%s) %s - %s\n", i+1, h.ID, title, desc)
	}
	prompt := fmt.Sprintf(
		"Rerank the following search results for the search '%s'. "+
			"Output ONLY a JSON array of ids in best-to-worst order, like [\"id1\", \"id2\"]:\n%s",
		query, b.String(),
	)

	raw, err := s.gen.Generate(ctx, prompt, true)
	if err != nil {
		logger.FromContext(ctx).Warn("rerank generation failed", zap.Error(err))
		metrics.RerankTotal.WithLabelValues("fallback").Inc()
		return hits
	}

	order, err := jsonx.ExtractArray(raw)
	if err != nil {
		metrics.RerankTotal.WithLabelValues("fallback").Inc()
		return hits
	}

	byID := make(map[string]domain.SearchHit, len(hits))
	for _, h := range hits {
		byID[h.ID] = h
	}

	reordered := make([]domain.SearchHit, 0, len(hits))
	taken := make(map[string]struct{}, len(order))
	for _, id := range order {
		h, known := byID[id]
		if !known {
			continue // unknown ids from the model are ignored
		}
		if _, dup := taken[id]; dup {
			continue
		}
		taken[id] = struct{}{}
		reordered = append(reordered, h)
	}
	// Unreferenced hits keep their original relative order at the tail.
	for _, h := range hits {
		if _, ok := taken[h.ID]; !ok {
			reordered = append(reordered, h)
		}
	}

	metrics.RerankTotal.WithLabelValues("reordered").Inc()
	return reordered
}
