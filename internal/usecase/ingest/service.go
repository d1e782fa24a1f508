// Package ingest drives the write path: bounded media fan-out, content
// aggregation, embedding, and the ordered three-way persistence fan-out.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperlocal-cloud/bazaar/internal/domain"
	"github.com/hyperlocal-cloud/bazaar/internal/logger"
	"github.com/hyperlocal-cloud/bazaar/internal/metrics"
)

const (
	defaultTitle       = "Cozy stay"
	defaultDescription = "Cozy homestay in a great location."
)

// Request carries the caller-supplied fields of one ingestion.
type Request struct {
	Type        domain.RecordType
	OwnerID     string
	Title       string
	Price       float64
	Location    string
	ScheduledAt string // events only
	MediaPaths  []string
}

// Service runs the full ingestion pipeline for listings and events.
type Service struct {
	processor ItemProcessor
	gen       Generator
	embed     Embedder
	records   Records
	vectors   Vectors
	bus       Publisher
	workers   int
}

// New creates an ingestion service. workers bounds concurrent in-flight media
// items per request.
func New(
	processor ItemProcessor, gen Generator, embed Embedder,
	records Records, vectors Vectors, bus Publisher, workers int,
) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{
		processor: processor, gen: gen, embed: embed,
		records: records, vectors: vectors, bus: bus, workers: workers,
	}
}

// Ingest processes the request's media, aggregates the results and persists
// the record. A non-nil record with an error wrapping domain.ErrPartialWrite
// means the durable document exists but a later fan-out step failed.
func (s *Service) Ingest(ctx context.Context, req Request) (domain.Record, error) {
	items := s.processAll(ctx, req.MediaPaths)
	content := s.aggregate(ctx, req.Title, items)

	rec := domain.Record{
		Type:        req.Type,
		OwnerID:     req.OwnerID,
		Title:       content.Title,
		Description: content.Description,
		Price:       req.Price,
		Location:    req.Location,
		Tags:        content.Tags,
		Media:       content.Media,
		ScheduledAt: req.ScheduledAt,
	}
	return s.persist(ctx, rec, content.EmbeddingText())
}

// processAll fans media items out over a bounded worker group and joins
// before returning. Results land at their input index, so no shared mutable
// state is touched concurrently; no item's failure cancels siblings.
func (s *Service) processAll(ctx context.Context, paths []string) []domain.ProcessedItem {
	items := make([]domain.ProcessedItem, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, path := range paths {
		g.Go(func() error {
			items[i] = s.processor.ProcessItem(gctx, path)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; they degrade

	return items
}

// aggregate merges per-item outputs into one title/description/tag set.
func (s *Service) aggregate(ctx context.Context, title string, items []domain.ProcessedItem) domain.AggregatedContent {
	media := make([]domain.MediaItem, 0, len(items))
	tags := make([]string, 0)
	seen := make(map[string]struct{})
	fragments := make([]string, 0, len(items))

	for _, it := range items {
		media = append(media, it.Item)
		for _, t := range it.Item.Tags {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
		if strings.TrimSpace(it.Fragment) != "" {
			fragments = append(fragments, it.Fragment)
		}
	}

	description := defaultDescription
	if len(fragments) > 0 {
		notes := strings.Join(fragments, " ")
		generated, err := s.gen.Generate(ctx,
			"Write a brief, factual description (3-4 sentences) based on these notes: "+notes,
			false,
		)
		if err != nil {
			logger.FromContext(ctx).Warn("description synthesis failed", zap.Error(err))
		} else {
			description = generated
		}
	}

	if title == "" {
		if len(tags) > 0 {
			title = tags[0]
		} else {
			title = defaultTitle
		}
	}

	return domain.AggregatedContent{
		Title:       title,
		Description: description,
		Tags:        tags,
		Media:       media,
	}
}

// persist assigns identity, embeds, then performs the ordered write fan-out:
// document store, vector index, bus publish. Only the first step is fatal.
func (s *Service) persist(ctx context.Context, rec domain.Record, embeddingText string) (domain.Record, error) {
	log := logger.FromContext(ctx)

	// Identity is fixed before any I/O and shared across all three sinks.
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = time.Now().UTC().Format(time.RFC3339)

	vector := s.embedOrZero(ctx, embeddingText)

	if err := s.records.Upsert(ctx, rec); err != nil {
		metrics.RecordsPersistedTotal.WithLabelValues(string(rec.Type), "error").Inc()
		return domain.Record{}, fmt.Errorf("upsert record: %w", err)
	}

	payload, err := rec.Payload()
	if err != nil {
		metrics.RecordsPersistedTotal.WithLabelValues(string(rec.Type), "partial").Inc()
		return rec, &domain.PartialWriteError{RecordID: rec.ID, Steps: []string{"payload"}, Err: err}
	}

	var failed []string
	var lastErr error
	if err := s.vectors.Upsert(ctx, rec.Type.VectorCollection(), rec.ID, vector, payload); err != nil {
		log.Warn("vector upsert failed after document write",
			zap.String("id", rec.ID), zap.Error(err))
		failed = append(failed, "vector")
		lastErr = err
	}
	if err := s.bus.Publish(ctx, rec.Type.CreatedRoutingKey(), payload); err != nil {
		log.Warn("publish failed after document write",
			zap.String("id", rec.ID), zap.Error(err))
		failed = append(failed, "publish")
		lastErr = err
	}
	if len(failed) > 0 {
		metrics.RecordsPersistedTotal.WithLabelValues(string(rec.Type), "partial").Inc()
		return rec, &domain.PartialWriteError{RecordID: rec.ID, Steps: failed, Err: lastErr}
	}

	metrics.RecordsPersistedTotal.WithLabelValues(string(rec.Type), "ok").Inc()
	return rec, nil
}

// embedOrZero computes the record embedding, substituting a zero vector of
// the index's dimensionality when the model cannot deliver. A degraded but
// present record beats no record.
func (s *Service) embedOrZero(ctx context.Context, text string) []float32 {
	vectors, err := s.embed.Embed(ctx, []string{text})
	if err != nil || len(vectors) == 0 || len(vectors[0]) != s.vectors.Dimensions() {
		logger.FromContext(ctx).Warn("embedding degraded to zero vector", zap.Error(err))
		return make([]float32, s.vectors.Dimensions())
	}
	return vectors[0]
}
