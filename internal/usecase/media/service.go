// Package media runs the per-item processing sub-pipelines: transcription,
// translation and tagging for audio, enhancement and color tagging for
// images. A failing item degrades instead of aborting its request.
package media

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

const (
	minTagLen = 2
	maxTagLen = 49
)

// Service processes one uploaded media file into a tagged MediaItem plus a
// text fragment for aggregation.
type Service struct {
	stt     Transcriber
	enhance Enhancer
	gen     Generator
	bus     Publisher
}

// New creates a media processing service.
func New(stt Transcriber, enhance Enhancer, gen Generator, bus Publisher) *Service {
	return &Service{stt: stt, enhance: enhance, gen: gen, bus: bus}
}

// ProcessItem classifies the file and runs the matching sub-pipeline. It
// never returns an error: any internal failure is logged and converted to a
// degraded item with an empty fragment.
func (s *Service) ProcessItem(ctx context.Context, path string) domain.ProcessedItem {
	log := logger.FromContext(ctx)

	kind := domain.ClassifyMedia(path)
	var (
		out domain.ProcessedItem
		err error
	)
	switch kind {
	case domain.MediaAudio:
		out, err = s.processAudio(ctx, path)
	default:
		out, err = s.processImage(ctx, path)
	}
	if err != nil {
		log.Warn("media item degraded",
			zap.String("path", path),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		metrics.MediaProcessedTotal.WithLabelValues(string(kind), "degraded").Inc()
		return domain.ProcessedItem{Item: domain.Degraded(path)}
	}

	metrics.MediaProcessedTotal.WithLabelValues(string(kind), "ok").Inc()
	return out
}

// processAudio runs transcribe → translate (non-Latin script only) →
// summarize → tag.
func (s *Service) processAudio(ctx context.Context, path string) (domain.ProcessedItem, error) {
	transcript, err := s.stt.Transcribe(ctx, path)
	if err != nil {
		return domain.ProcessedItem{}, fmt.Errorf("transcribe: %w", err)
	}

	working := transcript
	if containsDevanagari(transcript) {
		translated, err := s.gen.Generate(ctx,
			"Translate the following text to English. Return only the translation.\n\n"+transcript,
			false,
		)
		if err != nil {
			return domain.ProcessedItem{}, fmt.Errorf("translate: %w", err)
		}
		working = translated
	}
	s.notify(ctx, "transcription.completed", map[string]any{
		"path":       path,
		"transcript": working,
	})

	summary, err := s.gen.Generate(ctx,
		"Summarize the following vendor description in two factual sentences.\n\n"+working,
		false,
	)
	if err != nil {
		return domain.ProcessedItem{}, fmt.Errorf("summarize: %w", err)
	}

	tags, err := s.extractTags(ctx, working)
	if err != nil {
		return domain.ProcessedItem{}, fmt.Errorf("tag: %w", err)
	}
	return domain.ProcessedItem{
		Item:     domain.MediaItem{Path: path, Kind: domain.MediaAudio, Tags: tags},
		Fragment: summary,
	}, nil
}

// processImage runs enhance → color tags → topical tag expansion.
func (s *Service) processImage(ctx context.Context, path string) (domain.ProcessedItem, error) {
	enhanced, err := s.enhance.Enhance(path)
	if err != nil {
		return domain.ProcessedItem{}, fmt.Errorf("enhance: %w", err)
	}

	colorTags, err := s.enhance.ColorTags(enhanced)
	if err != nil {
		return domain.ProcessedItem{}, fmt.Errorf("color tags: %w", err)
	}
	s.notify(ctx, "image.processed", map[string]any{
		"path":     path,
		"enhanced": enhanced,
	})

	tags, err := s.extractTags(ctx, strings.Join(colorTags, ", ")+" toned marketplace photo")
	if err != nil {
		return domain.ProcessedItem{}, fmt.Errorf("tag: %w", err)
	}
	tags = filterTags(append(colorTags, tags...))

	return domain.ProcessedItem{
		Item:     domain.MediaItem{Path: enhanced, Kind: domain.MediaImage, Tags: tags},
		Fragment: strings.Join(colorTags, " "),
	}, nil
}

// extractTags asks the model for a JSON array of 5-10 tags and parses it
// safely; on a parse failure it falls back to comma-splitting the raw reply.
// A model error propagates so the caller can degrade the item.
func (s *Service) extractTags(ctx context.Context, text string) ([]string, error) {
	prompt := "Extract 5 to 10 short topical tags from the following text. " +
		"Respond with a JSON array of strings only.\n\n" + text

	raw, err := s.gen.Generate(ctx, prompt, true)
	if err != nil {
		return nil, err
	}

	tags, err := jsonx.ExtractArray(raw)
	if err != nil {
		tags = strings.Split(raw, ",")
	}
	return filterTags(tags), nil
}

// filterTags trims whitespace and drops empty or artifact-length strings.
func filterTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if len(t) < minTagLen || len(t) > maxTagLen {
			continue
		}
		out = append(out, t)
	}
	return out
}

// notify publishes a progress event best-effort. Bus trouble never fails an
// item.
func (s *Service) notify(ctx context.Context, routingKey string, payload map[string]any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, routingKey, payload); err != nil {
		logger.FromContext(ctx).Warn("publish failed",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}

// containsDevanagari reports whether text carries Devanagari codepoints
// (U+0900–U+097F), which triggers translation before summarization.
func containsDevanagari(text string) bool {
	for _, r := range text {
		if r >= 0x0900 && r <= 0x097F {
			return true
		}
	}
	return false
}
