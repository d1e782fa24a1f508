package domain

import "strings"

// MediaKind classifies an uploaded media file.
type MediaKind string

const (
	// MediaAudio is a voice recording processed by the STT sub-pipeline.
	MediaAudio MediaKind = "audio"
	// MediaImage is a photo processed by the enhancement sub-pipeline.
	MediaImage MediaKind = "image"
	// MediaUnknown marks a degraded item whose processing failed.
	MediaUnknown MediaKind = "unknown"
)

// MediaItem is one processed upload. Immutable once produced; owned by the
// listing or event it belongs to.
type MediaItem struct {
	Path string    `json:"path"`
	Kind MediaKind `json:"kind"`
	Tags []string  `json:"tags"`
}

// Degraded returns the fallback MediaItem for a file whose processing failed.
// One bad file never aborts the whole listing.
func Degraded(path string) MediaItem {
	return MediaItem{Path: path, Kind: MediaUnknown, Tags: []string{}}
}

// ClassifyMedia sniffs the media kind from the file extension.
func ClassifyMedia(path string) MediaKind {
	lower := strings.ToLower(path)
	for _, ext := range []string{".wav", ".mp3", ".ogg"} {
		if strings.HasSuffix(lower, ext) {
			return MediaAudio
		}
	}
	return MediaImage
}

// ProcessedItem pairs a MediaItem with the text fragment it contributes to
// aggregation. A degraded item carries an empty fragment.
type ProcessedItem struct {
	Item     MediaItem
	Fragment string
}

// AggregatedContent is the merged output of all media items for one ingestion
// request. Built once, consumed exactly once by the writer.
type AggregatedContent struct {
	Title       string
	Description string
	Tags        []string
	Media       []MediaItem
}

// EmbeddingText is the text the record embedding is computed from.
func (a AggregatedContent) EmbeddingText() string {
	return a.Title + " " + a.Description + " " + strings.Join(a.Tags, " ")
}
