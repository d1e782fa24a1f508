package media

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hyperlocal-cloud/bazaar/internal/domain"
	"github.com/hyperlocal-cloud/bazaar/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterLLMMetrics()
	m.Run()
}

// --- Mocks ---

type mockSTT struct {
	text string
	err  error
}

func (m *mockSTT) Transcribe(_ context.Context, _ string) (string, error) {
	return m.text, m.err
}

type mockEnhancer struct {
	enhanced   string
	enhanceErr error
	colors     []string
	colorsErr  error
}

func (m *mockEnhancer) Enhance(_ string) (string, error) {
	return m.enhanced, m.enhanceErr
}

func (m *mockEnhancer) ColorTags(_ string) ([]string, error) {
	return m.colors, m.colorsErr
}

// mockGen answers by prompt prefix so a single mock serves the whole
// translate/summarize/tag chain.
type mockGen struct {
	prompts   []string
	translate string
	summary   string
	tags      string
	tagsErr   error
	err       error
}

func (m *mockGen) Generate(_ context.Context, prompt string, structured bool) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	switch {
	case structured:
		return m.tags, m.tagsErr
	case strings.HasPrefix(prompt, "Translate"):
		return m.translate, nil
	default:
		return m.summary, nil
	}
}

func (m *mockGen) calledTranslate() bool {
	for _, p := range m.prompts {
		if strings.HasPrefix(p, "Translate") {
			return true
		}
	}
	return false
}

type mockBus struct {
	keys     []string
	payloads []any
}

func (m *mockBus) Publish(_ context.Context, routingKey string, payload any) error {
	m.keys = append(m.keys, routingKey)
	m.payloads = append(m.payloads, payload)
	return nil
}

// --- Tests ---

func TestProcessItemDegradesOnTranscribeFailure(t *testing.T) {
	svc := New(
		&mockSTT{err: errors.New("stt down")},
		&mockEnhancer{},
		&mockGen{},
		nil,
	)

	got := svc.ProcessItem(context.Background(), "room.mp3")

	if got.Item.Kind != domain.MediaUnknown {
		t.Errorf("kind = %s, want unknown", got.Item.Kind)
	}
	if len(got.Item.Tags) != 0 {
		t.Errorf("tags = %v, want empty", got.Item.Tags)
	}
	if got.Fragment != "" {
		t.Errorf("fragment = %q, want empty", got.Fragment)
	}
}

func TestProcessItemDegradesOnEnhanceFailure(t *testing.T) {
	svc := New(
		&mockSTT{},
		&mockEnhancer{enhanceErr: errors.New("decode image: bad header")},
		&mockGen{},
		nil,
	)

	got := svc.ProcessItem(context.Background(), "photo.jpg")

	if got.Item.Kind != domain.MediaUnknown {
		t.Errorf("kind = %s, want unknown", got.Item.Kind)
	}
	if got.Item.Path != "photo.jpg" {
		t.Errorf("path = %q, want original", got.Item.Path)
	}
}

func TestProcessAudioLatinSkipsTranslation(t *testing.T) {
	gen := &mockGen{summary: "A cozy room near the lake.", tags: `["homestay", "lakeside"]`}
	bus := &mockBus{}
	svc := New(&mockSTT{text: "cozy room near the lake"}, &mockEnhancer{}, gen, bus)

	got := svc.ProcessItem(context.Background(), "pitch.wav")

	if gen.calledTranslate() {
		t.Error("translation was invoked for Latin-only transcript")
	}
	if got.Item.Kind != domain.MediaAudio {
		t.Errorf("kind = %s, want audio", got.Item.Kind)
	}
	if got.Fragment != "A cozy room near the lake." {
		t.Errorf("fragment = %q", got.Fragment)
	}
	if len(got.Item.Tags) != 2 {
		t.Errorf("tags = %v, want 2", got.Item.Tags)
	}
	if len(bus.keys) != 1 || bus.keys[0] != "transcription.completed" {
		t.Errorf("published keys = %v", bus.keys)
	}
}

func TestProcessAudioDevanagariTranslates(t *testing.T) {
	gen := &mockGen{
		translate: "homestay near the temple",
		summary:   "Homestay by the temple.",
		tags:      `["temple", "homestay"]`,
	}
	bus := &mockBus{}
	svc := New(&mockSTT{text: "मंदिर के पास घर"}, &mockEnhancer{}, gen, bus)

	got := svc.ProcessItem(context.Background(), "pitch.wav")

	if !gen.calledTranslate() {
		t.Error("translation was not invoked for Devanagari transcript")
	}
	if got.Fragment != "Homestay by the temple." {
		t.Errorf("fragment = %q", got.Fragment)
	}

	// The progress event carries the working English text, not the raw
	// source-language transcript.
	if len(bus.payloads) != 1 {
		t.Fatalf("published payloads = %d, want 1", len(bus.payloads))
	}
	payload, ok := bus.payloads[0].(map[string]any)
	if !ok {
		t.Fatalf("payload type = %T", bus.payloads[0])
	}
	if payload["transcript"] != "homestay near the temple" {
		t.Errorf("published transcript = %q, want translated text", payload["transcript"])
	}
}

func TestProcessItemDegradesOnTagFailure(t *testing.T) {
	gen := &mockGen{summary: "ok", tagsErr: errors.New("model overloaded")}
	svc := New(&mockSTT{text: "spa retreat"}, &mockEnhancer{}, gen, nil)

	got := svc.ProcessItem(context.Background(), "pitch.wav")

	if got.Item.Kind != domain.MediaUnknown {
		t.Errorf("kind = %s, want unknown", got.Item.Kind)
	}
	if got.Fragment != "" {
		t.Errorf("fragment = %q, want empty", got.Fragment)
	}
}

func TestProcessAudioTagFiltering(t *testing.T) {
	long := strings.Repeat("x", 50)
	gen := &mockGen{
		summary: "ok",
		tags:    `["a", "` + long + `", " spa ", "yoga"]`,
	}
	svc := New(&mockSTT{text: "spa and yoga retreat"}, &mockEnhancer{}, gen, nil)

	got := svc.ProcessItem(context.Background(), "pitch.mp3")

	want := []string{"spa", "yoga"}
	if len(got.Item.Tags) != len(want) {
		t.Fatalf("tags = %v, want %v", got.Item.Tags, want)
	}
	for i := range want {
		if got.Item.Tags[i] != want[i] {
			t.Errorf("tags[%d] = %q, want %q", i, got.Item.Tags[i], want[i])
		}
	}
}

func TestProcessAudioCommaFallback(t *testing.T) {
	gen := &mockGen{summary: "ok", tags: "trek, mountain view, guide"}
	svc := New(&mockSTT{text: "guided mountain trek"}, &mockEnhancer{}, gen, nil)

	got := svc.ProcessItem(context.Background(), "pitch.ogg")

	want := []string{"trek", "mountain view", "guide"}
	if len(got.Item.Tags) != len(want) {
		t.Fatalf("tags = %v, want %v", got.Item.Tags, want)
	}
}

func TestProcessImage(t *testing.T) {
	gen := &mockGen{tags: `["sunset", "terrace"]`}
	bus := &mockBus{}
	svc := New(
		&mockSTT{},
		&mockEnhancer{enhanced: "photo_enh.jpg", colors: []string{"warm"}},
		gen, bus,
	)

	got := svc.ProcessItem(context.Background(), "photo.jpg")

	if got.Item.Kind != domain.MediaImage {
		t.Fatalf("kind = %s, want image", got.Item.Kind)
	}
	if got.Item.Path != "photo_enh.jpg" {
		t.Errorf("path = %q, want enhanced path", got.Item.Path)
	}
	joined := strings.Join(got.Item.Tags, ",")
	for _, want := range []string{"warm", "sunset", "terrace"} {
		if !strings.Contains(joined, want) {
			t.Errorf("tags %v missing %q", got.Item.Tags, want)
		}
	}
	if got.Fragment != "warm" {
		t.Errorf("fragment = %q, want joined color tags", got.Fragment)
	}
	if len(bus.keys) != 1 || bus.keys[0] != "image.processed" {
		t.Errorf("published keys = %v", bus.keys)
	}
}
