package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/alisacorporation/voice2clip/internal/delivery"
	"github.com/alisacorporation/voice2clip/internal/domain"
	"github.com/alisacorporation/voice2clip/internal/filter"
	"github.com/alisacorporation/voice2clip/internal/ports"
	"github.com/alisacorporation/voice2clip/internal/store"
	"github.com/alisacorporation/voice2clip/internal/wavenc"
	"github.com/alisacorporation/voice2clip/internal/whisper"
)

type fakeSession struct {
	mu      sync.Mutex
	chunks  [][]int16
	idx     int
	readErr error

	closed  chan struct{}
	drained chan struct{}

	closeOnce sync.Once
	drainOnce sync.Once
}

func newFakeSession(chunks [][]int16) *fakeSession {
	s := &fakeSession{
		chunks:  chunks,
		closed:  make(chan struct{}),
		drained: make(chan struct{}),
	}
	if len(chunks) == 0 {
		s.drainOnce.Do(func() { close(s.drained) })
	}
	return s
}

func (s *fakeSession) ReadChunk() ([]int16, error) {
	s.mu.Lock()
	if s.idx < len(s.chunks) {
		chunk := s.chunks[s.idx]
		s.idx++
		if s.idx == len(s.chunks) {
			s.drainOnce.Do(func() { close(s.drained) })
		}
		s.mu.Unlock()
		return chunk, nil
	}
	err := s.readErr
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	<-s.closed
	return nil, ports.ErrSessionClosed
}

func (s *fakeSession) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

type fakeCapture struct {
	mu       sync.Mutex
	sessions []*fakeSession
	openErr  error
	opened   int
}

func (c *fakeCapture) Open(_ context.Context, _ ports.AudioConfig) (ports.AudioSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return nil, c.openErr
	}
	if c.opened >= len(c.sessions) {
		return nil, errors.New("no more fake sessions")
	}
	session := c.sessions[c.opened]
	c.opened++
	return session, nil
}

func (c *fakeCapture) Devices() ([]domain.Device, error) { return nil, nil }

type fakeEncoder struct {
	mu    sync.Mutex
	dir   string
	calls int
	err   error
	next  int
}

func (e *fakeEncoder) TempPath() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.next++
	return filepath.Join(e.dir, fmt.Sprintf("fake_%d.wav", e.next))
}

func (e *fakeEncoder) Encode(path string, _ [][]int16, _, _ int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return e.err
	}
	return os.WriteFile(path, []byte("RIFF"), 0o644)
}

type engineCall struct {
	text  string
	err   error
	delay time.Duration
}

type fakeEngine struct {
	mu    sync.Mutex
	calls []engineCall
	seen  int
	paths []string
}

func (e *fakeEngine) Transcribe(_ context.Context, wavPath string) (domain.EngineResult, error) {
	e.mu.Lock()
	if e.seen >= len(e.calls) {
		e.mu.Unlock()
		return domain.EngineResult{}, errors.New("unexpected engine invocation")
	}
	call := e.calls[e.seen]
	e.seen++
	e.paths = append(e.paths, wavPath)
	e.mu.Unlock()

	if call.delay > 0 {
		time.Sleep(call.delay)
	}
	return domain.EngineResult{Text: call.text, Elapsed: time.Millisecond}, call.err
}

func (e *fakeEngine) invocations() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seen
}

type fakeDeliverer struct {
	mu      sync.Mutex
	records []domain.TranscriptionRecord
}

func (d *fakeDeliverer) Deliver(record domain.TranscriptionRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = append(d.records, record)
}

func (d *fakeDeliverer) delivered() []domain.TranscriptionRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.TranscriptionRecord(nil), d.records...)
}

type fakeNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (n *fakeNotifier) Notify(title, _ string, _ time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
	return nil
}

func (n *fakeNotifier) ClearAll() error { return nil }

func (n *fakeNotifier) seen() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.titles...)
}

type fakeClipboard struct {
	mu    sync.Mutex
	texts []string
}

func (c *fakeClipboard) SetText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
	return nil
}

func makeChunks(count, size int) [][]int16 {
	chunks := make([][]int16, count)
	for i := range chunks {
		chunks[i] = make([]int16, size)
	}
	return chunks
}

// 16 kHz mono, 1024-sample chunks throughout.
func testConfig() Config {
	return Config{
		Audio:       ports.AudioConfig{SampleRate: 16000, Channels: 1, ChunkSize: 1024, DeviceIndex: -1},
		MinDuration: 300 * time.Millisecond,
		ModelPath:   "/models/ggml-base.bin",
	}
}

func TestStopBelowMinimumDurationSkipsPipeline(t *testing.T) {
	t.Parallel()

	// ~0.19 s of audio, under the 0.3 s threshold.
	session := newFakeSession(makeChunks(3, 1024))
	capture := &fakeCapture{sessions: []*fakeSession{session}}
	encoder := &fakeEncoder{dir: t.TempDir()}
	engine := &fakeEngine{}
	deliverer := &fakeDeliverer{}

	c := NewSessionController(capture, encoder, engine, filter.New(nil, nil),
		deliverer, &fakeNotifier{}, zap.NewNop(), testConfig())

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	<-session.drained

	result, err := c.Stop(context.Background())
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if result.Reason != domain.SessionReasonRecordingDiscarded {
		t.Fatalf("reason = %s", result.Reason)
	}
	if encoder.calls != 0 {
		t.Fatalf("encoder invoked %d times for a discarded clip", encoder.calls)
	}
	if engine.invocations() != 0 {
		t.Fatal("engine invoked for a discarded clip")
	}
	if len(deliverer.delivered()) != 0 {
		t.Fatal("delivery happened for a discarded clip")
	}
}

func TestStopWithZeroChunksDiscards(t *testing.T) {
	t.Parallel()

	session := newFakeSession(nil)
	capture := &fakeCapture{sessions: []*fakeSession{session}}
	encoder := &fakeEncoder{dir: t.TempDir()}

	c := NewSessionController(capture, encoder, &fakeEngine{}, filter.New(nil, nil),
		&fakeDeliverer{}, &fakeNotifier{}, zap.NewNop(), testConfig())

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	result, err := c.Stop(context.Background())
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if result.Reason != domain.SessionReasonRecordingDiscarded {
		t.Fatalf("reason = %s", result.Reason)
	}
	if encoder.calls != 0 {
		t.Fatal("encoder invoked for an empty clip")
	}
}

func TestSilenceCycleRejectsAndDeliversNothing(t *testing.T) {
	t.Parallel()

	// 3 s of synthetic silence, real WAV encoding, stubbed engine output
	// that is empty once timestamp markup is stripped.
	session := newFakeSession(makeChunks(47, 1024))
	capture := &fakeCapture{sessions: []*fakeSession{session}}
	encoder := wavenc.New(t.TempDir())
	engine := &fakeEngine{calls: []engineCall{{text: "[00:00:00.000 --> 00:00:03.000]  "}}}
	deliverer := &fakeDeliverer{}

	c := NewSessionController(capture, encoder, engine, filter.New(nil, nil),
		deliverer, &fakeNotifier{}, zap.NewNop(), testConfig())

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	<-session.drained

	result, err := c.Stop(context.Background())
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if result.Reason != domain.SessionReasonNoTranscript {
		t.Fatalf("reason = %s", result.Reason)
	}
	if result.Delivered {
		t.Fatal("silence must not be delivered")
	}
	if len(deliverer.delivered()) != 0 {
		t.Fatal("delivery happened for rejected transcript")
	}

	engine.mu.Lock()
	wavPath := engine.paths[0]
	engine.mu.Unlock()
	if _, statErr := os.Stat(wavPath); !os.IsNotExist(statErr) {
		t.Fatalf("temp wav not cleaned up: %v", statErr)
	}
}

func TestAcceptedTranscriptReachesClipboardAndStore(t *testing.T) {
	t.Parallel()

	session := newFakeSession(makeChunks(20, 1024))
	capture := &fakeCapture{sessions: []*fakeSession{session}}
	engine := &fakeEngine{calls: []engineCall{{text: "you"}}}
	clip := &fakeClipboard{}
	recordDir := t.TempDir()
	hub := delivery.NewHub(clip, store.New(recordDir), &fakeNotifier{}, zap.NewNop())

	c := NewSessionController(capture, wavenc.New(t.TempDir()), engine, filter.New(nil, nil),
		hub, &fakeNotifier{}, zap.NewNop(), testConfig())

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	<-session.drained

	result, err := c.Stop(context.Background())
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if !result.Delivered || result.Transcript != "you" {
		t.Fatalf("result = %+v", result)
	}

	clip.mu.Lock()
	texts := append([]string(nil), clip.texts...)
	clip.mu.Unlock()
	if len(texts) != 1 || texts[0] != "you" {
		t.Fatalf("clipboard texts = %v", texts)
	}

	entries, err := os.ReadDir(recordDir)
	if err != nil {
		t.Fatalf("read record dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("record files = %d, want 1", len(entries))
	}
	data, err := os.ReadFile(filepath.Join(recordDir, entries[0].Name()))
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	if !strings.Contains(string(data), `"transcription": "you"`) {
		t.Fatalf("record content: %s", data)
	}
}

func TestCaptureErrorAbortsCycle(t *testing.T) {
	t.Parallel()

	session := newFakeSession(makeChunks(10, 1024))
	session.readErr = errors.New("device unplugged")
	capture := &fakeCapture{sessions: []*fakeSession{session}}
	engine := &fakeEngine{}

	c := NewSessionController(capture, &fakeEncoder{dir: t.TempDir()}, engine,
		filter.New(nil, nil), &fakeDeliverer{}, &fakeNotifier{}, zap.NewNop(), testConfig())

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	<-session.drained

	result, err := c.Stop(context.Background())
	if err == nil {
		t.Fatal("expected capture error")
	}
	if result.Reason != domain.SessionReasonCaptureFailed {
		t.Fatalf("reason = %s", result.Reason)
	}
	if engine.invocations() != 0 {
		t.Fatal("engine invoked after capture failure")
	}
}

func TestEngineTimeoutEmitsDistinctNotification(t *testing.T) {
	t.Parallel()

	session := newFakeSession(makeChunks(20, 1024))
	capture := &fakeCapture{sessions: []*fakeSession{session}}
	engine := &fakeEngine{calls: []engineCall{{err: fmt.Errorf("%w after 30s", whisper.ErrTimeout)}}}
	notifier := &fakeNotifier{}

	c := NewSessionController(capture, &fakeEncoder{dir: t.TempDir()}, engine,
		filter.New(nil, nil), &fakeDeliverer{}, notifier, zap.NewNop(), testConfig())

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	<-session.drained

	result, err := c.Stop(context.Background())
	if !errors.Is(err, whisper.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if result.Reason != domain.SessionReasonEngineTimeout {
		t.Fatalf("reason = %s", result.Reason)
	}

	titles := notifier.seen()
	if len(titles) == 0 || titles[len(titles)-1] != "Transcription Timeout" {
		t.Fatalf("notification titles = %v", titles)
	}
}

func TestStartWhileRecordingIsRejected(t *testing.T) {
	t.Parallel()

	session := newFakeSession(makeChunks(20, 1024))
	capture := &fakeCapture{sessions: []*fakeSession{session}}

	c := NewSessionController(capture, &fakeEncoder{dir: t.TempDir()}, &fakeEngine{},
		filter.New(nil, nil), &fakeDeliverer{}, &fakeNotifier{}, zap.NewNop(), testConfig())

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := c.Start(context.Background()); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}
	if !c.Recording() {
		t.Fatal("expected recording state")
	}
}

func TestStopWithoutActiveSession(t *testing.T) {
	t.Parallel()

	c := NewSessionController(&fakeCapture{}, &fakeEncoder{dir: t.TempDir()}, &fakeEngine{},
		filter.New(nil, nil), &fakeDeliverer{}, &fakeNotifier{}, zap.NewNop(), testConfig())

	if _, err := c.Stop(context.Background()); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestOverlappingCyclesDoNotBlockNewPress(t *testing.T) {
	t.Parallel()

	first := newFakeSession(makeChunks(20, 1024))
	second := newFakeSession(makeChunks(20, 1024))
	capture := &fakeCapture{sessions: []*fakeSession{first, second}}
	engine := &fakeEngine{calls: []engineCall{
		{text: "first cycle transcript", delay: 300 * time.Millisecond},
		{text: "second cycle transcript"},
	}}
	deliverer := &fakeDeliverer{}

	c := NewSessionController(capture, &fakeEncoder{dir: t.TempDir()}, engine,
		filter.New(nil, nil), deliverer, &fakeNotifier{}, zap.NewNop(), testConfig())

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	<-first.drained

	firstDone := make(chan domain.CycleResult, 1)
	go func() {
		result, err := c.Stop(context.Background())
		if err != nil {
			t.Errorf("first stop failed: %v", err)
		}
		firstDone <- result
	}()

	// Wait until the first cycle is inside its (slow) engine invocation.
	deadline := time.Now().Add(2 * time.Second)
	for engine.invocations() < 1 {
		if time.Now().After(deadline) {
			t.Fatal("first cycle never reached the engine")
		}
		time.Sleep(2 * time.Millisecond)
	}

	// A new press must start a fresh session while the first cycle is
	// still transcribing.
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("second start blocked or failed: %v", err)
	}
	<-second.drained

	secondResult, err := c.Stop(context.Background())
	if err != nil {
		t.Fatalf("second stop failed: %v", err)
	}
	firstResult := <-firstDone

	if firstResult.Transcript != "first cycle transcript" {
		t.Fatalf("first transcript = %q", firstResult.Transcript)
	}
	if secondResult.Transcript != "second cycle transcript" {
		t.Fatalf("second transcript = %q", secondResult.Transcript)
	}
	if got := len(deliverer.delivered()); got != 2 {
		t.Fatalf("delivered records = %d, want 2", got)
	}
}
