// Package pipeline records fixed-length chunks, transcribes them in order and
// exports the session transcript when recording stops.
//
// One goroutine captures audio and is the only producer of the chunk queue.
// Tick and the final drain are the consumers and are serialized by a lock, so
// fragments are appended in capture order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"

	"speechpdf/internal/asr"
	"speechpdf/internal/config"
	"speechpdf/internal/record"
)

var (
	ErrBusy         = errors.New("pipeline is not idle")
	ErrNotRecording = errors.New("pipeline is not recording")
)

// Capturer records samples mono 16 kHz frames from the named input device.
type Capturer interface {
	Capture(ctx context.Context, device string, samples int) ([]int16, error)
}

// Recognizer turns one chunk file into text.
type Recognizer interface {
	Recognize(ctx context.Context, wavPath, token string) (string, error)
}

// Exporter writes the final transcript and returns the output path.
type Exporter interface {
	Export(text string) (string, error)
}

// Chunk is one recorded WAV file waiting for transcription.
type Chunk struct {
	Path     string
	Seq      int
	Duration time.Duration
}

// Options configure a Pipeline. Zero values select defaults.
type Options struct {
	OutputDir     string
	QueueSize     int
	TickInterval  time.Duration
	RetryDelay    time.Duration
	ChunkDuration string
	Device        string
	Now           func() time.Time
}

// OptionsFromConfig extracts pipeline options from cfg.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		OutputDir:     cfg.OutputDir,
		QueueSize:     cfg.QueueSize,
		ChunkDuration: cfg.ChunkDuration,
		Device:        cfg.Device,
	}
}

// Result summarizes a finished session.
type Result struct {
	SessionID string
	PDFPath   string
	Fragments int
	Failures  int
	Removed   int
}

// Pipeline is the capture-transcribe-export state machine:
// Idle -> Recording -> Draining -> Idle.
type Pipeline struct {
	opts     Options
	capturer Capturer
	rec      Recognizer
	exp      Exporter
	display  Display
	controls *Controls
	log      *slog.Logger

	mu      sync.Mutex
	state   State
	token   string
	session *Session
	queue   chan Chunk
	stop    chan struct{}
	done    chan struct{}

	consumeMu sync.Mutex
}

// New creates an idle Pipeline. display may be nil.
func New(opts Options, capturer Capturer, rec Recognizer, exp Exporter, display Display) *Pipeline {
	if opts.OutputDir == "" {
		opts.OutputDir = "recordings"
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1024
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.ChunkDuration == "" {
		opts.ChunkDuration = "20"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		opts:     opts,
		capturer: capturer,
		rec:      rec,
		exp:      exp,
		display:  display,
		controls: NewControls(opts.ChunkDuration, opts.Device),
		log:      slog.With("component", "pipeline"),
		session:  newSession(),
	}
}

// Controls returns the live settings read by the capture loop.
func (p *Pipeline) Controls() *Controls { return p.controls }

// SetToken sets the bearer token used for recognition.
func (p *Pipeline) SetToken(token string) {
	p.mu.Lock()
	p.token = token
	p.mu.Unlock()
}

func (p *Pipeline) Token() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Text returns the transcript of the current or most recent session.
func (p *Pipeline) Text() string {
	p.mu.Lock()
	s := p.session
	p.mu.Unlock()
	return s.Text()
}

// Pending returns the number of chunks waiting in the queue.
func (p *Pipeline) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Start begins a new session and spawns the capture loop.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.state != Idle {
		p.mu.Unlock()
		return ErrBusy
	}
	s := newSession()
	queue := make(chan Chunk, p.opts.QueueSize)
	stop := make(chan struct{})
	done := make(chan struct{})
	p.session, p.queue, p.stop, p.done = s, queue, stop, done
	p.state = Recording
	p.mu.Unlock()

	p.log.Info("recording started", "session", s.ID.String(), "dir", p.opts.OutputDir)
	p.show(Event{Kind: EventInfo, Text: "Recording started"})

	// A chunk in progress always completes; stop is honoured between chunks.
	go p.captureLoop(context.WithoutCancel(ctx), s, queue, stop, done)
	return nil
}

func (p *Pipeline) captureLoop(ctx context.Context, s *Session, queue chan<- Chunk, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer close(queue)

	for {
		select {
		case <-stop:
			return
		default:
		}

		d := config.ParseChunkDuration(p.controls.ChunkDuration())
		device := p.controls.Device()
		samples, err := p.capturer.Capture(ctx, device, record.SamplesFor(d))
		if err != nil {
			select {
			case <-stop:
				p.log.Debug("capture aborted during stop", "err", err)
				return
			default:
			}
			p.fail(s, IOFailure, "capture", err)
			select {
			case <-stop:
				return
			case <-time.After(p.opts.RetryDelay):
			}
			continue
		}

		chunk, err := p.writeChunk(s, samples, d)
		if err != nil {
			p.fail(s, IOFailure, "write chunk", err)
			continue
		}
		p.log.Debug("chunk queued", "path", chunk.Path, "seq", chunk.Seq, "duration", d)
		queue <- chunk
	}
}

func (p *Pipeline) writeChunk(s *Session, samples []int16, d time.Duration) (Chunk, error) {
	if err := os.MkdirAll(p.opts.OutputDir, 0755); err != nil {
		return Chunk{}, err
	}
	seq := s.nextSeq()
	path := filepath.Join(p.opts.OutputDir, record.ChunkName(p.opts.Now(), seq))
	if err := record.WriteWAV(path, samples); err != nil {
		return Chunk{}, err
	}
	return Chunk{Path: path, Seq: seq, Duration: d}, nil
}

// Tick transcribes at most one queued chunk. It does nothing when the
// pipeline is not recording, no token is held, the queue is empty or
// another consumer is busy. It reports whether a chunk was consumed.
func (p *Pipeline) Tick(ctx context.Context) bool {
	p.mu.Lock()
	if p.state != Recording || p.token == "" {
		p.mu.Unlock()
		return false
	}
	s, queue := p.session, p.queue
	p.mu.Unlock()

	if !p.consumeMu.TryLock() {
		return false
	}
	defer p.consumeMu.Unlock()

	select {
	case c, ok := <-queue:
		if !ok {
			return false
		}
		p.transcribe(ctx, s, c)
		return true
	default:
		return false
	}
}

// Stop signals the capture loop, waits for it to exit, transcribes every
// remaining chunk in order, exports the transcript and removes the chunk
// files.
func (p *Pipeline) Stop(ctx context.Context) (Result, error) {
	p.mu.Lock()
	if p.state != Recording {
		p.mu.Unlock()
		return Result{}, ErrNotRecording
	}
	p.state = Draining
	s, queue, done := p.session, p.queue, p.done
	close(p.stop)
	p.mu.Unlock()

	p.log.Info("stopping", "session", s.ID.String(), "pending", len(queue))
	p.show(Event{Kind: EventInfo, Text: "Stopping, transcribing remaining chunks..."})

	p.consumeMu.Lock()
	// The producer closes the queue when it exits.
	for c := range queue {
		p.transcribe(ctx, s, c)
	}
	p.consumeMu.Unlock()
	<-done

	return p.finish(s), nil
}

// TranscribeFiles runs the drain phase over existing chunk files, in order.
func (p *Pipeline) TranscribeFiles(ctx context.Context, paths []string) (Result, error) {
	p.mu.Lock()
	if p.state != Idle {
		p.mu.Unlock()
		return Result{}, ErrBusy
	}
	s := newSession()
	p.session = s
	p.state = Draining
	p.mu.Unlock()

	p.log.Info("transcribing files", "session", s.ID.String(), "count", len(paths))

	p.consumeMu.Lock()
	for _, path := range paths {
		p.transcribe(ctx, s, Chunk{Path: path, Seq: s.nextSeq()})
	}
	p.consumeMu.Unlock()

	return p.finish(s), nil
}

// Run starts recording, ticks until ctx is done and then stops.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	if err := p.Start(ctx); err != nil {
		return Result{}, err
	}
	ticker := time.NewTicker(p.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return p.Stop(context.WithoutCancel(ctx))
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

func (p *Pipeline) transcribe(ctx context.Context, s *Session, c Chunk) {
	op := fmt.Sprintf("transcribe chunk %d", c.Seq)
	token := p.Token()
	if token == "" {
		p.fail(s, AuthFailure, op, asr.ErrNoToken)
		return
	}
	p.log.Debug("transcribing", "seq", c.Seq, "path", c.Path, "duration", c.Duration)
	text, err := p.rec.Recognize(ctx, c.Path, token)
	if err != nil {
		p.fail(s, TranscriptionFailure, op, err)
		return
	}
	text = strings.TrimSpace(norm.NFC.String(text))
	if text == "" {
		p.log.Debug("empty fragment", "seq", c.Seq)
		return
	}
	s.append(text)
	p.show(Event{Kind: EventFragment, Text: text})
}

func (p *Pipeline) finish(s *Session) Result {
	res := Result{SessionID: s.ID.String()}

	path, err := p.exp.Export(s.Text())
	if err != nil {
		// Chunks stay on disk so the session can be transcribed again.
		p.fail(s, IOFailure, "export pdf", err)
	} else {
		res.PDFPath = path
		p.show(Event{Kind: EventInfo, Text: "PDF saved: " + path})

		n, err := record.CleanupChunks(p.opts.OutputDir)
		if err != nil {
			p.fail(s, IOFailure, "remove chunks", err)
		}
		res.Removed = n
	}

	res.Fragments = s.Fragments()
	res.Failures = s.Failures()

	p.mu.Lock()
	p.state = Idle
	p.mu.Unlock()

	p.log.Info("session finished", "session", res.SessionID, "pdf", res.PDFPath,
		"fragments", res.Fragments, "failures", res.Failures, "removed", res.Removed)
	return res
}

func (p *Pipeline) fail(s *Session, kind FailureKind, op string, err error) {
	s.failed()
	f := &Failure{Kind: kind, Op: op, Err: err}
	p.log.Warn("failure", "kind", kind.String(), "op", op, "err", err)
	p.show(Event{Kind: EventFailure, Failure: f})
}

func (p *Pipeline) show(e Event) {
	if p.display != nil {
		p.display.Show(e)
	}
}
