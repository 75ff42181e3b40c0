package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speechpdf/internal/asr"
	"speechpdf/internal/config"
	"speechpdf/internal/record"
)

// fakeCapturer returns a three-sample chunk whose first sample is the call
// number, so recognizers can tell chunks apart.
type fakeCapturer struct {
	mu        sync.Mutex
	calls     int
	requested []int
	devices   []string
	failFirst bool
}

func (f *fakeCapturer) Capture(ctx context.Context, device string, samples int) ([]int16, error) {
	time.Sleep(2 * time.Millisecond)
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.requested = append(f.requested, samples)
	f.devices = append(f.devices, device)
	fail := f.failFirst && n == 1
	f.mu.Unlock()
	if fail {
		return nil, errors.New("device unplugged")
	}
	return []int16{int16(n), 0, 0}, nil
}

func (f *fakeCapturer) lastRequest() (int, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requested) == 0 {
		return 0, ""
	}
	return f.requested[len(f.requested)-1], f.devices[len(f.devices)-1]
}

type fakeRecognizer struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeRecognizer) Recognize(ctx context.Context, path, token string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	samples, err := record.ReadSamples(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("fragment %d", samples[0]), nil
}

func (f *fakeRecognizer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeExporter struct {
	text string
	err  error
}

func (f *fakeExporter) Export(text string) (string, error) {
	f.text = text
	if f.err != nil {
		return "", f.err
	}
	return "transcript_1.pdf", nil
}

func chunkFiles(t *testing.T, dir string) []string {
	t.Helper()
	m, err := filepath.Glob(filepath.Join(dir, "chunk_*.wav"))
	require.NoError(t, err)
	return m
}

func writeChunks(t *testing.T, dir string, n int) []string {
	t.Helper()
	var paths []string
	for i := 1; i <= n; i++ {
		p := filepath.Join(dir, record.ChunkName(time.Now(), i))
		require.NoError(t, record.WriteWAV(p, []int16{int16(i), 0}))
		paths = append(paths, p)
	}
	return paths
}

func TestStartStopStateErrors(t *testing.T) {
	ctx := context.Background()
	p := New(Options{OutputDir: t.TempDir()}, &fakeCapturer{}, &fakeRecognizer{}, &fakeExporter{}, nil)

	_, err := p.Stop(ctx)
	assert.ErrorIs(t, err, ErrNotRecording)

	require.NoError(t, p.Start(ctx))
	assert.Equal(t, Recording, p.State())
	assert.ErrorIs(t, p.Start(ctx), ErrBusy)

	_, err = p.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, Idle, p.State())
}

func TestWriteChunkRecordsDuration(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	p := New(Options{OutputDir: dir}, &fakeCapturer{}, &fakeRecognizer{}, &fakeExporter{}, nil)
	s := newSession()

	c, err := p.writeChunk(s, []int16{1, 2}, 7*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, c.Duration)
	assert.Equal(t, 1, c.Seq)
	assert.FileExists(t, c.Path)
}

func TestTickWithoutTokenLeavesChunkQueued(t *testing.T) {
	ctx := context.Background()
	rec := &fakeRecognizer{}
	p := New(Options{OutputDir: t.TempDir()}, &fakeCapturer{}, rec, &fakeExporter{}, nil)
	require.NoError(t, p.Start(ctx))

	require.Eventually(t, func() bool { return p.Pending() >= 1 }, 2*time.Second, 5*time.Millisecond)
	assert.False(t, p.Tick(ctx))
	assert.Equal(t, 0, rec.count())

	_, err := p.Stop(ctx)
	require.NoError(t, err)
}

func TestFIFOAcrossTickAndDrain(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	capt := &fakeCapturer{}
	rec := &fakeRecognizer{}
	exp := &fakeExporter{}
	disp := &recorder{}
	p := New(Options{OutputDir: dir}, capt, rec, exp, disp)

	require.NoError(t, p.Start(ctx))
	require.Eventually(t, func() bool { return p.Pending() >= 3 }, 2*time.Second, 5*time.Millisecond)

	p.SetToken("token")
	assert.True(t, p.Tick(ctx))
	assert.True(t, p.Tick(ctx))

	res, err := p.Stop(ctx)
	require.NoError(t, err)

	capt.mu.Lock()
	produced := capt.calls
	capt.mu.Unlock()

	assert.Equal(t, produced, rec.count(), "every queued chunk gets exactly one attempt")
	assert.Equal(t, produced, res.Fragments)
	assert.Equal(t, produced, res.Removed)
	assert.Zero(t, res.Failures)
	assert.Equal(t, "transcript_1.pdf", res.PDFPath)
	assert.Empty(t, chunkFiles(t, dir))

	lines := strings.Split(exp.text, "\n")
	require.Len(t, lines, produced)
	for i, l := range lines {
		assert.Equal(t, fmt.Sprintf("fragment %d", i+1), l)
	}
	assert.Equal(t, exp.text, p.Text(), "transcript stays readable after stop")

	var fragments int
	for _, e := range disp.Events() {
		if e.Kind == EventFragment {
			fragments++
		}
	}
	assert.Equal(t, produced, fragments)
}

func TestServerErrorReportsOneFailure(t *testing.T) {
	var hits int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		http.Error(w, `{"status":500}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.APIEndpoint = srv.URL
	client, err := asr.New(cfg, srv.Client())
	require.NoError(t, err)

	dir := t.TempDir()
	disp := &recorder{}
	p := New(Options{OutputDir: dir}, &fakeCapturer{}, client, &fakeExporter{}, disp)
	p.SetToken("token")

	res, err := p.TranscribeFiles(context.Background(), writeChunks(t, dir, 1))
	require.NoError(t, err)

	failures := disp.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, TranscriptionFailure, failures[0].Kind)
	var se *asr.StatusError
	require.ErrorAs(t, failures[0], &se)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)

	assert.Zero(t, res.Fragments)
	assert.Equal(t, 1, hits)
	assert.Empty(t, p.Text())
}

func TestServerErrorLeavesLaterChunksUnaffected(t *testing.T) {
	var hits int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		n := hits
		mu.Unlock()
		if n == 1 {
			http.Error(w, `{"status":500}`, http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `{"result":["часть %d"]}`, n)
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.APIEndpoint = srv.URL
	client, err := asr.New(cfg, srv.Client())
	require.NoError(t, err)

	dir := t.TempDir()
	disp := &recorder{}
	exp := &fakeExporter{}
	p := New(Options{OutputDir: dir}, &fakeCapturer{}, client, exp, disp)
	p.SetToken("token")

	res, err := p.TranscribeFiles(context.Background(), writeChunks(t, dir, 3))
	require.NoError(t, err)

	failures := disp.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, TranscriptionFailure, failures[0].Kind)
	assert.Contains(t, failures[0].Op, "chunk 1")

	assert.Equal(t, 2, res.Fragments)
	assert.Equal(t, 1, res.Failures)
	assert.Equal(t, 3, res.Removed)
	assert.Equal(t, "часть 2\nчасть 3", exp.text)
	assert.Empty(t, chunkFiles(t, dir))
	assert.Equal(t, 3, hits)
}

func TestDrainWithoutTokenFailsEachChunk(t *testing.T) {
	dir := t.TempDir()
	rec := &fakeRecognizer{}
	disp := &recorder{}
	p := New(Options{OutputDir: dir}, &fakeCapturer{}, rec, &fakeExporter{}, disp)

	res, err := p.TranscribeFiles(context.Background(), writeChunks(t, dir, 3))
	require.NoError(t, err)

	failures := disp.Failures()
	require.Len(t, failures, 3)
	for _, f := range failures {
		assert.Equal(t, AuthFailure, f.Kind)
		assert.ErrorIs(t, f, asr.ErrNoToken)
	}
	assert.Equal(t, 3, res.Failures)
	assert.Zero(t, rec.count())
	assert.Empty(t, chunkFiles(t, dir))
}

func TestExportFailureKeepsChunks(t *testing.T) {
	dir := t.TempDir()
	disp := &recorder{}
	p := New(Options{OutputDir: dir}, &fakeCapturer{}, &fakeRecognizer{}, &fakeExporter{err: errors.New("disk full")}, disp)
	p.SetToken("token")

	paths := writeChunks(t, dir, 2)
	res, err := p.TranscribeFiles(context.Background(), paths)
	require.NoError(t, err)

	assert.Empty(t, res.PDFPath)
	assert.Equal(t, 2, res.Fragments)
	failures := disp.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, IOFailure, failures[0].Kind)
	for _, path := range paths {
		_, err := os.Stat(path)
		assert.NoError(t, err)
	}
	assert.Equal(t, Idle, p.State())
}

func TestChunkDurationAndDeviceReadPerChunk(t *testing.T) {
	ctx := context.Background()
	capt := &fakeCapturer{}
	p := New(Options{OutputDir: t.TempDir(), ChunkDuration: "abc", Device: "Mic"}, capt, &fakeRecognizer{}, &fakeExporter{}, nil)
	require.NoError(t, p.Start(ctx))

	require.Eventually(t, func() bool {
		n, _ := capt.lastRequest()
		return n > 0
	}, 2*time.Second, 5*time.Millisecond)
	n, dev := capt.lastRequest()
	assert.Equal(t, record.SamplesFor(config.DefaultChunkDuration), n)
	assert.Equal(t, "Mic", dev)

	p.Controls().SetChunkDuration("1")
	p.Controls().SetDevice("USB")
	require.Eventually(t, func() bool {
		n, dev := capt.lastRequest()
		return n == record.SamplesFor(time.Second) && dev == "USB"
	}, 2*time.Second, 5*time.Millisecond)

	_, err := p.Stop(ctx)
	require.NoError(t, err)
}

func TestCaptureFailureIsReportedAndRetried(t *testing.T) {
	ctx := context.Background()
	disp := &recorder{}
	p := New(Options{OutputDir: t.TempDir(), RetryDelay: 10 * time.Millisecond},
		&fakeCapturer{failFirst: true}, &fakeRecognizer{}, &fakeExporter{}, disp)
	require.NoError(t, p.Start(ctx))

	require.Eventually(t, func() bool { return p.Pending() >= 1 }, 2*time.Second, 5*time.Millisecond)
	_, err := p.Stop(ctx)
	require.NoError(t, err)

	failures := disp.Failures()
	require.NotEmpty(t, failures)
	assert.Equal(t, IOFailure, failures[0].Kind)
	assert.Equal(t, "capture", failures[0].Op)
}

func TestRunTicksUntilCancelled(t *testing.T) {
	dir := t.TempDir()
	capt := &fakeCapturer{}
	rec := &fakeRecognizer{}
	p := New(Options{OutputDir: dir, TickInterval: 5 * time.Millisecond}, capt, rec, &fakeExporter{}, nil)
	p.SetToken("token")

	ctx, cancel := context.WithCancel(context.Background())
	type outcome struct {
		res Result
		err error
	}
	out := make(chan outcome, 1)
	go func() {
		res, err := p.Run(ctx)
		out <- outcome{res, err}
	}()

	require.Eventually(t, func() bool { return rec.count() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	o := <-out
	require.NoError(t, o.err)
	capt.mu.Lock()
	produced := capt.calls
	capt.mu.Unlock()
	assert.Equal(t, produced, o.res.Fragments)
	assert.Empty(t, chunkFiles(t, dir))
}
