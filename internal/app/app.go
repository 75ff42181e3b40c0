package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"speechpdf/internal/asr"
	"speechpdf/internal/audio/ffmpeg"
	"speechpdf/internal/auth"
	"speechpdf/internal/clipboard"
	"speechpdf/internal/config"
	"speechpdf/internal/export"
	"speechpdf/internal/notify"
	"speechpdf/internal/pipeline"
	"speechpdf/internal/record"
	"speechpdf/internal/transport"
	"speechpdf/internal/tui"
)

const convertPrefix = "convert_"

// services are the collaborators shared by every run mode.
type services struct {
	auth     *auth.Client
	asr      *asr.Client
	exporter *export.Exporter
	notifier *notify.Notifier
}

func newServices(cfg config.Config) (*services, error) {
	httpClient := transport.NewClient(cfg)
	asrClient, err := asr.New(cfg, httpClient)
	if err != nil {
		return nil, err
	}
	return &services{
		auth:     auth.New(cfg, httpClient),
		asr:      asrClient,
		exporter: export.New(export.OptionsFromConfig(cfg)),
		notifier: notify.New(cfg.Notification),
	}, nil
}

// fetchToken obtains the access token once. There is no retry.
func (s *services) fetchToken(ctx context.Context) (string, error) {
	tok, err := s.auth.Fetch(ctx)
	if err != nil {
		return "", err
	}
	slog.Info("access token acquired", "component", "auth", "expires_at", tok.ExpiresAt)
	return tok.AccessToken, nil
}

// authorize fetches the token into p, reporting a failure to display.
func (s *services) authorize(ctx context.Context, p *pipeline.Pipeline, display pipeline.Display) {
	token, err := s.fetchToken(ctx)
	if err != nil {
		display.Show(pipeline.Event{
			Kind:    pipeline.EventFailure,
			Failure: &pipeline.Failure{Kind: pipeline.AuthFailure, Op: "fetch token", Err: err},
		})
		return
	}
	p.SetToken(token)
}

// notifyingDisplay forwards events and raises desktop notifications for
// everything except transcript fragments.
type notifyingDisplay struct {
	next     pipeline.Display
	notifier *notify.Notifier
}

func (d notifyingDisplay) Show(e pipeline.Event) {
	d.next.Show(e)
	if e.Kind != pipeline.EventFragment {
		d.notifier.Notify("speechpdf", e.String())
	}
}

// writerDisplay prints events one per line.
func writerDisplay(w io.Writer) pipeline.Display {
	return pipeline.DisplayFunc(func(e pipeline.Event) {
		fmt.Fprintln(w, e.String())
	})
}

// RunTUI runs the interactive terminal UI.
func RunTUI(ctx context.Context, cfg config.Config) error {
	cleanupStale(cfg.OutputDir)

	svc, err := newServices(cfg)
	if err != nil {
		return err
	}
	pa, err := record.OpenPortAudio()
	if err != nil {
		return err
	}
	defer pa.Close()

	events := tui.NewEventChannel(1024)
	display := notifyingDisplay{next: events, notifier: svc.notifier}
	p := pipeline.New(pipeline.OptionsFromConfig(cfg), pa, svc.asr, svc.exporter, display)

	m := tui.New(ctx, p, tui.Deps{
		FetchToken:  svc.fetchToken,
		ListDevices: record.ListDevices,
		Copy:        clipboard.CopyText,
		Events:      events,
	})
	err = tui.Run(ctx, m)
	// The program can exit on a signal without passing through the quit key.
	finishSession(ctx, p, 50*time.Millisecond)
	return err
}

// session is the part of the pipeline finishSession drives.
type session interface {
	State() pipeline.State
	Stop(ctx context.Context) (pipeline.Result, error)
}

// finishSession stops a recording that is still running and waits for a
// drain already in progress, so the PDF is written before audio shuts down.
func finishSession(ctx context.Context, p session, poll time.Duration) {
	ctx = context.WithoutCancel(ctx)
	for {
		switch p.State() {
		case pipeline.Recording:
			res, err := p.Stop(ctx)
			if err != nil && !errors.Is(err, pipeline.ErrNotRecording) {
				slog.Warn("stop on exit failed", "component", "app", "err", err)
				return
			}
			if err == nil {
				slog.Info("session stopped on exit", "component", "app", "pdf", res.PDFPath, "fragments", res.Fragments)
			}
		case pipeline.Draining:
			time.Sleep(poll)
		default:
			return
		}
	}
}

// RunRecord records headlessly until ctx is done, then drains and exports.
// When configPath is set, CHUNK_DURATION and DEVICE are reloaded live.
func RunRecord(ctx context.Context, cfg config.Config, configPath string, out io.Writer) (pipeline.Result, error) {
	cleanupStale(cfg.OutputDir)

	svc, err := newServices(cfg)
	if err != nil {
		return pipeline.Result{}, err
	}
	pa, err := record.OpenPortAudio()
	if err != nil {
		return pipeline.Result{}, err
	}
	defer pa.Close()

	display := notifyingDisplay{next: writerDisplay(out), notifier: svc.notifier}
	p := pipeline.New(pipeline.OptionsFromConfig(cfg), pa, svc.asr, svc.exporter, display)
	svc.authorize(ctx, p, display)

	var res pipeline.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		res, err = p.Run(gctx)
		return err
	})
	if configPath != "" {
		g.Go(func() error {
			return config.Watch(gctx, configPath, func(c config.Config) {
				p.Controls().SetChunkDuration(c.ChunkDuration)
				p.Controls().SetDevice(c.Device)
				slog.Info("controls reloaded", "component", "app", "chunk_duration", c.ChunkDuration, "device", c.Device)
			})
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	return res, nil
}

// RunFile transcribes an existing audio file. Input that is not already
// 16 kHz mono 16-bit WAV is converted with ffmpeg first.
func RunFile(ctx context.Context, cfg config.Config, inputPath string, out io.Writer) (pipeline.Result, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return pipeline.Result{}, fmt.Errorf("file '%s' stat failed: %w", inputPath, err)
	}
	cleanupStale(cfg.OutputDir)

	svc, err := newServices(cfg)
	if err != nil {
		return pipeline.Result{}, err
	}

	src := inputPath
	if _, err := record.ReadSamples(inputPath); err != nil {
		if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
			return pipeline.Result{}, fmt.Errorf("create output dir failed: %w", err)
		}
		src = tempConvertPath(cfg.OutputDir)
		defer os.Remove(src)
		if err := ffmpeg.Convert(ctx, inputPath, src); err != nil {
			return pipeline.Result{}, err
		}
	}

	chunks, err := record.SplitWAV(src, cfg.OutputDir, config.ParseChunkDuration(cfg.ChunkDuration), 1)
	if err != nil {
		return pipeline.Result{}, err
	}
	slog.Info("file split", "component", "app", "input", inputPath, "chunks", len(chunks))

	display := notifyingDisplay{next: writerDisplay(out), notifier: svc.notifier}
	p := pipeline.New(pipeline.OptionsFromConfig(cfg), nil, svc.asr, svc.exporter, display)
	svc.authorize(ctx, p, display)
	return p.TranscribeFiles(ctx, chunks)
}

// ListDevices prints input-capable devices, marking the default one.
func ListDevices(out io.Writer) error {
	devs, err := record.ListDevices()
	if err != nil {
		return err
	}
	if len(devs) == 0 {
		return errors.New("no input devices found")
	}
	for _, d := range devs {
		mark := " "
		if d.Default {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %s (%d ch)\n", mark, d.Name, d.InputChannels)
	}
	return nil
}

// cleanupStale removes chunk and conversion files left by an interrupted run.
func cleanupStale(dir string) {
	log := slog.With("component", "cleanup")
	n, err := record.CleanupChunks(dir)
	if err != nil {
		log.Warn("remove stale chunks failed", "dir", dir, "err", err)
	} else if n > 0 {
		log.Info("removed stale chunks", "dir", dir, "count", n)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("read dir failed", "dir", dir, "err", err)
		}
		return
	}
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, convertPrefix) {
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil {
			log.Warn("remove failed", "path", path, "err", err)
		} else {
			log.Info("removed", "path", path)
		}
	}
}

func tempConvertPath(dir string) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	return filepath.Join(dir, convertPrefix+id+".wav")
}
