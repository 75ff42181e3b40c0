package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"speechpdf/internal/app"
	"speechpdf/internal/config"
	"speechpdf/internal/pipeline"
)

var version = "dev"

type rootOptions struct {
	configPath string
	flags      *config.FlagValues
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "speechpdf",
		Short: "Record a talk, transcribe it with SaluteSpeech and save it as PDF",
		Long: `speechpdf records audio in fixed-length chunks, sends every chunk to the
SaluteSpeech recognizer and exports the collected transcript to a numbered
A4 PDF when recording stops.

Without a subcommand the interactive terminal UI is started.

Configuration is read from --config, else ./config.json. When neither exists
and no override flags are given, a default config.json is written.`,
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, ok, err := opts.load(cmd.OutOrStdout())
			if err != nil || !ok {
				return err
			}
			closer, err := app.SetupLogging(cfg, true)
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.RunTUI(ctx, cfg)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to config file (JSON or YAML)")
	opts.flags = config.BindFlags(pf)

	cmd.AddCommand(newRecordCommand(opts))
	cmd.AddCommand(newTranscribeCommand(opts))
	cmd.AddCommand(newDevicesCommand())
	cmd.AddCommand(newInitConfigCommand())

	return cmd
}

// load resolves the config. ok is false when a default file was just created
// and the command should exit so the user can edit it.
func (o *rootOptions) load(out io.Writer) (cfg config.Config, path string, ok bool, err error) {
	cfg, path, err = app.ResolveConfig(o.configPath, o.flags)
	if errors.Is(err, app.ErrConfigCreated) {
		fmt.Fprintf(out, "default config created at %s. Please edit it and re-run.\n", path)
		return cfg, path, false, nil
	}
	if err != nil {
		return cfg, path, false, err
	}
	return cfg, path, true, nil
}

func newRecordCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "record",
		Short: "Record headlessly until interrupted, then export the PDF",
		Long: `Record chunks from the configured device until SIGINT or SIGTERM.
Queued chunks are transcribed once per second; on interrupt the remaining
chunks are transcribed, the PDF is written and the chunk files are removed.

CHUNK_DURATION and DEVICE are re-read when the config file changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, ok, err := opts.load(cmd.OutOrStdout())
			if err != nil || !ok {
				return err
			}
			if _, err := app.SetupLogging(cfg, false); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintln(cmd.OutOrStdout(), "Recording. Press Ctrl+C to stop.")
			res, err := app.RunRecord(ctx, cfg, path, cmd.OutOrStdout())
			printResult(cmd.OutOrStdout(), res)
			return err
		},
	}
}

func newTranscribeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe FILE",
		Short: "Transcribe an existing audio file into a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, ok, err := opts.load(cmd.OutOrStdout())
			if err != nil || !ok {
				return err
			}
			if _, err := app.SetupLogging(cfg, false); err != nil {
				return err
			}
			res, err := app.RunFile(cmd.Context(), cfg, args[0], cmd.OutOrStdout())
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func newDevicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio input devices (* marks the default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.ListDevices(cmd.OutOrStdout())
		},
	}
}

func newInitConfigCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write a default config file (config.json, or YAML by extension)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.DefaultConfigPath
			if len(args) > 0 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.SaveDefault(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "default config written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func printResult(w io.Writer, res pipeline.Result) {
	if res.SessionID == "" {
		return
	}
	if res.PDFPath != "" {
		fmt.Fprintf(w, "Saved %s (%d fragments, %d failures)\n", res.PDFPath, res.Fragments, res.Failures)
		return
	}
	fmt.Fprintf(w, "PDF not saved (%d fragments, %d failures)\n", res.Fragments, res.Failures)
}
