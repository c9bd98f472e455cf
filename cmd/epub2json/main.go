package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yuanying/epub2json/internal/config"
	"github.com/yuanying/epub2json/internal/converter"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epub2json [input.epub] [output.json]",
		Short: "Extract the chapters of an EPUB book into JSON",
		Long: `epub2json reads an EPUB archive, follows its container, package and
navigation documents, and writes the book's chapters as plain paragraph text
to a single JSON file.

With no input argument, the only .epub file in the input directory is used.`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(cmd, args)
			if err != nil {
				return err
			}

			opts.Logger.Debug("converting", "input", opts.InputPath, "output", opts.OutputPath)

			book, err := converter.NewPipeline(opts).Convert(cmd.Context())
			if err != nil {
				return fmt.Errorf("extraction failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Extracted book: %s\n", book.Title)
			fmt.Fprintf(out, "Chapters: %d\n", book.ChapterCount)
			fmt.Fprintf(out, "Saved data: %s\n", opts.OutputPath)
			if book.Cover != nil {
				fmt.Fprintf(out, "Saved cover: %s\n", book.Cover.File)
			}
			return nil
		},
	}

	cmd.Flags().String("config", "", "YAML configuration file")
	cmd.Flags().String("input-dir", "", "Directory searched for an .epub when no input is given (default from config: books)")
	cmd.Flags().Int("workers", 0, "Parallel chapter workers (0: number of CPUs)")
	cmd.Flags().String("cover", "", "Also export the cover image as JPEG to this path")
	cmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")
	cmd.Flags().String("log-format", "text", "Log format: text, json")
	cmd.Flags().BoolP("verbose", "v", false, "Enable debug logging (overrides --log-level)")

	return cmd
}

// readCLIOptions turns flags and positional arguments into pipeline options.
func readCLIOptions(cmd *cobra.Command, args []string) (converter.ConvertOptions, error) {
	flags := cmd.Flags()
	configPath, _ := flags.GetString("config")
	inputDir, _ := flags.GetString("input-dir")
	coverPath, _ := flags.GetString("cover")
	logLevel, _ := flags.GetString("log-level")
	logFormat, _ := flags.GetString("log-format")
	verbose, _ := flags.GetBool("verbose")

	if _, err := parseLogLevel(logLevel); err != nil {
		return converter.ConvertOptions{}, fmt.Errorf("invalid --log-level: %w", err)
	}
	switch strings.ToLower(logFormat) {
	case "text", "json":
	default:
		return converter.ConvertOptions{}, fmt.Errorf("invalid --log-format %q: must be text or json", logFormat)
	}
	if verbose {
		logLevel = "debug"
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return converter.ConvertOptions{}, err
		}
		cfg = loaded
	}
	if inputDir != "" {
		cfg.InputDir = inputDir
	}
	if flags.Changed("workers") {
		workers, _ := flags.GetInt("workers")
		if workers < 0 {
			return converter.ConvertOptions{}, fmt.Errorf("invalid --workers %d: must be >= 0", workers)
		}
		cfg.Workers = workers
	}

	inputPath := ""
	if len(args) > 0 {
		inputPath = args[0]
	} else {
		found, err := converter.FindDefaultInput(cfg.InputDir)
		if err != nil {
			return converter.ConvertOptions{}, err
		}
		inputPath = found
	}

	outputPath := cfg.OutputPath
	if len(args) > 1 {
		outputPath = args[1]
	}

	return converter.ConvertOptions{
		InputPath:  inputPath,
		OutputPath: outputPath,
		CoverPath:  coverPath,
		Config:     cfg,
		Logger:     buildLogger(cmd.ErrOrStderr(), logLevel, logFormat),
	}, nil
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown level %q", level)
	}
}

func buildLogger(w io.Writer, level, format string) *slog.Logger {
	lvl, _ := parseLogLevel(level)
	handlerOpts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		stop()
		os.Exit(1)
	}
}
