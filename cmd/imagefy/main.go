package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/flaneur2020/imagefy/imagefy"
	imagefyerrors "github.com/flaneur2020/imagefy/imagefy/errors"
	"github.com/flaneur2020/imagefy/imagefy/logger"
	"github.com/flaneur2020/imagefy/imagefy/pngcodec"
	"github.com/flaneur2020/imagefy/imagefy/storage"
	"github.com/spf13/cobra"
)

const version = "1.0.6"

type options struct {
	configFile string
	output     string
	image      bool
	width      uint32
	height     uint32
	yes        bool
	noProgress bool
	verbose    bool
}

// app wires the CLI to its collaborators so tests can swap them out.
type app struct {
	storage   storage.Storage
	codec     pngcodec.Codec
	console   Console
	progressW io.Writer
	opts      options
}

func main() {
	a := &app{
		storage:   storage.NewOsStorage(),
		codec:     pngcodec.New(),
		console:   NewConsole(os.Stdout, os.Stderr, os.Stdin),
		progressW: os.Stderr,
	}

	if err := a.command().Execute(); err != nil {
		a.console.Error(errorMessage(err))
		os.Exit(1)
	}
}

func (a *app) command() *cobra.Command {
	defaults := DefaultConfig()

	rootCmd := &cobra.Command{
		Use:     "imagefy <INPUT>... [flags]",
		Short:   "Imagefy: a tool to convert files to images",
		Version: version,
		Example: `  File to image:   imagefy example.exe -o ./example_image/
  Images to file:  imagefy ./example_image/ --image -o example.exe`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := LoadConfig(a.opts.configFile, cmd.Flags())
			if err != nil {
				return err
			}

			setupLogging(config, a.opts.verbose)
			defer logger.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			run := a.runEncode
			if a.opts.image {
				run = a.runDecode
			}
			if err := run(ctx, config, args); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Finished.")
			return nil
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&a.opts.configFile, "config", "", "Config file (YAML); IMAGEFY_* environment variables also apply")
	flags.StringVarP(&a.opts.output, "output", "o", "", "Output path (directory or file path) [default: .]")
	flags.BoolVarP(&a.opts.image, "image", "i", false, "Convert images back to a file")
	flags.Uint32Var(&a.opts.width, "width", defaults.Width, "Image width, only used when converting a file to images")
	flags.Uint32Var(&a.opts.height, "height", defaults.Height, "Image height, only used when converting a file to images")
	flags.BoolVarP(&a.opts.yes, "yes", "y", false, "Skip confirmation prompts")
	flags.BoolVar(&a.opts.noProgress, "no-progress", false, "Disable progress bar (progress is enabled on terminals by default)")
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "Log progress details to stderr")

	return rootCmd
}

func setupLogging(config *Config, verbose bool) {
	level := logger.ParseLevel(config.Log.Level)
	if verbose && level < logger.LogLevelInfo {
		level = logger.LogLevelInfo
	}
	logger.SetLogLevel(level)
	logger.EnableFile(logger.FileConfig{
		Path:       config.Log.File,
		MaxSize:    config.Log.MaxSize,
		MaxBackups: config.Log.MaxBackups,
		MaxAge:     config.Log.MaxAge,
		Compress:   config.Log.Compress,
	})
}

func (a *app) showProgress(config *Config) bool {
	return config.Progress && isTerminal(a.progressW)
}

func (a *app) runEncode(ctx context.Context, config *Config, args []string) error {
	input, outputDir, err := planEncode(a.storage, args, a.opts.output)
	if err != nil {
		return err
	}
	header := &imagefy.Header{Name: filepath.Base(input)}
	if err := imagefy.CheckHeaderFits(header, imagefy.Capacity(config.Width, config.Height)); err != nil {
		return err
	}

	a.console.Info("-", fmt.Sprintf("creating directory %q", outputDir))
	if err := a.console.Confirm("Continue?", config.AssumeYes); err != nil {
		return err
	}
	if err := a.storage.Mkdir(outputDir); err != nil {
		if os.IsExist(err) {
			return imagefyerrors.ErrOutputCollision.WithDetail("path", outputDir)
		}
		return imagefy.NewIOError("mkdir", outputDir, err)
	}

	progress := newProgress(a.showProgress(config), a.progressW, "Writing images")
	encoder := imagefy.NewEncoder(a.storage, a.codec)
	stats, err := encoder.Encode(ctx, &imagefy.EncodeJob{
		Width:     config.Width,
		Height:    config.Height,
		InputPath: input,
		OutputDir: outputDir,
	}, progress.Callback())
	progress.Finish()
	if err != nil {
		return err
	}

	a.console.Info("-", fmt.Sprintf("%d images written (%dx%d)", stats.Images, config.Width, config.Height))
	a.console.Info("+", fmt.Sprintf("file name: %s", stats.FileName))
	a.console.Info("+", fmt.Sprintf("file size: %d bytes", stats.FileSize))
	a.console.Info("+", fmt.Sprintf("digest: %s", stats.Digest))
	a.console.Info("=", fmt.Sprintf("result path: %q", outputDir))
	return nil
}

func (a *app) runDecode(ctx context.Context, config *Config, args []string) error {
	paths, output, err := planDecode(a.storage, args, a.opts.output)
	if err != nil {
		return err
	}

	progress := newProgress(a.showProgress(config), a.progressW, "Reading images")
	decoder := imagefy.NewDecoder(a.storage, a.codec)
	stats, err := decoder.Decode(ctx, &imagefy.DecodeJob{
		ImagePaths: paths,
		OutputPath: output,
	}, progress.Callback())
	progress.Finish()
	if err != nil {
		return err
	}

	a.console.Info("+", fmt.Sprintf("file name: %s", stats.FileName))
	a.console.Info("+", fmt.Sprintf("file size: %d bytes", stats.FileSize))
	if stats.Missing > 0 {
		a.console.Warn(fmt.Sprintf("images ended early, output is %d bytes short", stats.Missing))
	}
	a.console.Info("+", fmt.Sprintf("digest: %s", stats.Digest))
	a.console.Info("=", fmt.Sprintf("result path: %q", stats.OutputPath))
	return nil
}

// errorMessage renders err for the terminal: the message and offending
// path of an ImagefyError, or the plain error text.
func errorMessage(err error) string {
	var ie *imagefyerrors.ImagefyError
	if !errors.As(err, &ie) {
		return err.Error()
	}

	msg := ie.Message
	if path, ok := ie.Details["path"]; ok {
		msg = fmt.Sprintf("%s: %q", msg, path)
	}
	if ie.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, ie.Cause)
	}
	return msg
}
