package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	appsubmission "video-beeper/application/submission"
	"video-beeper/domain/audio"
	"video-beeper/domain/submission"
	"video-beeper/domain/video"
	"video-beeper/infrastructure/backend"
	"video-beeper/infrastructure/config"
	"video-beeper/infrastructure/download"
	"video-beeper/infrastructure/filesystem"
	"video-beeper/infrastructure/logging"
	"video-beeper/infrastructure/resource"

	"github.com/spf13/cobra"
)

var (
	submitFilePath    string
	submitThreshold   string
	submitInteractive bool
	submitDownload    bool
	submitOutputDir   string
	submitFilename    string
	submitTimeout     time.Duration
	submitNoTemp      bool
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a video and show the beeped result",
	Long: `Upload an MP4 video with a profanity threshold to the processing service,
then show the beeped words and the location of the beeped audio.

The threshold ranges from 0 to 1 in steps of 0.1. Lower values beep more.
Without --file on a terminal, the command prompts for the video and threshold.

Examples:
  video-beeper submit --file clip.mp4
  video-beeper submit --file clip.mp4 --threshold 0.8 --download --output-dir ~/Music
  video-beeper submit --interactive`,
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().StringVar(&submitFilePath, "file", "", "Path to the MP4 video to process")
	submitCmd.Flags().StringVar(&submitThreshold, "threshold", "", "Profanity threshold from 0 to 1 (default from config, else 0.6)")
	submitCmd.Flags().BoolVar(&submitInteractive, "interactive", false, "Prompt for the video and threshold, and allow several submissions")
	submitCmd.Flags().BoolVar(&submitDownload, "download", false, "Save the beeped audio (default from config output.download)")
	submitCmd.Flags().StringVar(&submitOutputDir, "output-dir", "", "Directory for the downloaded audio (default from config)")
	submitCmd.Flags().StringVar(&submitFilename, "filename", "", "File name for the downloaded audio (default beeped_audio.wav)")
	submitCmd.Flags().DurationVar(&submitTimeout, "timeout", 0, "Request timeout (default from config, else 5m)")
	submitCmd.Flags().BoolVar(&submitNoTemp, "no-temp", false, "Keep the beeped audio in memory instead of a temp file")
}

// Downloader saves the live audio resource to a user-visible file
type Downloader interface {
	Save(res audio.Resource, dir, filename string) (string, error)
}

// VideoOpener resolves a path to a selectable video
type VideoOpener func(path string) (video.SelectedFile, error)

// SubmitDependencies holds the collaborators of the submit command
type SubmitDependencies struct {
	Processor  submission.Processor
	Allocator  audio.Allocator
	Downloader Downloader
	Prompter   Prompter
	OpenVideo  VideoOpener
	Logger     *slog.Logger
}

// SubmitOptions holds the user inputs of the submit command
type SubmitOptions struct {
	FilePath         string
	Threshold        string
	DefaultThreshold video.Threshold
	Timeout          time.Duration
	Interactive      bool
	Download         bool
	OutputDir        string
	Filename         string
	Colorize         bool
}

func runSubmit(cmd *cobra.Command, args []string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(c)
	if err != nil {
		return err
	}

	httpClient := &http.Client{}
	if auth := authConfig(c); auth.Enabled() {
		httpClient = backend.NewAuthenticatedHTTPClient(cmd.Context(), auth, httpClient)
	}
	client, err := backend.NewClient(c.Backend.BaseURL, c.Backend.EndpointPath,
		backend.WithHTTPClient(httpClient),
		backend.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	var allocator audio.Allocator
	if submitNoTemp {
		allocator = resource.NewMemoryAllocator()
	} else {
		temp, err := resource.NewTempAllocator(c.Output.TempDirectory)
		if err != nil {
			return err
		}
		// Runs after the session has released its resource
		defer func() {
			if err := temp.Close(); err != nil {
				logger.Warn("failed to remove temp audio directory", "dir", temp.Dir(), "error", err)
			}
		}()
		allocator = temp
	}

	opts := submitOptionsFromFlags(cmd, c)
	opts.Colorize = shouldColorize(os.Stdout)
	if !cmd.Flags().Changed("interactive") && submitFilePath == "" && isTerminal(os.Stdin) {
		opts.Interactive = true
	}

	deps := SubmitDependencies{
		Processor:  client,
		Allocator:  allocator,
		Downloader: download.NewSaver(),
		Prompter:   DefaultPrompter,
		OpenVideo:  openVideoFile,
		Logger:     logger,
	}

	return RunSubmitWithDependencies(cmd.Context(), deps, opts, os.Stdout)
}

func submitOptionsFromFlags(cmd *cobra.Command, c *config.Config) SubmitOptions {
	opts := SubmitOptions{
		FilePath:         submitFilePath,
		Threshold:        submitThreshold,
		DefaultThreshold: c.Threshold(),
		Timeout:          c.Timeout(),
		Interactive:      submitInteractive,
		Download:         c.Output.Download,
		OutputDir:        c.Output.Directory,
		Filename:         c.Output.Filename,
	}
	if cmd.Flags().Changed("download") {
		opts.Download = submitDownload
	}
	if submitOutputDir != "" {
		opts.OutputDir = submitOutputDir
	}
	if submitFilename != "" {
		opts.Filename = submitFilename
	}
	if submitTimeout > 0 {
		opts.Timeout = submitTimeout
	}
	return opts
}

func authConfig(c *config.Config) backend.AuthConfig {
	return backend.AuthConfig{
		TokenURL:     c.Backend.Auth.TokenURL,
		ClientID:     c.Backend.Auth.ClientID,
		ClientSecret: c.Backend.Auth.ClientSecret,
		Scopes:       c.Backend.Auth.Scopes,
	}
}

func openVideoFile(path string) (video.SelectedFile, error) {
	file, err := filesystem.OpenVideo(path)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// RunSubmitWithDependencies runs the submit command with injected dependencies (for testing)
func RunSubmitWithDependencies(ctx context.Context, deps SubmitDependencies, opts SubmitOptions, output OutputWriter) error {
	threshold := opts.DefaultThreshold
	if opts.Threshold != "" {
		t, err := video.ParseThreshold(opts.Threshold)
		if err != nil {
			return err
		}
		threshold = t
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	session := appsubmission.NewSession(deps.Processor, deps.Allocator,
		appsubmission.WithTimeout(opts.Timeout),
		appsubmission.WithLogger(logger),
		appsubmission.WithThreshold(threshold),
	)
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("failed to release audio on exit", "error", err)
		}
	}()

	if opts.Interactive {
		return runInteractive(ctx, deps, opts, session, output)
	}

	if opts.FilePath != "" {
		file, err := deps.OpenVideo(opts.FilePath)
		if err != nil {
			return err
		}
		session.SelectFile(file)
	}

	_, err := submitAndRender(ctx, deps, opts, session, output, opts.Download)
	return err
}

// submitAndRender runs one submission and prints the loading line followed
// by the settled view. Failures are printed here and returned wrapped in
// errReported.
func submitAndRender(ctx context.Context, deps SubmitDependencies, opts SubmitOptions, session *appsubmission.Session, output OutputWriter, save bool) (*submission.Result, error) {
	snap := session.Snapshot()
	if snap.FileName != "" {
		fmt.Fprintf(output, "Submitting %s (threshold %s)\n", snap.FileName, snap.Threshold)
		renderSnapshot(output, submission.Snapshot{State: submission.StateLoading}, opts.Colorize)
	}

	result, err := session.Submit(ctx)
	renderSnapshot(output, session.Snapshot(), opts.Colorize)
	if err != nil {
		if errors.Is(err, submission.ErrSubmissionInProgress) || errors.Is(err, submission.ErrSessionClosed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", errReported, err)
	}

	if save {
		path, err := deps.Downloader.Save(result.Resource, opts.OutputDir, opts.Filename)
		if err != nil {
			return result, fmt.Errorf("failed to download beeped audio: %w", err)
		}
		fmt.Fprintf(output, "Downloaded: %s\n", path)
	}
	return result, nil
}

func runInteractive(ctx context.Context, deps SubmitDependencies, opts SubmitOptions, session *appsubmission.Session, output OutputWriter) error {
	fmt.Fprintln(output, "Video Profanity Beeper")
	fmt.Fprintln(output)

	lastPath := opts.FilePath
	for {
		path, err := deps.Prompter.Input("Path to MP4 video:", lastPath)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		path = strings.TrimSpace(path)
		if path != "" {
			file, err := deps.OpenVideo(path)
			if err != nil {
				fmt.Fprintln(output, paint("Error: "+err.Error(), ansiRed, opts.Colorize))
				continue
			}
			session.SelectFile(file)
			lastPath = path
		}

		choice, err := deps.Prompter.Select("Profanity threshold (0-1):", video.ThresholdChoices(), session.Threshold().String())
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		threshold, err := video.ParseThreshold(choice)
		if err != nil {
			return err
		}
		session.SetThreshold(threshold)

		result, err := submitAndRender(ctx, deps, opts, session, output, false)
		if err != nil && !errors.Is(err, errReported) {
			return err
		}

		if result != nil {
			target := filepath.Join(opts.OutputDir, downloadName(opts.Filename))
			save, err := deps.Prompter.Confirm(fmt.Sprintf("Download beeped audio to %s?", target), opts.Download)
			if err != nil {
				return fmt.Errorf("prompt cancelled")
			}
			if save {
				path, err := deps.Downloader.Save(result.Resource, opts.OutputDir, opts.Filename)
				if err != nil {
					fmt.Fprintln(output, paint("Error: "+err.Error(), ansiRed, opts.Colorize))
				} else {
					fmt.Fprintf(output, "Downloaded: %s\n", path)
				}
			}
		}

		again, err := deps.Prompter.Confirm("Process another video?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !again {
			return nil
		}
		fmt.Fprintln(output)
	}
}

func downloadName(filename string) string {
	if strings.TrimSpace(filename) == "" {
		return audio.DefaultDownloadName
	}
	return filename
}
