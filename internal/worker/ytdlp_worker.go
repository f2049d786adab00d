package worker

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"github.com/veranemoloko/media-downloader/internal/domain"
	errpkg "github.com/veranemoloko/media-downloader/internal/errors"
	"github.com/veranemoloko/media-downloader/internal/metrics"
	"github.com/veranemoloko/media-downloader/internal/storage"
	"golang.org/x/sync/errgroup"
)

// PathMarker prefixes the line yt-dlp prints once a file reached its final location.
const PathMarker = "ytdl-path:"

const (
	errorLinePrefix = "ERROR:"
	maxLineSize     = 1024 * 1024
)

// LinePublisher receives every status line the fetcher emits.
type LinePublisher interface {
	Publish(line string)
}

// Options configures how yt-dlp is invoked.
type Options struct {
	BinaryPath       string
	OutputTemplate   string
	AudioFormat      string
	VideoContainer   string
	ItemURLTemplate  string
	BatchParallelism int
}

// CommandFunc builds the process for one fetcher run.
type CommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// YtDlpWorker runs yt-dlp and relays its output to the shared progress stream.
type YtDlpWorker struct {
	opts        Options
	fileStorage *storage.FileStorage
	publisher   LinePublisher
	logger      *slog.Logger
	command     CommandFunc
}

// NewYtDlpWorker creates a new YtDlpWorker writing into fileStorage.
func NewYtDlpWorker(opts Options, fileStorage *storage.FileStorage, publisher LinePublisher, logger *slog.Logger) *YtDlpWorker {
	if opts.BatchParallelism <= 0 {
		opts.BatchParallelism = 1
	}
	return &YtDlpWorker{
		opts:        opts,
		fileStorage: fileStorage,
		publisher:   publisher,
		logger:      logger,
		command:     exec.CommandContext,
	}
}

// SetCommandFunc replaces the process factory. Used by tests.
func (w *YtDlpWorker) SetCommandFunc(fn CommandFunc) {
	w.command = fn
}

// FetchSingle downloads one URL and returns the absolute path of the produced file.
func (w *YtDlpWorker) FetchSingle(ctx context.Context, url string, format domain.Format) (string, error) {
	paths, err := w.download(ctx, "single", url, format)
	if err != nil {
		return "", err
	}
	return paths[len(paths)-1], nil
}

// FetchBatch downloads every item id and returns the produced paths in request order.
// Either every item succeeds or the whole batch fails.
func (w *YtDlpWorker) FetchBatch(ctx context.Context, ids []string, format domain.Format) ([]string, error) {
	paths := make([]string, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.BatchParallelism)

	for i, id := range ids {
		g.Go(func() error {
			produced, err := w.download(ctx, "batch", w.itemURL(id), format)
			if err != nil {
				return err
			}
			paths[i] = produced[len(produced)-1]
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		w.logger.Error("batch download failed",
			"items", len(ids),
			"error", err,
		)
		return nil, err
	}

	return paths, nil
}

func (w *YtDlpWorker) itemURL(id string) string {
	if strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://") {
		return id
	}
	return fmt.Sprintf(w.opts.ItemURLTemplate, id)
}

// BuildDownloadArgs returns the yt-dlp arguments for downloading url in format.
func (w *YtDlpWorker) BuildDownloadArgs(url string, format domain.Format) []string {
	args := []string{
		"--newline",
		"--progress",
		"--no-playlist",
		"--print", "after_move:" + PathMarker + "%(filepath)s",
		"-o", w.fileStorage.OutputTemplate(w.opts.OutputTemplate),
	}

	switch format {
	case domain.FormatAudio:
		args = append(args, "-x", "--audio-format", w.opts.AudioFormat)
	case domain.FormatVideo:
		args = append(args, "-f", "bv*+ba/b", "--merge-output-format", w.opts.VideoContainer)
	}

	return append(args, url)
}

func (w *YtDlpWorker) download(ctx context.Context, operation, url string, format domain.Format) ([]string, error) {
	args := w.BuildDownloadArgs(url, format)
	w.logger.Debug("starting fetcher", "url", url, "format", format)

	var (
		mu        sync.Mutex
		paths     []string
		lastError string
	)

	err := w.stream(ctx, args, func(line string) {
		mu.Lock()
		defer mu.Unlock()

		if p, ok := strings.CutPrefix(line, PathMarker); ok {
			if resolved, err := w.fileStorage.Resolve(p); err == nil {
				paths = append(paths, resolved)
			}
			return
		}
		if strings.HasPrefix(line, errorLinePrefix) {
			lastError = line
		}
		w.publisher.Publish(line)
	})
	if err != nil {
		metrics.FetcherRuns.WithLabelValues(operation, "error").Inc()
		return nil, w.fetchError(ctx, err, lastError)
	}

	if len(paths) == 0 {
		metrics.FetcherRuns.WithLabelValues(operation, "error").Inc()
		return nil, &errpkg.CollaboratorError{Message: fmt.Sprintf("yt-dlp reported no output file for %s", url)}
	}

	metrics.FetcherRuns.WithLabelValues(operation, "success").Inc()
	for _, p := range paths {
		if size, err := w.fileStorage.GetFileSize(p); err == nil {
			metrics.DownloadBytes.Add(float64(size))
		}
	}

	w.logger.Info("fetcher finished", "url", url, "path", paths[len(paths)-1])
	return paths, nil
}

// stream runs the fetcher and calls handle for each non-empty line of its
// stdout and stderr. handle may be called from two goroutines.
func (w *YtDlpWorker) stream(ctx context.Context, args []string, handle func(string)) error {
	cmd := w.command(ctx, w.opts.BinaryPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", w.opts.BinaryPath, err)
	}

	var readers errgroup.Group
	readers.Go(func() error { return scanLines(stdout, handle) })
	readers.Go(func() error { return scanLines(stderr, handle) })
	readErr := readers.Wait()

	if err := cmd.Wait(); err != nil {
		return err
	}
	if readErr != nil {
		return fmt.Errorf("read fetcher output: %w", readErr)
	}
	return nil
}

func scanLines(r io.Reader, handle func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	scanner.Split(splitProgressLines)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		handle(line)
	}
	if err := scanner.Err(); err != nil {
		// Keep the pipe drained so the fetcher can exit and Wait returns.
		_, _ = io.Copy(io.Discard, r)
		return err
	}
	return nil
}

// splitProgressLines splits on '\r' as well as '\n' so in-place progress
// redraws arrive as separate lines.
func splitProgressLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func (w *YtDlpWorker) fetchError(ctx context.Context, err error, lastError string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("fetcher interrupted: %w", ctxErr)
	}

	var exitErr *exec.ExitError
	if lastError == "" {
		if errors.As(err, &exitErr) {
			lastError = fmt.Sprintf("yt-dlp exited with code %d", exitErr.ExitCode())
		} else {
			lastError = err.Error()
		}
	}

	w.logger.Error("fetcher failed", "error", lastError)
	return &errpkg.CollaboratorError{Message: lastError, Err: err}
}
