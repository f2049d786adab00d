// Package platform hands downloaded files to the operating system.
package platform

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/veranemoloko/media-downloader/internal/validation"
)

const (
	OSDarwin  = "darwin"
	OSWindows = "windows"
	OSLinux   = "linux"
)

// RunFunc runs an external command and reports whether it succeeded.
type RunFunc func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// FileChecker reports whether a regular file exists at path.
type FileChecker interface {
	FileExists(path string) bool
}

// Opener opens files and reveals them in the system file manager.
// Only success or failure of the underlying command is observed.
type Opener struct {
	goos   string
	files  FileChecker
	run    RunFunc
	logger *slog.Logger
}

// NewOpener creates an Opener for the current operating system.
func NewOpener(files FileChecker, logger *slog.Logger) *Opener {
	return &Opener{
		goos:   runtime.GOOS,
		files:  files,
		run:    runCommand,
		logger: logger,
	}
}

// NewOpenerFor creates an Opener for goos that runs commands through run.
func NewOpenerFor(goos string, files FileChecker, run RunFunc, logger *slog.Logger) *Opener {
	return &Opener{goos: goos, files: files, run: run, logger: logger}
}

// OpenFile opens path with the default application.
func (o *Opener) OpenFile(ctx context.Context, path string) error {
	abs, err := o.existingFile(path)
	if err != nil {
		return err
	}

	name, args, err := openCommand(o.goos, abs)
	if err != nil {
		return err
	}
	if err := o.run(ctx, name, args...); err != nil {
		o.logger.Error("failed to open file", "path", abs, "error", err)
		return fmt.Errorf("open %s: %w", abs, err)
	}
	return nil
}

// RevealInFolder shows path in the system file manager, selected where the
// platform supports it. On Linux the parent directory is opened.
func (o *Opener) RevealInFolder(ctx context.Context, path string) error {
	abs, err := o.existingFile(path)
	if err != nil {
		return err
	}

	name, args, err := revealCommand(o.goos, abs)
	if err != nil {
		return err
	}
	if err := o.run(ctx, name, args...); err != nil {
		o.logger.Error("failed to reveal file", "path", abs, "error", err)
		return fmt.Errorf("reveal %s: %w", abs, err)
	}
	return nil
}

func (o *Opener) existingFile(path string) (string, error) {
	if err := validation.ValidatePath(path); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	if !o.files.FileExists(abs) {
		return "", fmt.Errorf("file does not exist: %s: %w", abs, fs.ErrNotExist)
	}
	return abs, nil
}

func openCommand(goos, path string) (string, []string, error) {
	switch goos {
	case OSDarwin:
		return "open", []string{path}, nil
	case OSWindows:
		return "cmd", []string{"/c", "start", "", path}, nil
	case OSLinux:
		return "xdg-open", []string{path}, nil
	default:
		return "", nil, fmt.Errorf("unsupported operating system: %s", goos)
	}
}

func revealCommand(goos, path string) (string, []string, error) {
	switch goos {
	case OSDarwin:
		return "open", []string{"-R", path}, nil
	case OSWindows:
		return "explorer", []string{"/select," + path}, nil
	case OSLinux:
		return "xdg-open", []string{filepath.Dir(path)}, nil
	default:
		return "", nil, fmt.Errorf("unsupported operating system: %s", goos)
	}
}
