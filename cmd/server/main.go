package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	h "github.com/veranemoloko/media-downloader/internal/api/http"
	cfgpkg "github.com/veranemoloko/media-downloader/internal/config"
	"github.com/veranemoloko/media-downloader/internal/domain"
	"github.com/veranemoloko/media-downloader/internal/platform"
	"github.com/veranemoloko/media-downloader/internal/progress"
	repo "github.com/veranemoloko/media-downloader/internal/repository"
	svc "github.com/veranemoloko/media-downloader/internal/service"
	"github.com/veranemoloko/media-downloader/internal/storage"
	"github.com/veranemoloko/media-downloader/internal/worker"
)

func main() {

	cfg, err := cfgpkg.Load()
	if err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			slog.Error("configuration file not found", "error", err)
		} else {
			slog.Error("failed to load configuration", "error", err)
		}
		os.Exit(1)
	}

	logCloser := cfgpkg.SetupLogger(cfg)
	defer logCloser.Close()
	slog.Info("configuration loaded successfully")

	sessionStorage, err := repo.NewSessionStorage(cfg.StateFile)
	if err != nil {
		slog.Error("failed to initialize file repository", "error", err)
		os.Exit(1)
	}

	fileStorage := storage.NewFileStorage(cfg.DownloadDir)
	if err := fileStorage.EnsureDir(); err != nil {
		slog.Error("failed to prepare download directory", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lines := progress.NewStream()
	ytdlp := worker.NewYtDlpWorker(worker.Options{
		BinaryPath:       cfg.YtDlpPath,
		OutputTemplate:   cfg.OutputTemplate,
		AudioFormat:      cfg.AudioFormat,
		VideoContainer:   cfg.VideoContainer,
		ItemURLTemplate:  cfg.ItemURLTemplate,
		BatchParallelism: cfg.BatchParallelism,
	}, fileStorage, lines, slog.Default())

	var sessionController *svc.SessionController
	hub := h.NewHub(func() *domain.Session { return sessionController.Current() }, slog.Default())
	sessionController = svc.NewSessionController(sessionStorage, ytdlp, lines, hub, slog.Default())
	go hub.Run(ctx)

	if err := sessionController.RecoverInterrupted(ctx); err != nil {
		slog.Error("failed to recover interrupted sessions", "error", err)
	}

	playlistService := svc.NewPlaylistService(ytdlp, sessionController, slog.Default())
	opener := platform.NewOpener(fileStorage, slog.Default())

	router := h.NewRouter(sessionController, playlistService, opener, hub, slog.Default())
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
		IdleTimeout:  cfg.HTTPTimeout,
	}

	go func() {
		slog.Info("server starting", "address", server.Addr, "download_dir", fileStorage.Dir())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	} else {
		slog.Info("server stopped gracefully")
	}

	if err := sessionController.Shutdown(shutdownCtx); err != nil {
		slog.Error("session controller shutdown failed", "error", err)
	}
}
