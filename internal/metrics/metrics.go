package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "media_downloader_sessions_started_total",
		Help: "Total number of download sessions started",
	}, []string{"kind"})

	SessionsSucceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "media_downloader_sessions_succeeded_total",
		Help: "Total number of download sessions that succeeded",
	}, []string{"kind"})

	SessionsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "media_downloader_sessions_failed_total",
		Help: "Total number of download sessions that failed",
	}, []string{"kind", "error_kind"})

	SessionsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "media_downloader_sessions_rejected_total",
		Help: "Total number of start requests rejected because a session was running",
	})

	SessionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "media_downloader_session_duration_seconds",
		Help:    "Session duration in seconds",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
	}, []string{"kind"})

	ProgressLines = promauto.NewCounter(prometheus.CounterOpts{
		Name: "media_downloader_progress_lines_total",
		Help: "Total number of fetcher lines received by sessions",
	})

	FetcherRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "media_downloader_fetcher_runs_total",
		Help: "Total number of fetcher process runs by operation and result",
	}, []string{"operation", "result"})

	DownloadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "media_downloader_download_bytes_total",
		Help: "Total bytes of media files produced",
	})

	PlaylistsLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "media_downloader_playlists_loaded_total",
		Help: "Total number of playlists whose metadata was fetched",
	})
)
