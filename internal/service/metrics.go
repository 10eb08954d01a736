package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// scheduleConflictsTotal counts create/update attempts rejected by the
	// hall/slot uniqueness constraint.
	scheduleConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_schedule_conflicts_total",
		Help: "Schedule writes rejected because the hall/slot was taken.",
	})

	// uploadsTotal counts upload attempts by outcome.
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_uploads_total",
		Help: "Presentation uploads by result.",
	}, []string{"result"})

	// uploadBytesTotal sums accepted upload sizes.
	uploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_upload_bytes_total",
		Help: "Bytes accepted into the staging area.",
	})

	// filesProcessedTotal counts lifecycle transitions by resulting status.
	filesProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_files_processed_total",
		Help: "Staged files handled by the lifecycle manager, by result.",
	}, []string{"result"})

	// processRunsTotal counts ProcessPending invocations that acquired the lock.
	processRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_process_runs_total",
		Help: "File processing runs.",
	})

	// processDurationSeconds observes ProcessPending run time.
	processDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "portal_process_duration_seconds",
		Help:    "Duration of file processing runs in seconds.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})

	speakerCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_speaker_cache_hits_total",
		Help: "Speaker code lookups served from the LRU cache.",
	})
	speakerCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_speaker_cache_misses_total",
		Help: "Speaker code lookups that went to the database.",
	})
)
