package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/conference-portal/internal/model"
	"github.com/iliyamo/conference-portal/internal/queue"
	"github.com/iliyamo/conference-portal/internal/repository"
	"github.com/iliyamo/conference-portal/internal/storage"
)

// ProcessSummary reports one ProcessPending run.
type ProcessSummary struct {
	Scanned   int           `json:"scanned"`
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"` // rows another actor moved out of pending mid-run
	Duration  time.Duration `json:"duration_ns"`
}

// LifecycleOptions configures a FileLifecycle.
type LifecycleOptions struct {
	RemoveStaging bool
	StartupDelay  time.Duration
	Locker        Locker // optional cross-instance lock
}

// FileLifecycle moves staged uploads to their canonical location and
// deletes files.  At most one ProcessPending runs at a time.
type FileLifecycle struct {
	files *repository.FileRepo
	opts  LifecycleOptions
	mu    sync.Mutex
	kick  chan struct{}
	notifier
}

// NewFileLifecycle wires a FileLifecycle.  events may be nil.
func NewFileLifecycle(files *repository.FileRepo, opts LifecycleOptions, events EventPublisher, log *logrus.Logger) *FileLifecycle {
	return &FileLifecycle{
		files:    files,
		opts:     opts,
		kick:     make(chan struct{}, 1),
		notifier: newNotifier(events, nil, log),
	}
}

// Kick requests a processing run.  Kicks arriving while one is queued
// collapse into it.
func (l *FileLifecycle) Kick() {
	select {
	case l.kick <- struct{}{}:
	default:
	}
}

// Start waits for the startup delay, processes once, then serves kicks
// until ctx is done.
func (l *FileLifecycle) Start(ctx context.Context) {
	if l.opts.StartupDelay > 0 {
		t := time.NewTimer(l.opts.StartupDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
	l.runLogged(ctx, "startup")
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.kick:
			l.runLogged(ctx, "kick")
		}
	}
}

func (l *FileLifecycle) runLogged(ctx context.Context, trigger string) {
	sum, err := l.ProcessPending(ctx)
	switch {
	case errors.Is(err, ErrProcessingInProgress):
		l.log.WithField("trigger", trigger).Debug("file processing already running")
	case err != nil:
		l.log.WithError(err).WithField("trigger", trigger).Error("file processing failed")
	case sum.Scanned > 0:
		l.log.WithFields(logrus.Fields{
			"trigger":   trigger,
			"scanned":   sum.Scanned,
			"processed": sum.Processed,
			"failed":    sum.Failed,
			"skipped":   sum.Skipped,
			"duration":  sum.Duration,
		}).Info("pending files processed")
	}
}

// ProcessPending handles every pending row.  A row whose staged file is
// missing or whose copy fails is marked failed and the run continues.  The
// run stops early only when listing rows fails or the cross-instance lock
// cannot be extended; rows not reached stay pending.  A concurrent call
// returns ErrProcessingInProgress.
func (l *FileLifecycle) ProcessPending(ctx context.Context) (ProcessSummary, error) {
	if !l.mu.TryLock() {
		return ProcessSummary{}, ErrProcessingInProgress
	}
	defer l.mu.Unlock()

	var lease Lease
	if l.opts.Locker != nil {
		var (
			ok  bool
			err error
		)
		lease, ok, err = l.opts.Locker.TryLock(ctx)
		if err != nil {
			return ProcessSummary{}, fmt.Errorf("acquire processing lock: %w", err)
		}
		if !ok {
			return ProcessSummary{}, ErrProcessingInProgress
		}
		defer lease.Release()
	}

	start := time.Now()
	processRunsTotal.Inc()
	defer func() { processDurationSeconds.Observe(time.Since(start).Seconds()) }()

	pending, err := l.files.ListByStatus(ctx, model.UploadStatusPending)
	if err != nil {
		return ProcessSummary{}, fmt.Errorf("list pending files: %w", err)
	}

	sum := ProcessSummary{Scanned: len(pending)}
	for i, f := range pending {
		if ctx.Err() != nil {
			break
		}
		if lease != nil && i > 0 {
			if err := lease.Extend(ctx); err != nil {
				sum.Duration = time.Since(start)
				return sum, fmt.Errorf("extend processing lock: %w", err)
			}
		}
		to, cause := l.processOne(f)
		moved, err := l.files.Transition(ctx, f.ID, model.UploadStatusPending, to)
		if err != nil {
			l.log.WithError(err).WithField("file_id", f.ID).Error("update file status failed")
			sum.Skipped++
			continue
		}
		if !moved {
			sum.Skipped++
			continue
		}
		f.Status = to
		filesProcessedTotal.WithLabelValues(to).Inc()
		entry := l.log.WithFields(logrus.Fields{"file_id": f.ID, "stored_filename": f.StoredFilename})
		if to == model.UploadStatusFailed {
			sum.Failed++
			entry.WithError(cause).Warn("file processing failed")
			l.publish(ctx, queue.NewFileEvent(queue.EventFileFailed, f))
			continue
		}
		sum.Processed++
		entry.WithField("stored_path", f.StoredPath).Info("file processed")
		l.publish(ctx, queue.NewFileEvent(queue.EventFileProcessed, f))
	}
	sum.Duration = time.Since(start)
	return sum, nil
}

// processOne performs the disk work for one row and returns the status it
// should move to.
func (l *FileLifecycle) processOne(f model.UploadedFile) (string, error) {
	if !storage.Exists(f.OriginalPath) {
		return model.UploadStatusFailed, fmt.Errorf("staged file %s not found", f.OriginalPath)
	}
	target := path.Join(f.StoredPath, f.StoredFilename)
	if storage.SamePath(f.OriginalPath, target) {
		return model.UploadStatusProcessed, nil
	}
	if _, err := storage.Copy(f.OriginalPath, f.StoredPath, f.StoredFilename); err != nil {
		return model.UploadStatusFailed, err
	}
	if l.opts.RemoveStaging {
		if err := storage.Remove(f.OriginalPath); err != nil {
			l.log.WithError(err).WithField("file_id", f.ID).Warn("remove staged file failed")
		}
	}
	return model.UploadStatusProcessed, nil
}

// DeleteFile removes the row and, best effort, its files on disk.  Files
// already gone are logged only.  The canonical file stays while another
// row still points at it.
func (l *FileLifecycle) DeleteFile(ctx context.Context, id uint64) error {
	f, err := l.files.GetByID(ctx, id)
	if err != nil {
		return lookupErr(err, "file", id)
	}

	paths := []string{f.OriginalPath}
	shared, err := l.files.CountByLocation(ctx, f.StoredPath, f.StoredFilename, id)
	switch {
	case err != nil:
		return fmt.Errorf("check file %d location: %w", id, err)
	case shared > 0:
		l.log.WithFields(logrus.Fields{"file_id": id, "shared_with": shared}).Debug("canonical file kept")
	default:
		paths = append(paths, path.Join(f.StoredPath, f.StoredFilename))
	}
	for _, p := range paths {
		if p == "" || !storage.Exists(p) {
			l.log.WithFields(logrus.Fields{"file_id": id, "path": p}).Debug("file not on disk")
			continue
		}
		if err := storage.Remove(p); err != nil {
			l.log.WithError(err).WithFields(logrus.Fields{"file_id": id, "path": p}).Warn("remove file failed")
		}
	}

	if err := l.files.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("file", id)
		}
		return fmt.Errorf("delete file %d: %w", id, err)
	}
	l.log.WithField("file_id", id).Info("file deleted")
	l.publish(ctx, queue.NewFileEvent(queue.EventFileDeleted, *f))
	return nil
}

// RetryFile returns a failed file to pending and requests a run.
func (l *FileLifecycle) RetryFile(ctx context.Context, id uint64) error {
	f, err := l.files.GetByID(ctx, id)
	if err != nil {
		return lookupErr(err, "file", id)
	}
	moved, err := l.files.Transition(ctx, id, model.UploadStatusFailed, model.UploadStatusPending)
	if err != nil {
		return fmt.Errorf("retry file %d: %w", id, err)
	}
	if !moved {
		return &ConflictError{Msg: fmt.Sprintf("file %d is %s, only failed files can be retried", id, f.Status)}
	}
	l.log.WithField("file_id", id).Info("file queued for retry")
	l.Kick()
	return nil
}

// ListFiles returns uploaded files matching f, oldest first.
func (l *FileLifecycle) ListFiles(ctx context.Context, f model.FileFilter) ([]model.UploadedFile, error) {
	switch f.Status {
	case "", model.UploadStatusPending, model.UploadStatusProcessed, model.UploadStatusFailed:
	default:
		return nil, invalid("status", "must be pending, processed or failed")
	}
	return l.files.List(ctx, f)
}
