package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/conference-portal/internal/model"
	"github.com/iliyamo/conference-portal/internal/queue"
	"github.com/iliyamo/conference-portal/internal/repository"
	"github.com/iliyamo/conference-portal/internal/storage"
)

var allowedExtensions = map[string]bool{".ppt": true, ".pptx": true}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// SlotOrdinal maps a conference-wide slot order to its position within a
// day: ((slotOrder-1) mod totalDays)+1.
func SlotOrdinal(slotOrder, totalDays int) int {
	if totalDays < 1 {
		totalDays = 1
	}
	if slotOrder < 1 {
		slotOrder = 1
	}
	return (slotOrder-1)%totalDays + 1
}

// SanitizeName replaces every character outside [A-Za-z0-9_] with '_'.
// An empty result becomes "presentation".
func SanitizeName(s string) string {
	out := unsafeNameChars.ReplaceAllString(s, "_")
	if out == "" {
		return "presentation"
	}
	return out
}

// StoredLocation returns the canonical directory and filename of an upload.
func StoredLocation(uploadDir, hallName string, dayNumber, ordinal int, speakerCode, originalName string) (dir, name string) {
	ext := filepath.Ext(originalName)
	base := strings.TrimSuffix(filepath.Base(originalName), ext)
	dir = filepath.ToSlash(filepath.Join(uploadDir, SanitizeName(hallName), fmt.Sprintf("Day_%d", dayNumber)))
	name = fmt.Sprintf("%d_%s_%s%s", ordinal, speakerCode, SanitizeName(base), ext)
	return dir, name
}

// UploadInput describes one presentation upload.  ScheduleID, when set,
// selects the entry directly; otherwise it is matched by hall, day and
// session title.
type UploadInput struct {
	SpeakerCode  string
	HallName     string
	DayNumber    int
	SessionTitle string
	ScheduleID   uint64
	Filename     string
	Size         int64 // declared size, -1 when unknown
	Body         io.Reader
}

// Kicker asks the lifecycle manager to run soon.
type Kicker interface {
	Kick()
}

// UploadResolver turns an upload request into a staged file plus a
// pending uploaded_files row.
type UploadResolver struct {
	store     *repository.Store
	speakers  *SpeakerDirectory
	files     *storage.FileStore
	uploadDir string
	maxBytes  int64
	kicker    Kicker
	notifier
}

// UploadOptions carries the resolver's configuration.
type UploadOptions struct {
	UploadDir string
	MaxBytes  int64
	Kicker    Kicker // nil disables processing on upload
}

// NewUploadResolver wires an UploadResolver.
func NewUploadResolver(store *repository.Store, speakers *SpeakerDirectory, files *storage.FileStore, opts UploadOptions, events EventPublisher, log *logrus.Logger) *UploadResolver {
	return &UploadResolver{
		store:     store,
		speakers:  speakers,
		files:     files,
		uploadDir: opts.UploadDir,
		maxBytes:  opts.MaxBytes,
		kicker:    opts.Kicker,
		notifier:  newNotifier(events, nil, log),
	}
}

// Upload validates, resolves and stages a presentation and records it as
// pending.
func (u *UploadResolver) Upload(ctx context.Context, in UploadInput) (*model.UploadedFile, error) {
	f, err := u.upload(ctx, in)
	if err != nil {
		uploadsTotal.WithLabelValues(uploadResult(err)).Inc()
		return nil, err
	}
	uploadsTotal.WithLabelValues("accepted").Inc()
	uploadBytesTotal.Add(float64(f.FileSize))
	return f, nil
}

func (u *UploadResolver) upload(ctx context.Context, in UploadInput) (*model.UploadedFile, error) {
	name := filepath.Base(strings.TrimSpace(in.Filename))
	ext := filepath.Ext(name)
	if !allowedExtensions[strings.ToLower(ext)] {
		return nil, invalid("file", "only .ppt and .pptx files are allowed")
	}
	if in.Size > u.maxBytes {
		return nil, invalid("file", fmt.Sprintf("file exceeds %d bytes", u.maxBytes))
	}
	if in.Body == nil {
		return nil, invalid("file", "is required")
	}

	sp, err := u.speakers.Lookup(ctx, in.SpeakerCode)
	if err != nil {
		return nil, err
	}
	target, err := u.resolveTarget(ctx, sp, in)
	if err != nil {
		return nil, err
	}

	ordinal := SlotOrdinal(target.SlotOrder, target.TotalDays)
	dir, storedName := StoredLocation(u.uploadDir, target.HallName, target.DayNumber, ordinal, sp.Code, name)

	staged, err := u.files.Stage(in.Body, ext, u.maxBytes)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, invalid("file", fmt.Sprintf("file exceeds %d bytes", u.maxBytes))
		}
		return nil, fmt.Errorf("stage upload: %w", err)
	}

	scheduleID := target.ScheduleID
	f := &model.UploadedFile{
		ScheduleID:     &scheduleID,
		HallID:         target.HallID,
		DayNumber:      target.DayNumber,
		SpeakerCode:    sp.Code,
		SlotOrderInDay: ordinal,
		OriginalName:   name,
		OriginalPath:   filepath.ToSlash(staged.Path),
		StoredFilename: storedName,
		StoredPath:     dir,
		FileSize:       staged.Size,
		FileType:       strings.ToLower(strings.TrimPrefix(ext, ".")),
		Status:         model.UploadStatusPending,
		UploadDate:     time.Now().UTC().Truncate(time.Second),
	}
	if err := ctx.Err(); err != nil {
		u.discard(staged.Path)
		return nil, err
	}
	if err := u.store.Files.Create(ctx, f); err != nil {
		u.discard(staged.Path)
		return nil, fmt.Errorf("record upload: %w", err)
	}

	u.log.WithFields(logrus.Fields{
		"file_id":      f.ID,
		"schedule_id":  scheduleID,
		"speaker_code": sp.Code,
		"stored_path":  f.StoredPath,
		"size":         f.FileSize,
	}).Info("presentation accepted")
	u.publish(ctx, queue.NewFileEvent(queue.EventPresentationUploaded, *f))
	if u.kicker != nil {
		u.kicker.Kick()
	}
	return f, nil
}

func (u *UploadResolver) resolveTarget(ctx context.Context, sp *model.Speaker, in UploadInput) (*model.UploadTarget, error) {
	if in.ScheduleID != 0 {
		t, err := u.store.Schedules.GetUploadTarget(ctx, in.ScheduleID)
		if err != nil {
			return nil, lookupErr(err, "schedule", in.ScheduleID)
		}
		if t.SpeakerID != sp.ID {
			return nil, &NotFoundError{Msg: fmt.Sprintf("schedule %d is not assigned to speaker %s", in.ScheduleID, sp.Code)}
		}
		return t, nil
	}

	hall := strings.TrimSpace(in.HallName)
	title := strings.TrimSpace(in.SessionTitle)
	if hall == "" {
		return nil, invalid("hallName", "is required")
	}
	if title == "" {
		return nil, invalid("sessionTitle", "is required")
	}
	if in.DayNumber < 1 {
		return nil, invalid("dayNumber", "must be at least 1")
	}
	targets, err := u.store.Schedules.FindUploadTargets(ctx, sp.ID, hall, in.DayNumber, title)
	if err != nil {
		return nil, fmt.Errorf("find schedule for upload: %w", err)
	}
	switch len(targets) {
	case 0:
		return nil, &NotFoundError{Msg: "no matching schedule found for this speaker, hall, day and session"}
	case 1:
		return &targets[0], nil
	default:
		return nil, &NotFoundError{Msg: fmt.Sprintf("%d schedule entries match, specify schedule_id", len(targets))}
	}
}

func (u *UploadResolver) discard(path string) {
	if err := storage.Remove(path); err != nil {
		u.log.WithError(err).WithField("path", path).Warn("remove staged upload failed")
	}
}

func uploadResult(err error) string {
	var (
		ve *ValidationError
		nf *NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		return "rejected"
	case errors.As(err, &nf):
		return "unmatched"
	default:
		return "error"
	}
}
