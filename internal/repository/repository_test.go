package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/conference-portal/internal/config"
	"github.com/iliyamo/conference-portal/internal/database"
	"github.com/iliyamo/conference-portal/internal/logging"
	"github.com/iliyamo/conference-portal/internal/model"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := config.DBConfig{Driver: database.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "portal.db")}
	db, err := database.Setup(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("setup db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type fixture struct {
	conf     model.Conference
	main     model.Hall
	roomB    model.Hall
	speaker  model.Speaker
	d1s1     model.TimeSlot
	d1s2     model.TimeSlot
	d2s1     model.TimeSlot
	schedule *ScheduleRepo
	files    *FileRepo
}

func seed(t *testing.T, db *sql.DB) fixture {
	t.Helper()
	ctx := context.Background()
	f := fixture{schedule: NewScheduleRepo(db), files: NewFileRepo(db)}

	f.conf = model.Conference{Name: "DevConf", TotalDays: 3}
	if err := NewConferenceRepo(db).Create(ctx, &f.conf); err != nil {
		t.Fatalf("create conference: %v", err)
	}
	halls := NewHallRepo(db)
	f.main = model.Hall{ConferenceID: f.conf.ID, Name: "Main Hall", Capacity: 300, Location: "Ground floor"}
	f.roomB = model.Hall{ConferenceID: f.conf.ID, Name: "Room B", Capacity: 40, Location: "First floor"}
	for _, h := range []*model.Hall{&f.main, &f.roomB} {
		if err := halls.Create(ctx, h); err != nil {
			t.Fatalf("create hall: %v", err)
		}
	}
	f.speaker = model.Speaker{FullName: "Ada Lovelace", Email: "ada@example.com", Title: "Engineer", Bio: "Notes"}
	if err := NewSpeakerRepo(db).Create(ctx, &f.speaker); err != nil {
		t.Fatalf("create speaker: %v", err)
	}
	slots := NewTimeSlotRepo(db)
	f.d1s1 = model.TimeSlot{ConferenceID: f.conf.ID, DayNumber: 1, StartTime: "09:00:00", EndTime: "10:00:00", SlotName: "Morning"}
	f.d1s2 = model.TimeSlot{ConferenceID: f.conf.ID, DayNumber: 1, StartTime: "10:00:00", EndTime: "11:00:00", SlotName: "Late morning"}
	f.d2s1 = model.TimeSlot{ConferenceID: f.conf.ID, DayNumber: 2, StartTime: "09:00:00", EndTime: "10:00:00", SlotName: "Morning"}
	for _, s := range []*model.TimeSlot{&f.d1s1, &f.d1s2, &f.d2s1} {
		if err := slots.Create(ctx, s); err != nil {
			t.Fatalf("create slot: %v", err)
		}
	}
	return f
}

func (f fixture) entry(hall model.Hall, slot model.TimeSlot, title string) *model.ScheduleEntry {
	return &model.ScheduleEntry{
		ConferenceID: f.conf.ID,
		SpeakerID:    f.speaker.ID,
		HallID:       hall.ID,
		SlotID:       slot.ID,
		SessionTitle: title,
	}
}

func TestScheduleRepo_ConcurrentCreateSameHallSlot(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.schedule.Create(context.Background(), f.entry(f.main, f.d1s1, "Talk"))
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicate):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || dup != 1 {
		t.Fatalf("ok=%d dup=%d, want 1 and 1", ok, dup)
	}
}

func TestScheduleRepo_CreateThenList(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	e := f.entry(f.main, f.d2s1, "Engines")
	e.SessionDescription = "Analytical"
	if err := f.schedule.Create(ctx, e); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := f.schedule.List(ctx, model.ScheduleFilter{ConferenceID: f.conf.ID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	v := got[0]
	if v.ID != e.ID || v.HallName != "Main Hall" || v.HallCapacity != 300 || v.HallLocation != "Ground floor" {
		t.Errorf("hall fields = %+v", v)
	}
	if v.DayNumber != 2 || v.StartTime != "09:00:00" || v.EndTime != "10:00:00" || v.SlotOrder != 3 {
		t.Errorf("slot fields = %+v", v)
	}
	if v.SpeakerCode != "SP001" || v.SpeakerName != "Ada Lovelace" || v.SpeakerBio != "Notes" || v.SpeakerEmail != "ada@example.com" {
		t.Errorf("speaker fields = %+v", v)
	}
	if v.SessionTitle != "Engines" || v.SessionDescription != "Analytical" || v.Status != model.ScheduleStatusScheduled {
		t.Errorf("session fields = %+v", v)
	}
}

func TestScheduleRepo_ListOrderAndFilters(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	for _, e := range []*model.ScheduleEntry{
		f.entry(f.roomB, f.d1s1, "B1"),
		f.entry(f.main, f.d2s1, "M3"),
		f.entry(f.main, f.d1s2, "M2"),
		f.entry(f.main, f.d1s1, "M1"),
	} {
		if err := f.schedule.Create(ctx, e); err != nil {
			t.Fatalf("Create %s: %v", e.SessionTitle, err)
		}
	}

	all, err := f.schedule.List(ctx, model.ScheduleFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var titles []string
	for _, v := range all {
		titles = append(titles, v.SessionTitle)
	}
	want := []string{"M1", "M2", "M3", "B1"}
	if len(titles) != len(want) {
		t.Fatalf("titles = %v, want %v", titles, want)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("titles = %v, want %v", titles, want)
		}
	}

	day1Main, err := f.schedule.List(ctx, model.ScheduleFilter{HallID: f.main.ID, DayNumber: 1})
	if err != nil {
		t.Fatalf("List filtered: %v", err)
	}
	if len(day1Main) != 2 {
		t.Errorf("filtered len = %d, want 2", len(day1Main))
	}

	none, err := f.schedule.List(ctx, model.ScheduleFilter{SpeakerID: f.speaker.ID + 100})
	if err != nil {
		t.Fatalf("List by unknown speaker: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", none)
	}
}

func TestScheduleRepo_UpdateConflictAndSelf(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	a := f.entry(f.main, f.d1s1, "A")
	b := f.entry(f.main, f.d1s2, "B")
	for _, e := range []*model.ScheduleEntry{a, b} {
		if err := f.schedule.Create(ctx, e); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	// unchanged hall/slot on its own row is not a conflict
	a.SessionTitle = "A renamed"
	if err := f.schedule.Update(ctx, a); err != nil {
		t.Fatalf("self update: %v", err)
	}

	b.SlotID = f.d1s1.ID
	if err := f.schedule.Update(ctx, b); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Update into taken slot: got %v, want ErrDuplicate", err)
	}

	missing := *a
	missing.ID = 999
	if err := f.schedule.Update(ctx, &missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update missing: got %v, want ErrNotFound", err)
	}
}

func TestScheduleRepo_DeleteOrphansFiles(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	e := f.entry(f.main, f.d1s1, "Talk")
	if err := f.schedule.Create(ctx, e); err != nil {
		t.Fatalf("Create: %v", err)
	}
	file := newFile(e.ID, f.main.ID)
	if err := f.files.Create(ctx, file); err != nil {
		t.Fatalf("create file: %v", err)
	}

	if err := f.schedule.Delete(ctx, e.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := f.schedule.Delete(ctx, e.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete: got %v, want ErrNotFound", err)
	}

	got, err := f.files.GetByID(ctx, file.ID)
	if err != nil {
		t.Fatalf("file should survive: %v", err)
	}
	if got.ScheduleID != nil {
		t.Errorf("ScheduleID = %v, want nil", *got.ScheduleID)
	}
	orphans, err := f.files.List(ctx, model.FileFilter{Orphaned: true})
	if err != nil || len(orphans) != 1 {
		t.Fatalf("orphans = %v, err = %v", orphans, err)
	}
}

func TestScheduleRepo_FindUploadTargets(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	e := f.entry(f.main, f.d2s1, "Engines")
	if err := f.schedule.Create(ctx, e); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := f.schedule.FindUploadTargets(ctx, f.speaker.ID, "Main Hall", 2, "Engines")
	if err != nil {
		t.Fatalf("FindUploadTargets: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	tg := got[0]
	if tg.ScheduleID != e.ID || tg.HallName != "Main Hall" || tg.DayNumber != 2 || tg.SlotOrder != 3 || tg.TotalDays != 3 {
		t.Errorf("target = %+v", tg)
	}

	if got, _ := f.schedule.FindUploadTargets(ctx, f.speaker.ID, "Main Hall", 1, "Engines"); len(got) != 0 {
		t.Errorf("wrong day matched: %+v", got)
	}
	if _, err := f.schedule.GetUploadTarget(ctx, 12345); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUploadTarget missing: %v", err)
	}
}

func TestTimeSlotRepo_RenumbersByDayAndStart(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	conf := model.Conference{Name: "C", TotalDays: 2}
	if err := NewConferenceRepo(db).Create(ctx, &conf); err != nil {
		t.Fatalf("create conference: %v", err)
	}
	repo := NewTimeSlotRepo(db)

	late := model.TimeSlot{ConferenceID: conf.ID, DayNumber: 2, StartTime: "09:00:00", EndTime: "10:00:00"}
	mid := model.TimeSlot{ConferenceID: conf.ID, DayNumber: 1, StartTime: "11:00:00", EndTime: "12:00:00"}
	early := model.TimeSlot{ConferenceID: conf.ID, DayNumber: 1, StartTime: "09:00:00", EndTime: "10:00:00"}
	for _, s := range []*model.TimeSlot{&late, &mid, &early} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if early.SlotOrder != 1 {
		t.Errorf("early.SlotOrder = %d, want 1", early.SlotOrder)
	}

	list, err := repo.ListByConference(ctx, conf.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	wantIDs := []uint64{early.ID, mid.ID, late.ID}
	for i, s := range list {
		if s.ID != wantIDs[i] || s.SlotOrder != i+1 {
			t.Errorf("slot %d = id %d order %d, want id %d order %d", i, s.ID, s.SlotOrder, wantIDs[i], i+1)
		}
	}

	if err := repo.Delete(ctx, early.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := repo.GetByID(ctx, late.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.SlotOrder != 2 {
		t.Errorf("after delete late.SlotOrder = %d, want 2", got.SlotOrder)
	}
}

func TestTimeSlotRepo_DeleteInUse(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()
	if err := f.schedule.Create(ctx, f.entry(f.main, f.d1s1, "Talk")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := NewTimeSlotRepo(db).Delete(ctx, f.d1s1.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
}

func TestSpeakerRepo_CodesAndCascade(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()
	repo := NewSpeakerRepo(db)

	second := model.Speaker{FullName: "Grace Hopper"}
	if err := repo.Create(ctx, &second); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if second.Code != "SP002" {
		t.Errorf("Code = %q, want SP002", second.Code)
	}
	byCode, err := repo.GetByCode(ctx, "SP002")
	if err != nil || byCode.ID != second.ID {
		t.Fatalf("GetByCode = %+v, %v", byCode, err)
	}

	e := f.entry(f.main, f.d1s1, "Talk")
	if err := f.schedule.Create(ctx, e); err != nil {
		t.Fatalf("Create schedule: %v", err)
	}
	if err := repo.Delete(ctx, f.speaker.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.schedule.GetByID(ctx, e.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("schedule should be gone, got %v", err)
	}
	if err := repo.Delete(ctx, f.speaker.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete: %v", err)
	}

	n, err := repo.DeleteAll(ctx)
	if err != nil || n != 1 {
		t.Errorf("DeleteAll = %d, %v", n, err)
	}
}

func TestSpeakerRepo_CodeNotReusedAfterDelete(t *testing.T) {
	db := newTestDB(t)
	seed(t, db)
	ctx := context.Background()
	repo := NewSpeakerRepo(db)

	last := model.Speaker{FullName: "Grace Hopper"}
	if err := repo.Create(ctx, &last); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Delete(ctx, last.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	next := model.Speaker{FullName: "Alan Turing"}
	if err := repo.Create(ctx, &next); err != nil {
		t.Fatalf("Create after delete: %v", err)
	}
	if next.Code == last.Code {
		t.Fatalf("code %s handed out twice", next.Code)
	}
	if want := SpeakerCode(next.ID); next.Code != want {
		t.Errorf("Code = %q, want %q", next.Code, want)
	}
	stored, err := repo.GetByID(ctx, next.ID)
	if err != nil || stored.Code != next.Code {
		t.Fatalf("GetByID = %+v, %v", stored, err)
	}
}

func TestHallRepo_DuplicateNameAndDeleteInUse(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()
	repo := NewHallRepo(db)

	dup := model.Hall{ConferenceID: f.conf.ID, Name: "Main Hall"}
	if err := repo.Create(ctx, &dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate name: got %v", err)
	}
	if err := f.schedule.Create(ctx, f.entry(f.main, f.d1s1, "Talk")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Delete(ctx, f.main.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("Delete in use: got %v", err)
	}
	if err := repo.Delete(ctx, f.roomB.ID); err != nil {
		t.Fatalf("Delete unused: %v", err)
	}
	if err := repo.Update(ctx, &model.Hall{ID: f.roomB.ID, Name: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update deleted: got %v", err)
	}
}

func TestFileRepo_Transition(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	file := newFile(0, f.main.ID)
	if err := f.files.Create(ctx, file); err != nil {
		t.Fatalf("Create: %v", err)
	}
	ok, err := f.files.Transition(ctx, file.ID, model.UploadStatusPending, model.UploadStatusProcessed)
	if err != nil || !ok {
		t.Fatalf("first transition = %v, %v", ok, err)
	}
	ok, err = f.files.Transition(ctx, file.ID, model.UploadStatusPending, model.UploadStatusFailed)
	if err != nil || ok {
		t.Fatalf("stale transition = %v, %v", ok, err)
	}
	got, err := f.files.GetByID(ctx, file.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != model.UploadStatusProcessed || got.ScheduleID != nil {
		t.Errorf("file = %+v", got)
	}
	if got.UploadDate.IsZero() {
		t.Error("UploadDate not read back")
	}
	if err := f.files.Delete(ctx, file.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := f.files.Delete(ctx, file.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestFileRepo_CountByLocation(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	first, second := newFile(0, f.main.ID), newFile(0, f.main.ID)
	for _, file := range []*model.UploadedFile{first, second} {
		if err := f.files.Create(ctx, file); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	n, err := f.files.CountByLocation(ctx, first.StoredPath, first.StoredFilename, first.ID)
	if err != nil || n != 1 {
		t.Fatalf("CountByLocation = %d, %v, want 1", n, err)
	}
	if err := f.files.Delete(ctx, second.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	n, err = f.files.CountByLocation(ctx, first.StoredPath, first.StoredFilename, first.ID)
	if err != nil || n != 0 {
		t.Fatalf("CountByLocation after delete = %d, %v, want 0", n, err)
	}
}

func newFile(scheduleID, hallID uint64) *model.UploadedFile {
	f := &model.UploadedFile{
		HallID:         hallID,
		DayNumber:      1,
		SpeakerCode:    "SP001",
		SlotOrderInDay: 1,
		OriginalName:   "talk.pptx",
		OriginalPath:   "staging/abc_talk.pptx",
		StoredFilename: "1_SP001_talk.pptx",
		StoredPath:     "uploads/Main_Hall/Day_1",
		FileSize:       10,
		FileType:       ".pptx",
		UploadDate:     time.Now().UTC(),
	}
	if scheduleID != 0 {
		f.ScheduleID = &scheduleID
	}
	return f
}
