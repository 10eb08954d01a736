package queue

import (
    "encoding/json"
    "os"
    "path/filepath"
    "strings"
    "testing"

    "github.com/iliyamo/conference-portal/internal/model"
)

func TestHandleMessage_AppendsActivityLine(t *testing.T) {
    logPath := filepath.Join(t.TempDir(), "logs", "activity.log")

    id := uint64(7)
    events := []Event{
        NewScheduleEvent(EventScheduleCreated, model.ScheduleEntry{ID: 7, ConferenceID: 1, SpeakerID: 2, HallID: 3, SlotID: 4, SessionTitle: "Keynote"}),
        NewFileEvent(EventPresentationUploaded, model.UploadedFile{ID: 9, ScheduleID: &id, SpeakerCode: "SP002", OriginalName: "deck.pptx",
            StoredPath: "uploads/Main_Hall/Day_1", StoredFilename: "1_SP002_deck.pptx", FileSize: 10, Status: model.UploadStatusPending}),
    }
    for _, ev := range events {
        body, err := json.Marshal(ev)
        if err != nil {
            t.Fatal(err)
        }
        if err := handleMessage(body, logPath); err != nil {
            t.Fatalf("handleMessage: %v", err)
        }
    }

    raw, err := os.ReadFile(logPath)
    if err != nil {
        t.Fatalf("read log: %v", err)
    }
    lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
    if len(lines) != 2 {
        t.Fatalf("got %d lines, want 2:\n%s", len(lines), raw)
    }
    if !strings.Contains(lines[0], "schedule.created") || !strings.Contains(lines[0], `title="Keynote"`) {
        t.Errorf("schedule line = %q", lines[0])
    }
    if !strings.Contains(lines[1], "schedule_id=7") || !strings.Contains(lines[1], "uploads/Main_Hall/Day_1/1_SP002_deck.pptx") {
        t.Errorf("file line = %q", lines[1])
    }
}

func TestHandleMessage_RejectsGarbage(t *testing.T) {
    logPath := filepath.Join(t.TempDir(), "activity.log")
    for _, body := range []string{"not json", "{}"} {
        if err := handleMessage([]byte(body), logPath); err == nil {
            t.Errorf("handleMessage(%q) succeeded", body)
        }
    }
    if _, err := os.Stat(logPath); !os.IsNotExist(err) {
        t.Errorf("log file created for rejected messages")
    }
}
