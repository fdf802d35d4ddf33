package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestHandleAppendsAuditLine(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "audit", "events.log")
	log := zerolog.Nop()
	c := NewAuditConsumer("amqp://unused", "", path, &log)

	n := NewNotification(KindRejected, 12, "Robotics Expo", "REJECTED", time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC))
	n.ActorID = 9
	n.Reason = "hall unavailable"
	body, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := c.Handle(body); err != nil {
			t.Fatalf("Handle: %v", err)
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	for _, want := range []string{"[2030-01-02T03:04:05Z] event.rejected", "event_id=12", `reason="hall unavailable"`, "actor_id=9"} {
		if !strings.Contains(lines[0], want) {
			t.Fatalf("line %q missing %q", lines[0], want)
		}
	}
}

func TestHandleRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	log := zerolog.Nop()
	c := NewAuditConsumer("amqp://unused", "", filepath.Join(t.TempDir(), "events.log"), &log)
	if err := c.Handle([]byte("{not json")); err == nil {
		t.Fatal("expected unmarshal error")
	}
	if err := c.Handle([]byte(`{"kind":""}`)); err == nil {
		t.Fatal("expected error for empty notification")
	}
}

func TestNewNotificationStampsIDAndUTC(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("IST", 5*3600+1800)
	a := NewNotification(KindApproved, 1, "t", "PUBLISHED", time.Date(2030, 1, 1, 9, 0, 0, 0, loc))
	b := NewNotification(KindApproved, 1, "t", "PUBLISHED", time.Now())
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("ids = %q, %q, want distinct non-empty", a.ID, b.ID)
	}
	if a.OccurredAt.Location() != time.UTC || a.OccurredAt.Hour() != 3 {
		t.Fatalf("OccurredAt = %v, want 03:30 UTC", a.OccurredAt)
	}
}
