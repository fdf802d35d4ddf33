package registration

import (
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/club-event-engine/internal/apperr"
	"github.com/iliyamo/club-event-engine/internal/model"
)

func u32(v uint32) *uint32 { return &v }

func members(rolls ...string) []model.TeamMember {
	out := make([]model.TeamMember, len(rolls))
	for i, r := range rolls {
		out[i] = model.TeamMember{Name: "m" + r, Email: r + "@campus.edu", RollNumber: r}
	}
	return out
}

func TestCheckTeamSizeNamesBound(t *testing.T) {
	t.Parallel()

	e := &model.Event{IsTeamEvent: true, MinTeamMembers: u32(3), MaxTeamMembers: u32(5)}
	for size, bound := range map[int]string{2: "min", 6: "max"} {
		err := CheckTeamSize(e, size)
		var ae *apperr.Error
		if !errors.As(err, &ae) || ae.Code != apperr.CodeInvalidTeamSize {
			t.Fatalf("size %d: err = %v, want InvalidTeamSize", size, err)
		}
		if ae.Metadata["bound"] != bound {
			t.Fatalf("size %d: bound = %q, want %q", size, ae.Metadata["bound"], bound)
		}
	}
	for _, size := range []int{3, 4, 5} {
		if err := CheckTeamSize(e, size); err != nil {
			t.Fatalf("size %d: %v", size, err)
		}
	}
}

func TestCheckRollNumbersIsCaseInsensitiveAndTrimmed(t *testing.T) {
	t.Parallel()

	if err := CheckRollNumbers(members("21BCS001", " 21bcs001 "), nil); apperr.CodeOf(err) != apperr.CodeDuplicateRollNumber {
		t.Fatalf("in-team duplicate err = %v", err)
	}
	err := CheckRollNumbers(members("21BCS009", "21BCS010"), []string{"21bcs010"})
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Code != apperr.CodeDuplicateRollNumber {
		t.Fatalf("cross-team duplicate err = %v", err)
	}
	if ae.Metadata["roll_number"] != "21BCS010" || ae.Metadata["scope"] != "event" {
		t.Fatalf("metadata = %v", ae.Metadata)
	}
	if err := CheckRollNumbers(members("A1", "A2", "A3"), []string{"B1"}); err != nil {
		t.Fatalf("distinct rolls: %v", err)
	}
	if err := CheckRollNumbers(members("A1", "  "), nil); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("blank roll err = %v", err)
	}
}

func TestCheckOpen(t *testing.T) {
	t.Parallel()

	now := time.Date(2030, 2, 1, 10, 0, 0, 0, time.UTC)
	start := now.Add(48 * time.Hour)
	deadline := now.Add(time.Hour)
	e := &model.Event{Status: model.EventPublished, StartDateTime: &start, RegistrationDeadline: &deadline}

	if err := CheckOpen(e, now); err != nil {
		t.Fatalf("open event: %v", err)
	}
	if err := CheckOpen(e, deadline); apperr.CodeOf(err) != apperr.CodeEventNotOpen {
		t.Fatalf("at deadline err = %v", err)
	}
	e.RegistrationDeadline = nil
	if err := CheckOpen(e, start.Add(-time.Minute)); err != nil {
		t.Fatalf("before start: %v", err)
	}
	if err := CheckOpen(e, start); apperr.CodeOf(err) != apperr.CodeEventNotOpen {
		t.Fatalf("at start err = %v", err)
	}
	e.Status = model.EventPendingApproval
	if err := CheckOpen(e, now); apperr.CodeOf(err) != apperr.CodeEventNotOpen {
		t.Fatalf("pending event err = %v", err)
	}
}

func TestCheckMode(t *testing.T) {
	t.Parallel()

	team := &model.Event{IsTeamEvent: true}
	if err := CheckMode(team, false); apperr.CodeOf(err) != apperr.CodeWrongEventMode {
		t.Fatalf("individual on team event err = %v", err)
	}
	if err := CheckMode(&model.Event{}, true); apperr.CodeOf(err) != apperr.CodeWrongEventMode {
		t.Fatalf("team on individual event err = %v", err)
	}
	if err := CheckMode(team, true); err != nil {
		t.Fatalf("team on team event: %v", err)
	}
}

func TestCheckCapacity(t *testing.T) {
	t.Parallel()

	e := &model.Event{MaxParticipants: u32(10)}
	if err := CheckCapacity(e, 7, 3); err != nil {
		t.Fatalf("exactly full: %v", err)
	}
	if err := CheckCapacity(e, 8, 3); apperr.CodeOf(err) != apperr.CodeEventFull {
		t.Fatalf("over capacity err = %v", err)
	}
	if err := CheckCapacity(&model.Event{}, 1000, 1); err != nil {
		t.Fatalf("unlimited: %v", err)
	}
}

func TestCountDerivesFromRecords(t *testing.T) {
	t.Parallel()

	regs := []model.Registration{
		{Status: model.RegRegistered},
		{Status: model.RegAttended},
		{Status: model.RegNoShow},
		{Status: model.RegCancelled},
		{Status: model.RegWithdrawn},
	}
	teams := []model.TeamRegistration{
		{Status: model.RegRegistered, Members: members("a", "b", "c")},
		{Status: model.RegCancelled, Members: members("d", "e")},
	}
	if got := Count(regs, teams); got != 6 {
		t.Fatalf("Count = %d, want 6", got)
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	s := Summarize(&model.Event{ID: 1, MaxParticipants: u32(4)}, 4)
	if !s.Full || *s.Remaining != 0 {
		t.Fatalf("summary = %+v", s)
	}
	s = Summarize(&model.Event{ID: 1}, 9)
	if s.Full || s.Remaining != nil {
		t.Fatalf("unlimited summary = %+v", s)
	}
}

func TestPaymentAndAttendance(t *testing.T) {
	t.Parallel()

	if PaymentFor(0) != model.PaymentNotRequired || PaymentFor(500) != model.PaymentPending {
		t.Fatal("unexpected payment status")
	}
	if AttendanceStatus(true) != model.RegAttended || AttendanceStatus(false) != model.RegNoShow {
		t.Fatal("unexpected attendance mapping")
	}
	if CanRecordAttendance(model.RegWithdrawn) || !CanRecordAttendance(model.RegNoShow) {
		t.Fatal("unexpected attendance guard")
	}
}
