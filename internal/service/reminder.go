package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/iliyamo/club-event-engine/internal/model"
	"github.com/iliyamo/club-event-engine/internal/queue"
	"github.com/iliyamo/club-event-engine/internal/repository"
)

// DefaultReminderSchedule fires every day at 08:00 (cron with seconds).
const DefaultReminderSchedule = "0 0 8 * * *"

// ReminderJob notifies participants of events starting today.
type ReminderJob struct {
	cron     *cron.Cron
	store    repository.Store
	notifier Notifier
	log      *zerolog.Logger
	loc      *time.Location
	now      func() time.Time
}

// NewReminderJob schedules RunOnce on schedule in loc.  An empty schedule
// uses DefaultReminderSchedule.
func NewReminderJob(store repository.Store, notifier Notifier, log *zerolog.Logger, schedule string, loc *time.Location, now func() time.Time) (*ReminderJob, error) {
	if store == nil || notifier == nil || log == nil {
		panic("nil dependency passed to NewReminderJob")
	}
	if schedule == "" {
		schedule = DefaultReminderSchedule
	}
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	j := &ReminderJob{
		cron:     cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		store:    store,
		notifier: notifier,
		log:      log,
		loc:      loc,
		now:      now,
	}
	if _, err := j.cron.AddFunc(schedule, func() {
		if _, err := j.RunOnce(context.Background()); err != nil {
			j.log.Error().Err(err).Msg("reminder run failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule reminder %q: %w", schedule, err)
	}
	return j, nil
}

// Start runs the scheduler in the background.
func (j *ReminderJob) Start() {
	j.log.Info().Msg("reminder job started")
	j.cron.Start()
}

// Stop halts the scheduler and waits for a running job to finish or ctx to
// expire.
func (j *ReminderJob) Stop(ctx context.Context) {
	done := j.cron.Stop()
	select {
	case <-done.Done():
		j.log.Info().Msg("reminder job stopped")
	case <-ctx.Done():
		j.log.Warn().Msg("reminder job stop timed out")
	}
}

// RunOnce sends one reminder per REGISTERED or ATTENDED registration and
// per active team of every PUBLISHED event starting today in the job's
// location.  It returns the number of notifications handed to the sink.
func (j *ReminderJob) RunOnce(ctx context.Context) (int, error) {
	now := j.now().In(j.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, j.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	type target struct {
		event     model.Event
		recipient uint64
	}
	var targets []target
	err := j.store.Read(ctx, func(tx repository.Tx) error {
		events, err := tx.Events().List(ctx, repository.EventFilter{
			Statuses:    []model.EventStatus{model.EventPublished},
			StartFrom:   &dayStart,
			StartBefore: &dayEnd,
		})
		if err != nil {
			return err
		}
		for _, e := range events {
			regs, err := tx.Registrations().ListByEvent(ctx, e.ID)
			if err != nil {
				return err
			}
			for _, r := range regs {
				if r.Status == model.RegRegistered || r.Status == model.RegAttended {
					targets = append(targets, target{event: e, recipient: r.UserID})
				}
			}
			teams, err := tx.Teams().ListByEvent(ctx, e.ID)
			if err != nil {
				return err
			}
			for _, t := range teams {
				if t.Status == model.RegRegistered || t.Status == model.RegAttended {
					targets = append(targets, target{event: e, recipient: t.LeaderUserID})
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, storeErr(j.log, err, "reminder scan")
	}

	for _, t := range targets {
		n := queue.NewNotification(queue.KindReminder, t.event.ID, t.event.Title, string(t.event.Status), j.now())
		n.RecipientUserID = t.recipient
		if t.event.StartDateTime != nil {
			n.StartsAt = t.event.StartDateTime.UTC().Format(time.RFC3339)
		}
		emit(ctx, j.notifier, j.log, n)
	}
	j.log.Info().Int("reminders", len(targets)).Time("day", dayStart).Msg("reminders sent")
	return len(targets), nil
}
