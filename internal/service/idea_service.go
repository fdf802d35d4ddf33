package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/iliyamo/club-event-engine/internal/apperr"
	"github.com/iliyamo/club-event-engine/internal/lifecycle"
	"github.com/iliyamo/club-event-engine/internal/model"
	"github.com/iliyamo/club-event-engine/internal/repository"
)

// IdeaInput is a student's proposal against a topic.
type IdeaInput struct {
	Title           string
	Description     string
	ExpectedOutcome string
}

// SubmitIdea records a student idea on an open topic.  The topic row is
// locked so the per-student limit holds under concurrent submissions.
func (s *EventService) SubmitIdea(ctx context.Context, caller model.Caller, topicID uint64, in IdeaInput) (*model.Idea, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("title", "title is required")
	}
	now := s.now()
	idea := &model.Idea{
		EventID:         topicID,
		StudentID:       caller.UserID,
		Title:           title,
		Description:     strings.TrimSpace(in.Description),
		ExpectedOutcome: strings.TrimSpace(in.ExpectedOutcome),
		Status:          model.IdeaSubmitted,
	}
	err := s.store.Write(ctx, func(tx repository.Tx) error {
		topic, err := tx.Events().GetByID(ctx, topicID, true)
		if err != nil {
			return notFound(err, "topic", topicID)
		}
		if !s.policy.TopicOpen(topic, now) {
			return apperr.WithMetadata(apperr.CodeTopicClosed, "topic is not accepting ideas",
				map[string]string{"event_id": strconv.FormatUint(topicID, 10)})
		}
		n, err := tx.Ideas().CountByStudent(ctx, topicID, caller.UserID)
		if err != nil {
			return err
		}
		if n >= s.ideaLimit {
			return apperr.WithMetadata(apperr.CodeIdeaLimitReached,
				fmt.Sprintf("at most %d ideas per student per topic", s.ideaLimit),
				map[string]string{"limit": strconv.Itoa(s.ideaLimit)})
		}
		return tx.Ideas().Create(ctx, idea)
	})
	if err != nil {
		return nil, storeErr(s.log, err, "submit idea")
	}
	s.log.Info().Uint64("idea_id", idea.ID).Uint64("event_id", topicID).Uint64("student_id", caller.UserID).Msg("idea submitted")
	return idea, nil
}

// ListIdeas returns the ideas submitted to a topic, oldest first.
func (s *EventService) ListIdeas(ctx context.Context, topicID uint64) ([]model.Idea, error) {
	var out []model.Idea
	err := s.store.Read(ctx, func(tx repository.Tx) error {
		if _, err := tx.Events().GetByID(ctx, topicID, false); err != nil {
			return notFound(err, "topic", topicID)
		}
		ideas, err := tx.Ideas().ListByEvent(ctx, topicID)
		out = ideas
		return err
	})
	if err != nil {
		return nil, storeErr(s.log, err, "list ideas")
	}
	return out, nil
}

// UpdateIdeaStatus moves an idea along the review workflow.  IMPLEMENTING
// is reserved for PromoteIdea.
func (s *EventService) UpdateIdeaStatus(ctx context.Context, caller model.Caller, ideaID uint64, to model.IdeaStatus) (*model.Idea, error) {
	var out *model.Idea
	err := s.store.Write(ctx, func(tx repository.Tx) error {
		idea, err := tx.Ideas().GetByID(ctx, ideaID, true)
		if err != nil {
			return notFound(err, "idea", ideaID)
		}
		if to == model.IdeaImplementing {
			return apperr.Validation("status", "IMPLEMENTING is set by promoting the idea")
		}
		if err := lifecycle.NextIdea(idea.Status, to); err != nil {
			return err
		}
		if err := tx.Ideas().UpdateStatus(ctx, ideaID, to); err != nil {
			return err
		}
		idea.Status = to
		out = idea
		return nil
	})
	if err != nil {
		return nil, storeErr(s.log, err, "update idea status")
	}
	s.log.Info().Uint64("idea_id", ideaID).Str("status", string(to)).Uint64("reviewer_id", caller.UserID).Msg("idea status changed")
	return out, nil
}

// PromoteIdea turns an APPROVED idea into a new DRAFT event carrying the
// topic's club, type and team settings.  The idea moves to IMPLEMENTING.
// The event still needs a hall and schedule before it can be submitted.
func (s *EventService) PromoteIdea(ctx context.Context, caller model.Caller, ideaID uint64) (*model.Event, error) {
	var out *model.Event
	err := s.store.Write(ctx, func(tx repository.Tx) error {
		idea, err := tx.Ideas().GetByID(ctx, ideaID, true)
		if err != nil {
			return notFound(err, "idea", ideaID)
		}
		if err := lifecycle.NextIdea(idea.Status, model.IdeaImplementing); err != nil {
			return err
		}
		topic, err := tx.Events().GetByID(ctx, idea.EventID, false)
		if err != nil {
			return notFound(err, "topic", idea.EventID)
		}
		source := idea.ID
		e := &model.Event{
			Title:                idea.Title,
			Description:          idea.Description,
			ClubID:               topic.ClubID,
			Type:                 topic.Type,
			Location:             topic.Location,
			ImageURL:             topic.ImageURL,
			RegistrationFeeCents: topic.RegistrationFeeCents,
			IsTeamEvent:          topic.IsTeamEvent,
			MinTeamMembers:       topic.MinTeamMembers,
			MaxTeamMembers:       topic.MaxTeamMembers,
			Status:               model.EventDraft,
			ApprovalStatus:       model.ApprovalPending,
			SourceIdeaID:         &source,
			CreatedBy:            caller.UserID,
		}
		if err := tx.Events().Create(ctx, e); err != nil {
			return err
		}
		if err := tx.Ideas().UpdateStatus(ctx, ideaID, model.IdeaImplementing); err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, storeErr(s.log, err, "promote idea")
	}
	s.log.Info().Uint64("idea_id", ideaID).Uint64("event_id", out.ID).Msg("idea promoted to event")
	return out, nil
}
