// Package complaint routes inbound events to the intake state machine or the
// moderation workflow and answers the menu commands itself.
package complaint

import (
	"context"
	"strings"

	"complaintbot/backend/internal/intake"
	"complaintbot/backend/internal/metrics"
	"complaintbot/backend/internal/models"
	"complaintbot/backend/internal/moderation"
	"complaintbot/backend/internal/render"

	"go.uber.org/zap"
)

// Commands understood by the bot.
const (
	CmdStart  = "start"
	CmdNew    = "new"
	CmdDrafts = "drafts"
	CmdDraft  = "draft"
	CmdHelp   = "help"
	CmdInfo   = "info"
)

// Service handles the business logic for complaints.
type Service struct {
	Intake     *intake.Machine
	Moderation *moderation.Workflow
	r          *render.Renderer
	log        *zap.Logger
}

// NewService creates a new complaint service.
func NewService(in *intake.Machine, mod *moderation.Workflow, r *render.Renderer, log *zap.Logger) *Service {
	return &Service{Intake: in, Moderation: mod, r: r, log: log}
}

// Handle processes one event and returns the prompts to send.
func (s *Service) Handle(ctx context.Context, ev models.Event) models.Outcome {
	out := s.route(ctx, ev)
	metrics.EventsTotal.WithLabelValues(string(ev.Kind), out.Kind.String()).Inc()
	if out.Err != nil {
		s.log.Debug("event not applied",
			zap.Int64("actor_id", ev.ActorID),
			zap.String("kind", string(ev.Kind)),
			zap.Stringer("outcome", out.Kind),
			zap.Error(out.Err),
		)
	}
	return out
}

func (s *Service) route(ctx context.Context, ev models.Event) models.Outcome {
	switch ev.Kind {
	case models.EventCommand:
		return s.command(ctx, ev)
	case models.EventSelection:
		return s.selection(ctx, ev)
	}

	// Administrator text belongs to moderation only while an action waits for it.
	if ev.ActorID == s.Moderation.AdminID() && s.Moderation.HasContext(ev.ActorID) {
		return s.Moderation.HandleText(ctx, ev)
	}
	return s.Intake.Handle(ctx, ev)
}

func (s *Service) command(ctx context.Context, ev models.Event) models.Outcome {
	switch strings.ToLower(ev.Text) {
	case CmdStart:
		return models.OK(s.Menu(ev.ActorID))
	case CmdNew:
		return s.Intake.Start(ctx, ev.ActorID)
	case CmdDrafts:
		return s.Intake.ShowDrafts(ctx, ev.ActorID)
	case CmdDraft:
		return s.Intake.SaveDraft(ctx, ev.ActorID)
	case CmdInfo:
		return models.OK(s.text(ev.ActorID, "info_text"))
	}
	return models.OK(s.text(ev.ActorID, "help_text"))
}

func (s *Service) selection(ctx context.Context, ev models.Event) models.Outcome {
	switch ev.Choice {
	case intake.ChoiceMenuNew:
		return s.Intake.Start(ctx, ev.ActorID)
	case intake.ChoiceMenuDrafts:
		return s.Intake.ShowDrafts(ctx, ev.ActorID)
	case intake.ChoiceMenuInfo:
		return models.OK(s.text(ev.ActorID, "info_text"))
	case intake.ChoiceMenuHelp:
		return models.OK(s.text(ev.ActorID, "help_text"))
	case intake.ChoiceDraftContinue:
		return s.Intake.ResumeDraft(ctx, ev.ActorID)
	case intake.ChoiceDraftDelete:
		return s.Intake.DiscardDraft(ctx, ev.ActorID)
	}
	if moderation.IsAction(ev.Choice) {
		return s.Moderation.HandleAction(ctx, ev)
	}
	return s.Intake.Handle(ctx, ev)
}

// Menu is the welcome message with the main menu.
func (s *Service) Menu(target int64) models.Prompt {
	return models.Prompt{
		TargetID: target,
		Message:  s.r.T("welcome"),
		Choices: models.ChoiceSet{
			{ID: intake.ChoiceMenuNew, Label: s.r.T("menu_new")},
			{ID: intake.ChoiceMenuDrafts, Label: s.r.T("menu_drafts")},
			{ID: intake.ChoiceMenuInfo, Label: s.r.T("menu_info")},
			{ID: intake.ChoiceMenuHelp, Label: s.r.T("menu_help")},
		},
		Columns: 2,
	}
}

func (s *Service) text(target int64, key string) models.Prompt {
	return models.Prompt{TargetID: target, Message: s.r.T(key)}
}
