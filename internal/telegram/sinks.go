package telegram

import (
	"context"

	"complaintbot/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DeliverModeration shows a pending record to the administrator: the
// subject's photo, the review text with the action keyboard, then every
// attachment.
func (c *Client) DeliverModeration(ctx context.Context, view models.ModerationView) error {
	rec := view.Record
	if rec.PhotoFileID != "" {
		photo := tgbotapi.NewPhoto(view.AdminID, tgbotapi.FileID(rec.PhotoFileID))
		if err := c.send(ctx, photo); err != nil {
			// Фото не критичне: адміністратор все одно отримає текст.
			c.log.Warn("moderation photo failed", zap.String("record_id", rec.ID), zap.Error(err))
		}
	}

	msg := tgbotapi.NewMessage(view.AdminID, clip(c.r.Moderation(view), maxMessageRunes))
	msg.ReplyMarkup = Keyboard(view.Choices, 2)
	if err := c.send(ctx, msg); err != nil {
		return errors.Wrapf(err, "deliver moderation view of %s", rec.ID)
	}

	if len(rec.Attachments) > 0 {
		header := tgbotapi.NewMessage(view.AdminID, c.r.T("admin_attachments", len(rec.Attachments)))
		if err := c.send(ctx, header); err != nil {
			return errors.Wrapf(err, "deliver attachments header of %s", rec.ID)
		}
	}
	return c.sendAttachments(ctx, view.AdminID, rec.ID, rec.Attachments, true)
}

// Publish posts an approved record to the channel with an objection link.
func (c *Client) Publish(ctx context.Context, view models.PublicView) error {
	rec := view.Record
	if rec.PhotoFileID != "" {
		photo := tgbotapi.NewPhoto(c.ChannelID, tgbotapi.FileID(rec.PhotoFileID))
		if err := c.send(ctx, photo); err != nil {
			// Запис уже вилучено з черги, тому пост виходить і без фото.
			c.log.Warn("public photo failed", zap.String("record_id", view.RecordID), zap.Error(err))
		}
	}

	msg := tgbotapi.NewMessage(c.ChannelID, clip(c.r.Public(view), maxMessageRunes))
	if view.ObjectionURL != "" {
		msg.ReplyMarkup = Keyboard(models.ChoiceSet{
			{Label: c.r.T("btn_objection"), URL: view.ObjectionURL},
		}, 1)
	}
	if err := c.send(ctx, msg); err != nil {
		return errors.Wrapf(err, "publish %s", view.RecordID)
	}
	return c.sendAttachments(ctx, c.ChannelID, view.RecordID, rec.Attachments, false)
}

// Notify sends a plain message to a reporter.
func (c *Client) Notify(ctx context.Context, reporterID int64, message string) error {
	msg := tgbotapi.NewMessage(reporterID, clip(message, maxMessageRunes))
	return errors.Wrapf(c.send(ctx, msg), "notify reporter")
}

// sendAttachments forwards files one message each. Reporter captions are
// kept only for the administrator. A failed file does not stop the rest;
// the failures come back combined.
func (c *Client) sendAttachments(ctx context.Context, chatID int64, recordID string, files models.Attachments, captions bool) error {
	var errs error
	for i, a := range files {
		caption := ""
		if captions {
			caption = a.Caption
		}
		var msg tgbotapi.Chattable
		switch a.Kind {
		case models.AttachmentPhoto:
			m := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(a.FileID))
			m.Caption = caption
			msg = m
		case models.AttachmentVideo:
			m := tgbotapi.NewVideo(chatID, tgbotapi.FileID(a.FileID))
			m.Caption = caption
			msg = m
		case models.AttachmentDocument:
			m := tgbotapi.NewDocument(chatID, tgbotapi.FileID(a.FileID))
			m.Caption = caption
			msg = m
		default:
			continue
		}
		if err := c.send(ctx, msg); err != nil {
			c.log.Warn("attachment delivery failed",
				zap.String("record_id", recordID),
				zap.Int("attachment", i+1),
				zap.Error(err),
			)
			errs = multierr.Append(errs, errors.Wrapf(err, "send attachment %d of %s", i+1, recordID))
		}
	}
	return errs
}
