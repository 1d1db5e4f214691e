package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hoffination/open-social-server/internal/model"
	"github.com/hoffination/open-social-server/internal/pkg"
)

// NotifyService stores notifications and mirrors them onto the delivery
// stream. Stream failures are logged and swallowed; the stored row is the
// source of truth.
type NotifyService struct {
	notes NoteStore
	pub   Publisher
	log   *logrus.Logger
}

func NewNotifyService(notes NoteStore, pub Publisher, log *logrus.Logger) *NotifyService {
	return &NotifyService{notes: notes, pub: pub, log: log}
}

type notePayload struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
	Item string `json:"item"`
	Time int64  `json:"time"`
}

// Notify records one notification unless the recipient already has an unread
// copy with the same type and item.
func (s *NotifyService) Notify(ctx context.Context, from, to, noteType, itemID string) error {
	count, err := s.notes.CountUnviewed(ctx, to, noteType, itemID)
	if err != nil {
		return pkg.WrapError(pkg.EXCEPTION, "checking existing notifications", err)
	}
	if count > 0 {
		return nil
	}
	note := &model.Notification{
		ID:    uuid.NewString(),
		User1: from,
		User2: to,
		Item:  itemID,
		Type:  noteType,
		Time:  time.Now().UnixMilli(),
	}
	if err := s.notes.Insert(ctx, note); err != nil {
		return pkg.WrapError(pkg.EXCEPTION, "storing notification", err)
	}
	if s.pub != nil {
		payload, _ := json.Marshal(notePayload{
			ID: note.ID, From: from, To: to, Type: noteType, Item: itemID, Time: note.Time,
		})
		if err := s.pub.Send(ctx, to, payload); err != nil {
			s.log.WithFields(logrus.Fields{
				"user": to,
				"type": noteType,
			}).WithError(err).Warn("notification publish failed")
		}
	}
	return nil
}

func (s *NotifyService) ClearRally(ctx context.Context, userID, rallyID string) error {
	return s.notes.ClearRallyNotes(ctx, userID, rallyID)
}

func (s *NotifyService) DropItem(ctx context.Context, itemID string) error {
	return s.notes.DeleteForItem(ctx, itemID)
}
