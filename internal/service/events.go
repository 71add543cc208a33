package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"servicelink/internal/lifecycle"
	"servicelink/internal/model"
	"servicelink/internal/repository"

	"github.com/google/uuid"
)

// Broadcaster pushes a message to every connected websocket client.
type Broadcaster interface {
	Send(message []byte)
}

// EventDispatcher fans lifecycle events out to the activity log, the
// notification table and the websocket hub. Delivery runs off the request
// goroutine and every sink failure is logged and swallowed: a broken sink
// must never fail or roll back the transition that produced the event.
type EventDispatcher struct {
	activities    repository.ActivityRepository
	notifications repository.NotificationRepository
	hub           Broadcaster
	timeout       time.Duration
}

func NewEventDispatcher(activities repository.ActivityRepository, notifications repository.NotificationRepository, hub Broadcaster) *EventDispatcher {
	return &EventDispatcher{
		activities:    activities,
		notifications: notifications,
		hub:           hub,
		timeout:       5 * time.Second,
	}
}

func (d *EventDispatcher) Dispatch(ev lifecycle.Event) {
	go d.deliver(ev)
}

func (d *EventDispatcher) deliver(ev lifecycle.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	entry := &model.ActivityLog{
		PerformedBy: parseUserID(ev.Actor),
		Action:      ev.Action,
		RequestType: string(ev.RequestType),
		Target:      ev.Reference,
		Details:     ev.Details,
		CreatedAt:   ev.OccurredAt,
	}
	if err := d.activities.Append(ctx, entry); err != nil {
		log.Printf("activity log append failed for %s: %v", ev.Reference, err)
	}

	// Notify the requester unless they performed the change themselves.
	if recipient := parseUserID(ev.Recipient); recipient != nil && ev.Recipient != ev.Actor {
		n := &model.Notification{
			UserID:      recipient,
			Title:       eventTitle(ev),
			Message:     ev.Details,
			RequestType: string(ev.RequestType),
			Target:      ev.Reference,
		}
		if err := d.notifications.Create(ctx, n); err != nil {
			log.Printf("notification create failed for %s: %v", ev.Reference, err)
		}
	}

	if d.hub != nil {
		payload, err := json.Marshal(map[string]any{
			"action":       ev.Action,
			"request_type": ev.RequestType,
			"target":       ev.Reference,
			"details":      ev.Details,
			"occurred_at":  ev.OccurredAt.Format(time.RFC3339),
		})
		if err == nil {
			d.hub.Send(payload)
		}
	}
}

func eventTitle(ev lifecycle.Event) string {
	switch ev.Action {
	case model.ActionCreateRequest:
		return fmt.Sprintf("Request %s filed", ev.Reference)
	case model.ActionUpdateApproval:
		return fmt.Sprintf("%s on request %s", ev.Details, ev.Reference)
	case model.ActionUpdateStatus:
		return fmt.Sprintf("Request %s is now %s", ev.Reference, ev.Value)
	case model.ActionArchiveRequest:
		return fmt.Sprintf("Request %s archived", ev.Reference)
	case model.ActionRestoreRequest:
		return fmt.Sprintf("Request %s restored", ev.Reference)
	default:
		return fmt.Sprintf("Request %s updated", ev.Reference)
	}
}

func parseUserID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
