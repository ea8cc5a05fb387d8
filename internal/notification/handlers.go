package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/frahmantamala/tasktracker/internal/core/events"
)

type EventHandlers struct {
	notifier Notifier
	logger   *slog.Logger
}

func NewEventHandlers(notifier Notifier, logger *slog.Logger) *EventHandlers {
	return &EventHandlers{notifier: notifier, logger: logger}
}

// Subscribe registers the handlers that turn domain events into pushes.
func (h *EventHandlers) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeTaskCreated, h.HandleTaskCreated)
	bus.Subscribe(events.EventTypeTodoConverted, h.HandleTodoConverted)
	bus.Subscribe(events.EventTypeSOPPublished, h.HandleSOPPublished)
}

func (h *EventHandlers) HandleTaskCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.TaskCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T for %s", event, event.EventType())
	}

	n := Notification{
		GroupID: e.GroupID,
		Title:   "New task",
		Body:    e.Title,
		Data: map[string]string{
			"task_id":  strconv.FormatInt(e.TaskID, 10),
			"group_id": strconv.FormatInt(e.GroupID, 10),
		},
	}
	if e.AssignedTo != "" {
		n.Usernames = []string{e.AssignedTo}
		n.Body = fmt.Sprintf("%s assigned you: %s", e.CreatedBy, e.Title)
	}

	h.logger.Debug("queueing task notification", "task_id", e.TaskID, "assigned_to", e.AssignedTo)
	h.notifier.Notify(ctx, n)
	return nil
}

func (h *EventHandlers) HandleTodoConverted(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.TodoConvertedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T for %s", event, event.EventType())
	}

	h.notifier.Notify(ctx, Notification{
		Usernames: []string{e.AssignedTo},
		Title:     "New task",
		Body:      e.Title,
		Data: map[string]string{
			"todo_id":    strconv.FormatInt(e.TodoID, 10),
			"project_id": strconv.FormatInt(e.ProjectID, 10),
		},
	})
	return nil
}

func (h *EventHandlers) HandleSOPPublished(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.SOPPublishedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T for %s", event, event.EventType())
	}

	h.notifier.Notify(ctx, Notification{
		GroupID: e.GroupID,
		Title:   "New SOP version",
		Body:    fmt.Sprintf("%s %s needs your agreement", e.Title, e.Version),
		Data: map[string]string{
			"sop_id": strconv.FormatInt(e.SOPID, 10),
		},
	})
	return nil
}
