package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/frahmantamala/tasktracker/internal/core/database"
	"github.com/frahmantamala/tasktracker/internal/core/events"
	"github.com/frahmantamala/tasktracker/internal/notification"
	"github.com/frahmantamala/tasktracker/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish domain events through the notification handlers for testing and debugging`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish a domain event",
	Long:      `Publish task.created, task.completed, todo.converted or sop.published with the given fields and run the subscribed handlers synchronously`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{events.EventTypeTaskCreated, events.EventTypeTaskCompleted, events.EventTypeTodoConverted, events.EventTypeSOPPublished},
	Run: func(cmd *cobra.Command, args []string) {
		publishEvent(cmd.Context(), args[0])
	},
}

var (
	eventGroupID  int64
	eventEntityID int64
	eventTitle    string
	eventUser     string
	eventVersion  string
)

func buildEvent(eventType string) (events.Event, error) {
	switch eventType {
	case events.EventTypeTaskCreated:
		return events.NewTaskCreatedEvent(eventEntityID, eventGroupID, eventTitle, eventUser, "cli"), nil
	case events.EventTypeTaskCompleted:
		return events.NewTaskCompletedEvent(eventEntityID, eventGroupID, eventTitle, eventUser), nil
	case events.EventTypeTodoConverted:
		return events.NewTodoConvertedEvent(eventEntityID, 0, eventGroupID, eventTitle, eventUser), nil
	case events.EventTypeSOPPublished:
		return events.NewSOPPublishedEvent(eventEntityID, eventGroupID, eventTitle, eventVersion), nil
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
}

func publishEvent(ctx context.Context, eventType string) {
	lg := logger.LoggerWrapper()

	event, err := buildEvent(eventType)
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}
	sx, err := database.SQLX(db, cfg.Database.Driver)
	if err != nil {
		log.Fatalf("failed to share connection pool: %v", err)
	}
	defer sx.Close()

	dispatcher := notification.NewDispatcher(notification.Config{
		PushURL:    cfg.Notification.PushURL,
		APIKey:     cfg.Notification.APIKey,
		Timeout:    cfg.Notification.Timeout,
		MaxWorkers: 1,
		QueueSize:  1,
	}, notification.NewTokenStore(sx), lg)
	defer dispatcher.Shutdown()

	bus := events.NewEventBus(lg)
	notification.NewEventHandlers(notification.Synchronous{Dispatcher: dispatcher}, lg).Subscribe(bus)
	bus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		lg.Info("event received",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	lg.Info("publishing event", "event_type", eventType, "event_id", event.EventID())
	if err := bus.PublishSync(ctx, event); err != nil {
		lg.Error("failed to publish event", "error", err)
		return
	}
	lg.Info("event published successfully")
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventGroupID, "group", 0, "group id")
	publishEventCmd.Flags().Int64Var(&eventEntityID, "id", 0, "task, todo or sop id")
	publishEventCmd.Flags().StringVar(&eventTitle, "title", "Test", "task, todo or sop title")
	publishEventCmd.Flags().StringVar(&eventUser, "user", "", "assignee or completer")
	publishEventCmd.Flags().StringVar(&eventVersion, "version", "v1", "sop version")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
