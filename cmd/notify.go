package cmd

import (
	"log"
	"strings"

	"github.com/frahmantamala/tasktracker/internal/core/database"
	"github.com/frahmantamala/tasktracker/internal/notification"
	"github.com/frahmantamala/tasktracker/pkg/logger"
	"github.com/spf13/cobra"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send a push notification",
	Long:  `Send a push notification to the registered devices of users or of a whole group, for checking the push gateway configuration.`,
	Run: func(cmd *cobra.Command, args []string) {
		sendNotification()
	},
}

var (
	notifyUsers   string
	notifyGroupID int64
	notifyTitle   string
	notifyBody    string
)

func sendNotification() {
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	lg := logger.LoggerWrapper()

	if notifyUsers == "" && notifyGroupID == 0 {
		log.Fatal("either --users or --group is required")
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

	n := notification.Notification{
		GroupID: notifyGroupID,
		Title:   notifyTitle,
		Body:    notifyBody,
	}
	for _, u := range strings.Split(notifyUsers, ",") {
		if u = strings.TrimSpace(u); u != "" {
			n.Usernames = append(n.Usernames, u)
		}
	}

	dispatcher.Deliver(n)
	lg.Info("notification processed", "users", n.Usernames, "group_id", n.GroupID)
}

func init() {
	notifyCmd.Flags().StringVar(&notifyUsers, "users", "", "comma separated usernames")
	notifyCmd.Flags().Int64Var(&notifyGroupID, "group", 0, "group id whose members are notified")
	notifyCmd.Flags().StringVar(&notifyTitle, "title", "Test notification", "notification title")
	notifyCmd.Flags().StringVar(&notifyBody, "body", "Push delivery works", "notification body")

	rootCmd.AddCommand(notifyCmd)
}
