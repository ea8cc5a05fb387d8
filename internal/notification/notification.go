package notification

import "context"

// Notification is a push message for either explicit users or every member
// of a group. Usernames wins when both are set.
type Notification struct {
	Usernames []string
	GroupID   int64
	Title     string
	Body      string
	Data      map[string]string
}

// Notifier accepts notifications for asynchronous delivery. Delivery
// failures are logged and never reported to the caller.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// TokenResolver finds the device tokens a notification should reach.
type TokenResolver interface {
	TokensForUsers(ctx context.Context, usernames []string) ([]string, error)
	TokensForGroup(ctx context.Context, groupID int64) ([]string, error)
}
