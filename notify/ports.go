// Package notify holds the outbound collaborator ports and their default
// implementations. Everything here is a side effect: failures are logged and
// swallowed, never surfaced as request failures.
package notify

import "context"

// Pusher fans a notification out to a city's manager push subscriptions.
type Pusher interface {
	Notify(cityID, title, body, url string)
}

// Mailer delivers manager email. Both calls follow the same fire-and-forget
// contract as push.
type Mailer interface {
	NotifyManagers(ctx context.Context, managerEmail, cityName, subject string, lines []string) error
	NotifyLowStock(ctx context.Context, managerEmail, cityName string, lines []string) error
}

// Messenger sends the overdue reminder to a borrower's phone through an
// external messaging gateway.
type Messenger interface {
	SendOverdueReminder(ctx context.Context, phone, borrowerName, equipmentName, borrowDateDisplay string, hoursOverdue int, cityName string) error
}

// Throttle rate-caps repeated alerts on a shared key, so a busy cabinet does
// not mail its manager about the same low-stock item on every pickup.
type Throttle interface {
	Allow(ctx context.Context, key string) bool
}
