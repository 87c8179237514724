// Package sweep finds overdue borrows and nudges the borrowers. It is run on
// an external cadence (cron hitting the privileged sweep endpoint); there is
// no in-process scheduler.
package sweep

import (
	"context"
	"log"
	"time"

	"toolcabinet-backend/db"
	"toolcabinet-backend/notify"
)

const (
	OutcomeSent    = "sent"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)

// Outcome is the per-record result of one sweep.
type Outcome struct {
	BorrowID      string `json:"borrowId"`
	BorrowerName  string `json:"borrowerName"`
	EquipmentName string `json:"equipmentName"`
	HoursOverdue  int    `json:"hoursOverdue"`
	Outcome       string `json:"outcome"`
	Error         string `json:"error,omitempty"`
}

// Summary aggregates a sweep for the caller's observability.
type Summary struct {
	Checked  int       `json:"checked"`
	Sent     int       `json:"sent"`
	Skipped  int       `json:"skipped"`
	Errors   int       `json:"errors"`
	Outcomes []Outcome `json:"outcomes"`
}

type Service struct {
	repo         *db.Repo
	messenger    notify.Messenger
	overdueAfter time.Duration
	cooldown     time.Duration
}

func NewService(repo *db.Repo, messenger notify.Messenger, overdueAfter, cooldown time.Duration) *Service {
	return &Service{
		repo:         repo,
		messenger:    messenger,
		overdueAfter: overdueAfter,
		cooldown:     cooldown,
	}
}

// Run scans open borrows older than the overdue threshold and sends at most
// one reminder per cooldown window each. A failed send is reported per record
// and does not stop the rest of the sweep.
func (s *Service) Run(ctx context.Context, now time.Time) (*Summary, error) {
	overdue, err := s.repo.ListOverdueBorrows(ctx, now.Add(-s.overdueAfter))
	if err != nil {
		return nil, err
	}

	summary := &Summary{Checked: len(overdue)}
	for _, b := range overdue {
		hoursOverdue := int(now.Sub(b.BorrowedAt.Add(s.overdueAfter)).Hours())
		out := Outcome{
			BorrowID:      b.ID,
			BorrowerName:  b.BorrowerName,
			EquipmentName: b.EquipmentName,
			HoursOverdue:  hoursOverdue,
		}

		if b.LastReminderAt != nil && now.Sub(*b.LastReminderAt) < s.cooldown {
			out.Outcome = OutcomeSkipped
			summary.Skipped++
			summary.Outcomes = append(summary.Outcomes, out)
			continue
		}

		err := s.messenger.SendOverdueReminder(ctx,
			b.BorrowerPhone, b.BorrowerName, b.EquipmentName,
			b.BorrowedAt.Format("02/01/2006 15:04"), hoursOverdue, b.CityName)
		if err != nil {
			log.Printf("sweep: reminder for borrow %s: %v", b.ID, err)
			out.Outcome = OutcomeError
			out.Error = err.Error()
			summary.Errors++
			summary.Outcomes = append(summary.Outcomes, out)
			continue
		}

		if err := s.repo.StampReminder(ctx, b.ID, now); err != nil {
			// The reminder went out; a failed stamp only risks one extra
			// reminder next sweep.
			log.Printf("sweep: stamp reminder for borrow %s: %v", b.ID, err)
		}
		out.Outcome = OutcomeSent
		summary.Sent++
		summary.Outcomes = append(summary.Outcomes, out)
	}
	return summary, nil
}
