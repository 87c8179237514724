package sweep

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"toolcabinet-backend/db"
	"toolcabinet-backend/models"
)

type recordedReminder struct {
	Phone         string
	EquipmentName string
	HoursOverdue  int
}

type fakeMessenger struct {
	sent    []recordedReminder
	failFor string
}

func (m *fakeMessenger) SendOverdueReminder(_ context.Context, phone, _, equipmentName, _ string, hoursOverdue int, _ string) error {
	if m.failFor != "" && m.failFor == equipmentName {
		return fmt.Errorf("gateway down")
	}
	m.sent = append(m.sent, recordedReminder{Phone: phone, EquipmentName: equipmentName, HoursOverdue: hoursOverdue})
	return nil
}

func newTestRepo(t *testing.T) *db.Repo {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	return db.NewRepo(conn)
}

func seedBorrow(t *testing.T, r *db.Repo, name string, borrowedAt time.Time) *models.BorrowRecord {
	t.Helper()
	b := &models.BorrowRecord{
		ID:              uuid.NewString(),
		CityID:          uuid.NewString(),
		CityName:        "Testville",
		BorrowerName:    "Dana",
		BorrowerPhone:   "0521234567",
		NormalizedPhone: "0521234567",
		EquipmentName:   name,
		Quantity:        1,
		Status:          models.BorrowBorrowed,
		BorrowedAt:      borrowedAt,
	}
	require.NoError(t, r.DB.Create(b).Error)
	return b
}

func TestRunSendsAndStamps(t *testing.T) {
	r := newTestRepo(t)
	m := &fakeMessenger{}
	svc := NewService(r, m, 24*time.Hour, 24*time.Hour)
	now := time.Now().UTC()

	overdue := seedBorrow(t, r, "generator", now.Add(-25*time.Hour))
	seedBorrow(t, r, "flashlight", now.Add(-2*time.Hour)) // not overdue yet

	summary, err := svc.Run(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Checked)
	assert.Equal(t, 1, summary.Sent)
	assert.Zero(t, summary.Skipped)
	require.Len(t, m.sent, 1)
	assert.Equal(t, "generator", m.sent[0].EquipmentName)
	assert.Equal(t, 1, m.sent[0].HoursOverdue)

	var loaded models.BorrowRecord
	require.NoError(t, r.DB.First(&loaded, "id = ?", overdue.ID).Error)
	require.NotNil(t, loaded.LastReminderAt)
	assert.WithinDuration(t, now, *loaded.LastReminderAt, time.Second)
}

func TestRunRespectsCooldown(t *testing.T) {
	r := newTestRepo(t)
	m := &fakeMessenger{}
	svc := NewService(r, m, 24*time.Hour, 24*time.Hour)
	now := time.Now().UTC()
	seedBorrow(t, r, "generator", now.Add(-30*time.Hour))

	_, err := svc.Run(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, m.sent, 1)

	// A second sweep an hour later stays quiet.
	summary, err := svc.Run(context.Background(), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Sent)
	assert.Len(t, m.sent, 1)

	// Once the cooldown has passed the reminder goes out again.
	summary, err = svc.Run(context.Background(), now.Add(25*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)
	assert.Len(t, m.sent, 2)
}

func TestRunContinuesPastSendFailure(t *testing.T) {
	r := newTestRepo(t)
	m := &fakeMessenger{failFor: "generator"}
	svc := NewService(r, m, 24*time.Hour, 24*time.Hour)
	now := time.Now().UTC()

	failing := seedBorrow(t, r, "generator", now.Add(-26*time.Hour))
	seedBorrow(t, r, "flashlight", now.Add(-25*time.Hour))

	summary, err := svc.Run(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Checked)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, summary.Errors)
	require.Len(t, m.sent, 1)
	assert.Equal(t, "flashlight", m.sent[0].EquipmentName)

	// The failed record keeps no stamp, so the next sweep retries it.
	var loaded models.BorrowRecord
	require.NoError(t, r.DB.First(&loaded, "id = ?", failing.ID).Error)
	assert.Nil(t, loaded.LastReminderAt)
}

func TestRunIgnoresReturnedLoans(t *testing.T) {
	r := newTestRepo(t)
	m := &fakeMessenger{}
	svc := NewService(r, m, 24*time.Hour, 24*time.Hour)
	now := time.Now().UTC()

	b := seedBorrow(t, r, "generator", now.Add(-48*time.Hour))
	require.NoError(t, r.DB.Model(b).Update("status", models.BorrowReturned).Error)

	summary, err := svc.Run(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, summary.Checked)
	assert.Empty(t, m.sent)
}
