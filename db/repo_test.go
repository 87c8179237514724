package db

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

	"toolcabinet-backend/apperr"
	"toolcabinet-backend/models"
	"toolcabinet-backend/token"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(conn))
	return NewRepo(conn)
}

func seedCity(t *testing.T, r *Repo, mutate ...func(*models.City)) *models.City {
	t.Helper()
	c := &models.City{
		ID:           uuid.NewString(),
		Name:         "Testville " + uuid.NewString()[:8],
		Active:       true,
		Mode:         models.CityModeRequest,
		ManagerEmail: "manager@example.org",
		ManagerKey:   "s3cret",
	}
	for _, m := range mutate {
		m(c)
	}
	require.NoError(t, r.DB.Create(c).Error)
	return c
}

func seedStock(t *testing.T, r *Repo, cityID, name string, qty int, mutate ...func(*models.EquipmentStock)) *models.EquipmentStock {
	t.Helper()
	s := &models.EquipmentStock{
		ID:       uuid.NewString(),
		CityID:   cityID,
		Name:     name,
		Quantity: qty,
		Working:  true,
	}
	for _, m := range mutate {
		m(s)
	}
	require.NoError(t, r.DB.Create(s).Error)
	return s
}

func seedRequest(t *testing.T, r *Repo, city *models.City, stock *models.EquipmentStock, qty int) (*models.EquipmentRequest, string) {
	t.Helper()
	raw, hash, expiresAt := token.Issue(30 * time.Minute)
	req := &models.EquipmentRequest{
		ID:             uuid.NewString(),
		CityID:         city.ID,
		RequesterName:  "Dana",
		RequesterPhone: "+972-52-123-4567",
		TokenHash:      hash,
		ExpiresAt:      expiresAt,
		Status:         models.RequestPending,
	}
	items := []models.RequestItem{{StockID: stock.ID, Quantity: qty}}
	require.NoError(t, r.CreateRequestWithItems(context.Background(), req, items))
	return req, raw
}

func stockQty(t *testing.T, r *Repo, id string) int {
	t.Helper()
	var s models.EquipmentStock
	require.NoError(t, r.DB.First(&s, "id = ?", id).Error)
	return s.Quantity
}

func TestCreateRequestLeavesStockUntouched(t *testing.T) {
	r := newTestRepo(t)
	city := seedCity(t, r)
	stock := seedStock(t, r, city.ID, "generator", 5)

	req, _ := seedRequest(t, r, city, stock, 2)

	assert.Equal(t, 5, stockQty(t, r, stock.ID))
	loaded, err := r.FindRequestByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, loaded.Status)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, 2, loaded.Items[0].Quantity)
}

func TestFindRequestByTokenHash(t *testing.T) {
	r := newTestRepo(t)
	city := seedCity(t, r)
	stock := seedStock(t, r, city.ID, "generator", 5)
	req, raw := seedRequest(t, r, city, stock, 1)

	loaded, err := r.FindRequestByTokenHash(context.Background(), token.Hash(raw))
	require.NoError(t, err)
	assert.Equal(t, req.ID, loaded.ID)

	_, err = r.FindRequestByTokenHash(context.Background(), token.Hash("wrong"))
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindNotFound, e.Kind)
}

func TestApproveOnlyFromPending(t *testing.T) {
	r := newTestRepo(t)
	city := seedCity(t, r)
	stock := seedStock(t, r, city.ID, "generator", 5)
	req, _ := seedRequest(t, r, city, stock, 1)
	now := time.Now().UTC()

	require.NoError(t, r.ApproveRequest(context.Background(), req.ID, now))

	// Second approval loses the status guard.
	err := r.ApproveRequest(context.Background(), req.ID, now)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindInvalidState, e.Kind)

	// So does rejecting an approved request.
	err = r.RejectRequest(context.Background(), req.ID, now)
	_, ok = apperr.As(err)
	assert.True(t, ok)
}

func TestCancelOnlyFromPending(t *testing.T) {
	r := newTestRepo(t)
	city := seedCity(t, r)
	stock := seedStock(t, r, city.ID, "generator", 5)
	req, _ := seedRequest(t, r, city, stock, 1)
	now := time.Now().UTC()

	require.NoError(t, r.CancelRequest(context.Background(), req.ID, now))
	err := r.CancelRequest(context.Background(), req.ID, now)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindInvalidState, e.Kind)
}

func TestExtendPushesExpiryForward(t *testing.T) {
	r := newTestRepo(t)
	city := seedCity(t, r)
	stock := seedStock(t, r, city.ID, "generator", 5)
	req, _ := seedRequest(t, r, city, stock, 1)

	// Force the request past its window; extend is exactly for this case.
	past := time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, r.DB.Model(&models.EquipmentRequest{}).
		Where("id = ?", req.ID).Update("expires_at", past).Error)

	now := time.Now().UTC()
	newExpiry, err := r.ExtendRequest(context.Background(), req.ID, now, time.Hour)
	require.NoError(t, err)
	assert.True(t, newExpiry.After(now))

	loaded, err := r.FindRequestByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, EffectiveStatus(loaded, now))
}

func TestExtendRefusesClosedRequest(t *testing.T) {
	r := newTestRepo(t)
	city := seedCity(t, r)
	stock := seedStock(t, r, city.ID, "generator", 5)
	req, _ := seedRequest(t, r, city, stock, 1)
	now := time.Now().UTC()

	require.NoError(t, r.RejectRequest(context.Background(), req.ID, now))
	_, err := r.ExtendRequest(context.Background(), req.ID, now, time.Hour)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindInvalidState, e.Kind)
}

func TestConfirmPickupHappyPath(t *testing.T) {
	r := newTestRepo(t)
	city := seedCity(t, r)
	stock := seedStock(t, r, city.ID, "generator", 5)
	req, raw := seedRequest(t, r, city, stock, 2)
	now := time.Now().UTC()
	require.NoError(t, r.ApproveRequest(context.Background(), req.ID, now))

	result, err := r.ConfirmPickup(context.Background(), raw, "data:image/png;base64,sig", now)
	require.NoError(t, err)

	assert.Equal(t, 3, stockQty(t, r, stock.ID))
	assert.Equal(t, models.RequestPickedUp, result.Request.Status)
	require.Len(t, result.Borrows, 1)
	b := result.Borrows[0]
	assert.Equal(t, models.BorrowBorrowed, b.Status)
	assert.Equal(t, "generator", b.EquipmentName)
	assert.Equal(t, 2, b.Quantity)
	assert.Equal(t, "0521234567", b.NormalizedPhone)
	require.NotNil(t, b.RequestID)
	assert.Equal(t, req.ID, *b.RequestID)
}

func TestConfirmPickupReplayRejected(t *testing.T) {
	r := newTestRepo(t)
	city := seedCity(t, r)
	stock := seedStock(t, r, city.ID, "generator", 5)
	req, raw := seedRequest(t, r, city, stock, 2)
	now := time.Now().UTC()
	require.NoError(t, r.ApproveRequest(context.Background(), req.ID, now))

	_, err := r.ConfirmPickup(context.Background(), raw, "sig", now)
	require.NoError(t, err)

	// The same token a second time must not decrement anything again.
	_, err = r.ConfirmPickup(context.Background(), raw, "sig", now)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindInvalidState, e.Kind)
	assert.Equal(t, 3, stockQty(t, r, stock.ID))

	var borrowCount int64
	require.NoError(t, r.DB.Model(&models.BorrowRecord{}).Count(&borrowCount).Error)
	assert.EqualValues(t, 1, borrowCount)
}

func TestConfirmPickupRequiresApproval(t *testing.T) {
	r := newTestRepo(t)
	city := seedCity(t, r)
	stock := seedStock(t, r, city.ID, "generator", 5)
	_, raw := seedRequest(t, r, city, stock, 1)
	now := time.Now().UTC()

	_, err := r.ConfirmPickup(context.Background(), raw, "sig", now)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindInvalidState, e.Kind)
	assert.Equal(t, 5, stockQty(t, r, stock.ID))
}

func TestConfirmPickupExpiredToken(t *testing.T) {
	r := newTestRepo(t)
	city := seedCity(t, r)
	stock := seedStock(t, r, city.ID, "generator", 5)
	req, raw := seedRequest(t, r, city, stock, 1)
	now := time.Now().UTC()
	require.NoError(t, r.ApproveRequest(context.Background(), req.ID, now))

	_, err := r.ConfirmPickup(context.Background(), raw, "sig", now.Add(31*time.Minute))
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindInvalidState, e.Kind)
	assert.Equal(t, 5, stockQty(t, r, stock.ID))
}

func TestConfirmPickupRequiresSignature(t *testing.T) {
	r := newTestRepo(t)

	_, err := r.ConfirmPickup(context.Background(), "whatever", "", time.Now().UTC())
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, e.Kind)
}

func TestConfirmPickupStockDriftAborts(t *testing.T) {
	r := newTestRepo(t)
	city := seedCity(t, r)
	stock := seedStock(t, r, city.ID, "generator", 5)
	req, raw := seedRequest(t, r, city, stock, 3)
	now := time.Now().UTC()
	require.NoError(t, r.ApproveRequest(context.Background(), req.ID, now))

	// Someone else drained the shelf between approval and pickup.
	require.NoError(t, r.DB.Model(&models.EquipmentStock{}).
		Where("id = ?", stock.ID).Update("quantity", 2).Error)

	_, err := r.ConfirmPickup(context.Background(), raw, "sig", now)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindInsufficientStock, e.Kind)

	// The whole confirmation rolled back: no decrement, no borrows, and the
	// request is still approved so a manager can sort it out.
	assert.Equal(t, 2, stockQty(t, r, stock.ID))
	var borrowCount int64
	require.NoError(t, r.DB.Model(&models.BorrowRecord{}).Count(&borrowCount).Error)
	assert.Zero(t, borrowCount)
	loaded, err := r.FindRequestByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, loaded.Status)
}

func TestReturnBorrowRestoresStock(t *testing.T) {
	r := newTestRepo(t)
	city := seedCity(t, r)
	stock := seedStock(t, r, city.ID, "generator", 5)
	req, raw := seedRequest(t, r, city, stock, 2)
	now := time.Now().UTC()
	require.NoError(t, r.ApproveRequest(context.Background(), req.ID, now))
	result, err := r.ConfirmPickup(context.Background(), raw, "sig", now)
	require.NoError(t, err)
	require.Equal(t, 3, stockQty(t, r, stock.ID))

	borrowID := result.Borrows[0].ID
	returned, err := r.ReturnBorrow(context.Background(), borrowID, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.BorrowReturned, returned.Status)
	require.NotNil(t, returned.ReturnedAt)
	assert.Equal(t, 5, stockQty(t, r, stock.ID))

	// A second return must not double the increment.
	_, err = r.ReturnBorrow(context.Background(), borrowID, now.Add(2*time.Hour))
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindInvalidState, e.Kind)
	assert.Equal(t, 5, stockQty(t, r, stock.ID))
}

func TestFindOpenBorrowsByPhoneMatchesVariants(t *testing.T) {
	r := newTestRepo(t)
	city := seedCity(t, r)
	stock := seedStock(t, r, city.ID, "generator", 5)
	req, raw := seedRequest(t, r, city, stock, 1)
	old := time.Now().UTC().Add(-30 * time.Hour)
	require.NoError(t, r.ApproveRequest(context.Background(), req.ID, old))
	_, err := r.ConfirmPickup(context.Background(), raw, "sig", old)
	require.NoError(t, err)

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	for _, variant := range []string{"0521234567", "+972521234567", "972 52 123 4567"} {
		rows, err := r.FindOpenBorrowsByPhone(context.Background(), variant, cutoff)
		require.NoError(t, err)
		assert.Len(t, rows, 1, "variant %q", variant)
	}

	// Fresh loans are not overdue yet.
	rows, err := r.FindOpenBorrowsByPhone(context.Background(), "0521234567", old.Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestStampReminderMonotonic(t *testing.T) {
	r := newTestRepo(t)
	city := seedCity(t, r)
	b := models.BorrowRecord{
		ID:              uuid.NewString(),
		CityID:          city.ID,
		CityName:        city.Name,
		BorrowerName:    "Dana",
		BorrowerPhone:   "0521234567",
		NormalizedPhone: "0521234567",
		EquipmentName:   "generator",
		Quantity:        1,
		Status:          models.BorrowBorrowed,
		BorrowedAt:      time.Now().UTC().Add(-48 * time.Hour),
	}
	require.NoError(t, r.DB.Create(&b).Error)

	later := time.Now().UTC()
	earlier := later.Add(-time.Hour)

	require.NoError(t, r.StampReminder(context.Background(), b.ID, later))
	// A slower sweep with an older timestamp must not move the stamp back.
	require.NoError(t, r.StampReminder(context.Background(), b.ID, earlier))

	var loaded models.BorrowRecord
	require.NoError(t, r.DB.First(&loaded, "id = ?", b.ID).Error)
	require.NotNil(t, loaded.LastReminderAt)
	assert.WithinDuration(t, later, *loaded.LastReminderAt, time.Second)
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Now().UTC()
	req := &models.EquipmentRequest{Status: models.RequestPending, ExpiresAt: now.Add(time.Minute)}

	assert.Equal(t, models.RequestPending, EffectiveStatus(req, now))
	assert.Equal(t, models.RequestExpired, EffectiveStatus(req, now.Add(2*time.Minute)))

	req.Status = models.RequestApproved
	assert.Equal(t, models.RequestExpired, EffectiveStatus(req, now.Add(2*time.Minute)))

	// Terminal states never flip to expired.
	req.Status = models.RequestPickedUp
	assert.Equal(t, models.RequestPickedUp, EffectiveStatus(req, now.Add(2*time.Minute)))
}

func TestUpsertSubscription(t *testing.T) {
	r := newTestRepo(t)
	city := seedCity(t, r)
	ctx := context.Background()

	sub := &models.ManagerSubscription{
		Endpoint: "https://push.example/ep1",
		P256DH:   "p1",
		Auth:     "a1",
		CityID:   city.ID,
	}
	require.NoError(t, r.UpsertSubscription(ctx, sub))

	sub.P256DH = "p2"
	require.NoError(t, r.UpsertSubscription(ctx, sub))

	subs, err := r.ListCitySubscriptions(ctx, city.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "p2", subs[0].P256DH)

	require.NoError(t, r.DeleteSubscription(ctx, sub.Endpoint))
	subs, err = r.ListCitySubscriptions(ctx, city.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)
}
