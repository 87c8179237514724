package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"toolcabinet-backend/db"
	"toolcabinet-backend/models"
)

type sentPush struct {
	Endpoint string
	Payload  []byte
}

type fakeSender struct {
	status int
	sent   chan sentPush
}

func newFakeSender(status int) *fakeSender {
	return &fakeSender{status: status, sent: make(chan sentPush, 16)}
}

func (s *fakeSender) Send(payload []byte, sub *webpush.Subscription, _ *webpush.Options) (*http.Response, error) {
	s.sent <- sentPush{Endpoint: sub.Endpoint, Payload: payload}
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
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

func seedSubscription(t *testing.T, r *db.Repo, cityID, endpoint string) {
	t.Helper()
	require.NoError(t, r.UpsertSubscription(context.Background(), &models.ManagerSubscription{
		Endpoint: endpoint, P256DH: "p", Auth: "a", CityID: cityID,
	}))
}

func TestPushPoolDelivers(t *testing.T) {
	r := newTestRepo(t)
	seedSubscription(t, r, "city-1", "https://push.example/ep1")
	seedSubscription(t, r, "city-1", "https://push.example/ep2")
	seedSubscription(t, r, "city-2", "https://push.example/other")

	pool := NewPushPool(2, r, &webpush.Options{})
	sender := newFakeSender(http.StatusCreated)
	pool.SetSender(sender)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	pool.Notify("city-1", "New equipment request", "Dana requested 1 item(s)", "/requests/42")

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case p := <-sender.sent:
			got[p.Endpoint] = true
			var payload map[string]string
			require.NoError(t, json.Unmarshal(p.Payload, &payload))
			assert.Equal(t, "New equipment request", payload["title"])
		case <-time.After(2 * time.Second):
			t.Fatal("push not delivered")
		}
	}
	assert.True(t, got["https://push.example/ep1"])
	assert.True(t, got["https://push.example/ep2"])

	// The other city's subscription stays quiet.
	select {
	case p := <-sender.sent:
		t.Fatalf("unexpected push to %s", p.Endpoint)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPushPoolPrunesGoneSubscriptions(t *testing.T) {
	r := newTestRepo(t)
	seedSubscription(t, r, "city-1", "https://push.example/dead")

	pool := NewPushPool(1, r, &webpush.Options{})
	pool.SetSender(newFakeSender(http.StatusGone))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	pool.Notify("city-1", "title", "body", "")

	require.Eventually(t, func() bool {
		subs, err := r.ListCitySubscriptions(context.Background(), "city-1")
		return err == nil && len(subs) == 0
	}, 2*time.Second, 20*time.Millisecond, "expired subscription not pruned")
}

func TestNotifyNeverBlocks(t *testing.T) {
	r := newTestRepo(t)
	pool := NewPushPool(1, r, &webpush.Options{})
	// No workers started: the queue fills and overflow is dropped.
	for i := 0; i < 100; i++ {
		pool.Notify("city-1", "title", "body", "")
	}
}
