package notify

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"toolcabinet-backend/db"
	"toolcabinet-backend/models"
)

// PushSender is the seam between the worker pool and the webpush library, so
// tests can swap in a recorder.
type PushSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real sender.
type WebPushSender struct{}

func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

type pushJob struct {
	CityID string
	Title  string `json:"title"`
	Body   string `json:"body"`
	URL    string `json:"url,omitempty"`
}

// PushPool sends manager push notifications from a small worker pool.
// Dispatch never blocks the request path: when the queue is full the
// notification is dropped and logged.
type PushPool struct {
	size    int
	jobs    chan pushJob
	repo    *db.Repo
	options *webpush.Options
	sender  PushSender
}

func NewPushPool(size int, repo *db.Repo, options *webpush.Options) *PushPool {
	if size <= 0 {
		size = 1
	}
	return &PushPool{
		size:    size,
		jobs:    make(chan pushJob, size*8),
		repo:    repo,
		options: options,
		sender:  &WebPushSender{},
	}
}

// SetSender replaces the transport; tests use it to capture payloads.
func (p *PushPool) SetSender(s PushSender) { p.sender = s }

// Start launches the workers; they run until ctx is cancelled.
func (p *PushPool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		go p.worker(ctx, i)
	}
}

func (p *PushPool) worker(ctx context.Context, id int) {
	for {
		select {
		case job := <-p.jobs:
			p.deliver(ctx, job)
		case <-ctx.Done():
			log.Printf("push worker %d shutting down", id)
			return
		}
	}
}

// Notify implements Pusher.
func (p *PushPool) Notify(cityID, title, body, url string) {
	job := pushJob{CityID: cityID, Title: title, Body: body, URL: url}
	select {
	case p.jobs <- job:
	default:
		log.Printf("push queue full, dropping notification for city %s", cityID)
	}
}

func (p *PushPool) deliver(ctx context.Context, job pushJob) {
	subs, err := p.repo.ListCitySubscriptions(ctx, job.CityID)
	if err != nil {
		log.Printf("push: list subscriptions for city %s: %v", job.CityID, err)
		return
	}
	if len(subs) == 0 {
		return
	}

	payload, err := json.Marshal(job)
	if err != nil {
		log.Printf("push: marshal payload: %v", err)
		return
	}
	for _, sub := range subs {
		p.send(ctx, sub, payload)
	}
}

func (p *PushPool) send(ctx context.Context, sub models.ManagerSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}
	resp, err := p.sender.Send(payload, wpSub, p.options)
	if err != nil {
		log.Printf("push: send to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Expired subscriptions are pruned on the spot.
	if resp.StatusCode == http.StatusGone {
		log.Printf("push: subscription %s expired, deleting", sub.Endpoint)
		if err := p.repo.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			log.Printf("push: delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
