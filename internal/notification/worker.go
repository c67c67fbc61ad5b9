package notification

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"floor-service-backend/internal/model"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real Sender backed by the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// foodReadyPayload is the message shown on the waiter's device.
type foodReadyPayload struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	TableID string `json:"tableId"`
}

// WorkerPool delivers food-ready alerts to waiter devices. Tables that just
// went FoodReady are queued and fanned out to every push subscription
// registered for the table's assigned waiter.
type WorkerPool struct {
	size    int
	jobs    chan model.DiningTable
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan model.DiningTable, size*4),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// SetSender swaps the delivery backend, for tests.
func (wp *WorkerPool) SetSender(s Sender) { wp.sender = s }

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("notification worker %d started", id)
	for {
		select {
		case table := <-wp.jobs:
			wp.notifyWaiter(ctx, table)
		case <-ctx.Done():
			log.Printf("notification worker %d shutting down", id)
			return
		}
	}
}

// TableReady queues a food-ready alert. It never blocks the kitchen flow:
// if the queue is full the alert is dropped and logged.
func (wp *WorkerPool) TableReady(table model.DiningTable) {
	select {
	case wp.jobs <- table:
	default:
		log.Printf("notification queue full, dropping alert for table %s", table.ID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan model.DiningTable {
	return wp.jobs
}

func (wp *WorkerPool) notifyWaiter(ctx context.Context, table model.DiningTable) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Where("waiter_id = ?", table.AssignedWaiterID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("error fetching subscriptions for waiter %s: %v", table.AssignedWaiterID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(foodReadyPayload{
		Title:   "Food ready",
		Body:    table.Name + ": food is ready for pickup",
		TableID: table.ID,
	})
	if err != nil {
		log.Printf("error marshalling payload for table %s: %v", table.ID, err)
		return
	}

	log.Printf("sending %d food-ready notifications for table %s", len(subscriptions), table.ID)
	for _, sub := range subscriptions {
		resp, err := wp.sender.Send(payload, &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys:     webpush.Keys{P256dh: sub.P256DH, Auth: sub.Auth},
		}, wp.webpush)
		if err != nil {
			log.Printf("error sending notification to %s: %v", sub.Endpoint, err)
			continue
		}
		if resp != nil {
			resp.Body.Close()
			// Expired or revoked subscriptions are pruned on the spot.
			if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
				if err := wp.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: sub.Endpoint}).Error; err != nil {
					log.Printf("error removing stale subscription %s: %v", sub.Endpoint, err)
				}
			}
		}
	}
}
