package services

import (
	"context"
	"log"
	"sync"
	"time"

	"collabHubAPI/internal/types/notification"
)

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body, link string) error
}

// NotificationDispatcher delivers freshly created notifications as push
// messages through a small worker pool, off the request path.
type NotificationDispatcher struct {
	service      *NotificationService
	pushProvider PushNotificationProvider
	workers      int
	jobQueue     chan *notification.Notification
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

func NewNotificationDispatcher(service *NotificationService) *NotificationDispatcher {
	dispatcher := &NotificationDispatcher{
		service:  service,
		workers:  5,
		jobQueue: make(chan *notification.Notification, 100),
		stopChan: make(chan struct{}),
	}

	dispatcher.startWorkers()
	return dispatcher
}

// SetPushProvider injects the real FCM provider from main.go. Without one,
// notifications stay in-app only.
func (d *NotificationDispatcher) SetPushProvider(provider PushNotificationProvider) {
	d.pushProvider = provider
}

// Enqueue hands a notification to the worker pool. If the queue is full the
// push is dropped; the in-app notification row already exists.
func (d *NotificationDispatcher) Enqueue(notif *notification.Notification) {
	select {
	case d.jobQueue <- notif:
	default:
		log.Printf("Dispatcher: queue full, dropping push for notification %s", notif.ID)
	}
}

func (d *NotificationDispatcher) Stop() {
	close(d.stopChan)
	d.wg.Wait()
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *NotificationDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case notif := <-d.jobQueue:
			d.processJob(notif)
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) processJob(notif *notification.Notification) {
	if d.pushProvider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tokens, err := d.service.deviceTokens(ctx, notif.UserID)
	if err != nil {
		log.Printf("Dispatcher: failed to load tokens for user %s: %v", notif.UserID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	title := pushTitle(notif.Type)
	if err := d.pushProvider.SendPush(ctx, tokens, title, notif.Message, notif.Link); err != nil {
		log.Printf("Dispatcher: push failed for user %s: %v", notif.UserID, err)
	}
}

func pushTitle(t notification.Type) string {
	switch t {
	case notification.TypeConnectionRequest:
		return "New connection request"
	case notification.TypeConnectionAccepted:
		return "Connection accepted"
	case notification.TypeResourceComment:
		return "New comment on your resource"
	case notification.TypeTaskAssigned:
		return "Task assigned to you"
	default:
		return "CollabHub"
	}
}
