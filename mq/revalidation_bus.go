package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"polly-backend/logging"
	"polly-backend/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RevalidationChannel is the Pub/Sub channel shared by every server instance
const RevalidationChannel = "polly:revalidate"

// RevalidationMessage is published for every successful poll mutation
type RevalidationMessage struct {
	Origin string   `json:"origin"`
	Paths  []string `json:"paths"`
	SentAt int64    `json:"sent_at"`
}

// RevalidationBus delivers revalidations to the local receiver right away and
// publishes them so other instances can forward them to their own receivers.
type RevalidationBus struct {
	client  redis.UniversalClient
	local   service.Revalidator
	origin  string
	log     *logrus.Entry
	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewRevalidationBus creates a bus on client that feeds local
func NewRevalidationBus(client redis.UniversalClient, local service.Revalidator) *RevalidationBus {
	return &RevalidationBus{
		client: client,
		local:  local,
		origin: uuid.NewString(),
		log:    logging.Module("mq"),
	}
}

// Revalidate implements service.Revalidator
func (b *RevalidationBus) Revalidate(ctx context.Context, paths ...string) {
	if b.local != nil {
		b.local.Revalidate(ctx, paths...)
	}

	if err := b.publish(ctx, paths); err != nil {
		b.log.WithError(err).WithField("paths", paths).Warn("failed to publish revalidation")
	}
}

func (b *RevalidationBus) publish(ctx context.Context, paths []string) error {
	data, err := json.Marshal(RevalidationMessage{
		Origin: b.origin,
		Paths:  paths,
		SentAt: time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("encode revalidation: %w", err)
	}
	return b.client.Publish(ctx, RevalidationChannel, data).Err()
}

// Start subscribes to the channel and forwards messages from other instances
// until Stop is called.
func (b *RevalidationBus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return nil
	}

	sub := b.client.Subscribe(ctx, RevalidationChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", RevalidationChannel, err)
	}

	b.stop = make(chan struct{})
	b.running = true

	b.wg.Add(1)
	go b.consume(sub)

	b.log.WithField("channel", RevalidationChannel).Info("revalidation bus started")
	return nil
}

// Stop ends the subscription and waits for the consumer to exit
func (b *RevalidationBus) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	close(b.stop)
	b.mu.Unlock()

	b.wg.Wait()
	b.log.Info("revalidation bus stopped")
}

func (b *RevalidationBus) consume(sub *redis.PubSub) {
	defer b.wg.Done()
	defer sub.Close()

	messages := sub.Channel()
	for {
		select {
		case <-b.stop:
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			b.handle(msg.Payload)
		}
	}
}

// handle forwards a published message unless this instance sent it
func (b *RevalidationBus) handle(payload string) {
	var msg RevalidationMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		b.log.WithError(err).Warn("dropping malformed revalidation message")
		return
	}
	if msg.Origin == b.origin || len(msg.Paths) == 0 || b.local == nil {
		return
	}

	b.log.WithFields(logrus.Fields{"origin": msg.Origin, "paths": msg.Paths}).Debug("forwarding remote revalidation")
	b.local.Revalidate(context.Background(), msg.Paths...)
}
