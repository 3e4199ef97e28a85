package rabbitmq

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeChannel struct {
	mu         sync.Mutex
	declared   []string
	published  []amqp.Publishing
	keys       []string
	deliveries chan amqp.Delivery
	closed     bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{deliveries: make(chan amqp.Delivery, 4)}
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.declared = append(f.declared, name)
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return f.deliveries, nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

// ackRecorder implements amqp.Acknowledger.
type ackRecorder struct {
	mu     sync.Mutex
	acked  []uint64
	nacked map[uint64]bool // tag -> requeue
}

func (a *ackRecorder) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *ackRecorder) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked[tag] = requeue
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func (a *ackRecorder) settled() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.acked) + len(a.nacked)
}

func TestClient_PublishImageUploaded(t *testing.T) {
	ch := newFakeChannel()
	c, err := NewClientWithChannel(ch, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{ImageUploadQueue}, ch.declared)

	event := ImageUploadedEvent{ImageID: "img-1", UserID: "user-1", Username: "validUser", Link: "https://i.imgur.com/a.png"}
	require.NoError(t, c.PublishImageUploaded(event))

	require.Len(t, ch.published, 1)
	assert.Equal(t, ImageUploadQueue, ch.keys[0])
	assert.Equal(t, "application/json", ch.published[0].ContentType)
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)

	var got ImageUploadedEvent
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &got))
	assert.Equal(t, event, got)

	require.NoError(t, c.Close())
	assert.True(t, ch.closed)
}

func TestClient_ConsumeImageEvents(t *testing.T) {
	ch := newFakeChannel()
	c, err := NewClientWithChannel(ch, zap.NewNop())
	require.NoError(t, err)

	var mu sync.Mutex
	var handled []string
	require.NoError(t, c.ConsumeImageEvents(func(e ImageUploadedEvent) error {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, e.ImageID)
		if e.ImageID == "fail" {
			return errors.New("boom")
		}
		return nil
	}))

	acks := &ackRecorder{nacked: map[uint64]bool{}}
	ch.deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 1, Body: []byte(`{"image_id":"ok"}`)}
	ch.deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 2, Body: []byte(`{"image_id":"fail"}`)}
	ch.deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 3, Body: []byte(`not json`)}
	close(ch.deliveries)

	require.Eventually(t, func() bool { return acks.settled() == 3 }, time.Second, 10*time.Millisecond)

	acks.mu.Lock()
	defer acks.mu.Unlock()
	assert.Equal(t, []uint64{1}, acks.acked)
	assert.Equal(t, map[uint64]bool{2: true, 3: false}, acks.nacked)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"ok", "fail"}, handled)
}
