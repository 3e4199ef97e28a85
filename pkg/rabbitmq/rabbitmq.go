package rabbitmq

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// ImageUploadQueue is the durable queue carrying ImageUploadedEvent messages.
const ImageUploadQueue = "image_uploads"

// ImageUploadedEvent is published after an image has been stored.
type ImageUploadedEvent struct {
	ImageID    string    `json:"image_id"`
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	Link       string    `json:"link"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Channel is the part of *amqp.Channel the client uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel Channel
	logger  *zap.Logger
	// amqp channels are not safe for concurrent publishing
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ, opens a channel and declares the image
// upload queue.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	c, err := NewClientWithChannel(ch, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	c.conn = conn
	return c, nil
}

// NewClientWithChannel wraps an already opened channel.
func NewClientWithChannel(ch Channel, logger *zap.Logger) (*Client, error) {
	if err := declareQueue(ch); err != nil {
		ch.Close()
		return nil, err
	}
	logger.Info("RabbitMQ client ready", zap.String("queue", ImageUploadQueue))
	return &Client{channel: ch, logger: logger}, nil
}

func declareQueue(ch Channel) error {
	_, err := ch.QueueDeclare(
		ImageUploadQueue, // name
		true,             // durable
		false,            // delete when unused
		false,            // exclusive
		false,            // no-wait
		nil,              // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s: %w", ImageUploadQueue, err)
	}
	return nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PublishImageUploaded publishes event as a persistent JSON message.
func (c *Client) PublishImageUploaded(event ImageUploadedEvent) error {
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal image event: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	err = c.channel.Publish(
		"",               // default exchange
		ImageUploadQueue, // routing key
		false,            // mandatory
		false,            // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Debug("image event published", zap.String("image_id", event.ImageID))
	return nil
}

// ConsumeImageEvents decodes messages from the image upload queue and passes
// them to handler in a background goroutine. Messages are acked when handler
// succeeds, requeued when it fails, and dropped when they cannot be decoded.
func (c *Client) ConsumeImageEvents(handler func(ImageUploadedEvent) error) error {
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available for consumption")
	}
	if err := declareQueue(c.channel); err != nil {
		return err
	}

	msgs, err := c.channel.Consume(
		ImageUploadQueue, // queue
		"",               // consumer tag
		false,            // auto-ack
		false,            // exclusive
		false,            // no-local
		false,            // no-wait
		nil,              // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("waiting for image events", zap.String("queue", ImageUploadQueue))
	go c.dispatch(msgs, handler)
	return nil
}

func (c *Client) dispatch(msgs <-chan amqp.Delivery, handler func(ImageUploadedEvent) error) {
	for msg := range msgs {
		var event ImageUploadedEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			c.logger.Error("dropping malformed image event", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(err))
			if err := msg.Nack(false, false); err != nil {
				c.logger.Error("error nacking message", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(err))
			}
			continue
		}

		if err := handler(event); err != nil {
			c.logger.Error("error processing image event", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(err))
			if err := msg.Nack(false, true); err != nil {
				c.logger.Error("error nacking message", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(err))
			}
			continue
		}
		if err := msg.Ack(false); err != nil {
			c.logger.Error("error acking message", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(err))
		}
	}
}

// LogImageEvent is the default consumer: it records each upload.
func LogImageEvent(logger *zap.Logger) func(ImageUploadedEvent) error {
	return func(event ImageUploadedEvent) error {
		logger.Info("image uploaded",
			zap.String("image_id", event.ImageID),
			zap.String("user_id", event.UserID),
			zap.String("link", event.Link),
		)
		return nil
	}
}
