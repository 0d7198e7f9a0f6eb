package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/p-chth/KaoDuenMate-VER2/internal/config"
	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
)

// Delivery is one message taken off the change queue.
type Delivery struct {
	Body      []byte
	Timestamp time.Time
	Ack       func(multiple bool) error
	Nack      func(multiple bool, requeue bool) error
}

// Broker publishes change events to a RabbitMQ topic exchange and consumes
// them back from a per-process queue, so every instance's Hub sees every
// write. The queue is exclusive to the connection; rabbitmq.queue_name only
// prefixes its name.
type Broker struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	exchange    string
	routingKey  string
	queueName   string
	consumerTag string
	mu          sync.Mutex
	logger      zerolog.Logger
}

func NewBroker(cfg config.RabbitMQConfig, logger zerolog.Logger) (*Broker, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	instanceID := uuid.NewString()
	queue, err := channel.QueueDeclare(
		instanceQueue(cfg.QueueName, instanceID), // name
		false,                                    // durable
		true,                                     // delete when unused
		true,                                     // exclusive
		false,                                    // no-wait
		nil,                                      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = channel.QueueBind(
		queue.Name,     // queue name
		cfg.RoutingKey, // routing key
		cfg.Exchange,   // exchange
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	logger.Info().
		Str("exchange", cfg.Exchange).
		Str("queue", queue.Name).
		Str("routing_key", cfg.RoutingKey).
		Msg("Connected to RabbitMQ")

	return &Broker{
		conn:        conn,
		channel:     channel,
		exchange:    cfg.Exchange,
		routingKey:  cfg.RoutingKey,
		queueName:   queue.Name,
		consumerTag: "kaoduen-" + instanceID,
		logger:      logger,
	}, nil
}

// instanceQueue names this process's queue. Instances sharing one queue
// would split the writes between them, so a configured name is suffixed
// with the instance id. An empty prefix leaves naming to the server.
func instanceQueue(prefix, instanceID string) string {
	if prefix == "" {
		return ""
	}
	return prefix + "." + instanceID
}

func (b *Broker) Publish(ctx context.Context, event models.ChangeEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// amqp channels are not safe for concurrent publishes
	b.mu.Lock()
	defer b.mu.Unlock()

	err = b.channel.PublishWithContext(
		publishCtx,
		b.exchange,   // exchange
		b.routingKey, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Transient,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	b.logger.Debug().
		Str("user_id", event.UserID).
		Str("collection", string(event.Collection)).
		Str("op", string(event.Op)).
		Str("doc_id", event.DocID).
		Msg("Change event published")

	return nil
}

// Consume opens a dedicated channel on the broker's queue. The returned
// channel closes when ctx ends or the server cancels the consumer.
func (b *Broker) Consume(ctx context.Context) (<-chan Delivery, error) {
	channel, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open consumer channel: %w", err)
	}

	if err := channel.Qos(
		16,    // prefetch count
		0,     // prefetch size
		false, // global
	); err != nil {
		channel.Close()
		return nil, err
	}

	msgs, err := channel.Consume(
		b.queueName,   // queue
		b.consumerTag, // consumer
		false,         // auto-ack
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		channel.Close()
		return nil, err
	}

	output := make(chan Delivery)

	go func() {
		defer close(output)
		defer channel.Close()

		for {
			select {
			case <-ctx.Done():
				b.logger.Info().Msg("Stopping RabbitMQ consumer")
				return
			case msg, ok := <-msgs:
				if !ok {
					b.logger.Warn().Msg("RabbitMQ message channel closed")
					return
				}

				d := Delivery{
					Body:      msg.Body,
					Timestamp: msg.Timestamp,
					Ack:       msg.Ack,
					Nack:      msg.Nack,
				}

				select {
				case output <- d:
				case <-ctx.Done():
					_ = msg.Nack(false, true)
					return
				}
			}
		}
	}()

	b.logger.Info().
		Str("queue", b.queueName).
		Str("consumer_tag", b.consumerTag).
		Msg("RabbitMQ consumer started")

	return output, nil
}

func (b *Broker) Close() error {
	if b.channel != nil {
		if err := b.channel.Close(); err != nil {
			b.logger.Error().Err(err).Msg("Failed to close RabbitMQ channel")
		}
	}

	if b.conn != nil {
		if err := b.conn.Close(); err != nil {
			b.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	return nil
}

// Forward decodes deliveries and hands them to sink until in closes or ctx
// ends. Undecodable messages are rejected without requeue.
func Forward(ctx context.Context, in <-chan Delivery, sink Publisher, logger zerolog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-in:
			if !ok {
				return nil
			}

			var event models.ChangeEvent
			if err := json.Unmarshal(d.Body, &event); err != nil {
				logger.Error().Err(err).Msg("Failed to decode change event")
				nack(d, false)
				continue
			}

			if err := sink.Publish(ctx, event); err != nil {
				logger.Error().Err(err).
					Str("user_id", event.UserID).
					Str("collection", string(event.Collection)).
					Msg("Failed to forward change event")
				nack(d, false)
				continue
			}

			if d.Ack != nil {
				if err := d.Ack(false); err != nil {
					logger.Warn().Err(err).Msg("Failed to ack change event")
				}
			}
		}
	}
}

func nack(d Delivery, requeue bool) {
	if d.Nack != nil {
		_ = d.Nack(false, requeue)
	}
}
