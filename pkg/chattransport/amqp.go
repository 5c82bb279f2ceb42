/**
 * @description
 * AMQP implementation of the chat transport. The messaging gateway bridges
 * the actual chat network and this service over a topic exchange:
 *
 *   - gateway.inbound      user messages, JSON Message bodies
 *   - gateway.outbound     replies published by this service
 *   - gateway.credentials  rotated session credential material
 *
 * Credential deliveries are persisted to the CredentialStore before they are
 * acked, and the consume loop handles deliveries in arrival order, so no
 * later message is processed until the rotated material is durable.
 *
 * @dependencies
 * - github.com/rabbitmq/amqp091-go: The Go client for RabbitMQ.
 */

package chattransport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	routingKeyInbound     = "gateway.inbound"
	routingKeyOutbound    = "gateway.outbound"
	routingKeyCredentials = "gateway.credentials"
	routingKeyResume      = "gateway.resume"
)

// AMQPTransport is a Transport backed by a RabbitMQ gateway.
type AMQPTransport struct {
	url      string
	exchange string
	queue    string
	creds    CredentialStore

	mu         sync.Mutex
	conn       *amqp.Connection
	ch         *amqp.Channel
	consumerWG sync.WaitGroup

	msgHandler   MessageHandler
	eventHandler EventHandler
}

// NewAMQPTransport creates a transport for the given broker URL. The
// exchange and queue name the gateway's topic exchange and this service's
// durable inbound queue.
func NewAMQPTransport(url, exchange, queue string, creds CredentialStore) *AMQPTransport {
	return &AMQPTransport{
		url:      url,
		exchange: exchange,
		queue:    queue,
		creds:    creds,
	}
}

// OnMessage registers the single message handler. Must be called before Connect.
func (t *AMQPTransport) OnMessage(handler MessageHandler) {
	t.msgHandler = handler
}

// OnConnectionEvent registers the single lifecycle handler. Must be called
// before Connect.
func (t *AMQPTransport) OnConnectionEvent(handler EventHandler) {
	t.eventHandler = handler
}

// Connect establishes the session. Any previous session is torn down first
// and its consume loop fully drained, so a message can never be delivered
// through two handler instances.
func (t *AMQPTransport) Connect(ctx context.Context) error {
	if t.msgHandler == nil || t.eventHandler == nil {
		return errors.New("chattransport: handlers must be registered before Connect")
	}

	t.teardown()
	t.consumerWG.Wait()

	conn, err := amqp.Dial(t.url)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(t.exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare(t.queue, true, false, false, false, nil)
	if err != nil {
		conn.Close()
		return fmt.Errorf("declare queue: %w", err)
	}
	for _, key := range []string{routingKeyInbound, routingKeyCredentials} {
		if err := ch.QueueBind(q.Name, key, t.exchange, false, nil); err != nil {
			conn.Close()
			return fmt.Errorf("bind queue: %w", err)
		}
	}

	deliveries, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		conn.Close()
		return fmt.Errorf("start consume: %w", err)
	}

	t.mu.Lock()
	t.conn = conn
	t.ch = ch
	t.mu.Unlock()

	// Present the persisted credential material so the gateway can resume
	// its chat-network session.
	if material, err := t.creds.Load(); err != nil {
		log.Printf("level=warn component=transport msg=\"credential load failed\" err=%v", err)
	} else if len(material) > 0 {
		if err := t.publish(ctx, routingKeyResume, material); err != nil {
			log.Printf("level=warn component=transport msg=\"credential resume publish failed\" err=%v", err)
		}
	}

	closeCh := conn.NotifyClose(make(chan *amqp.Error, 1))

	t.consumerWG.Add(1)
	go t.consumeLoop(deliveries, closeCh)

	t.eventHandler(ConnectionEvent{Type: EventConnected})
	return nil
}

func (t *AMQPTransport) consumeLoop(deliveries <-chan amqp.Delivery, closeCh <-chan *amqp.Error) {
	defer t.consumerWG.Done()

	for d := range deliveries {
		switch d.RoutingKey {
		case routingKeyCredentials:
			// Rotated credentials must be durable before any later message
			// is handled; the loop is sequential, so acking after Save gives
			// exactly that ordering.
			if err := t.creds.Save(d.Body); err != nil {
				log.Printf("level=error component=transport msg=\"credential persist failed; requeueing\" err=%v", err)
				d.Nack(false, true)
				continue
			}
			d.Ack(false)

		case routingKeyInbound:
			var msg Message
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				log.Printf("level=warn component=transport msg=\"malformed inbound message dropped\" err=%v", err)
				d.Ack(false)
				continue
			}
			d.Ack(false)
			// Each message is an independent unit of work; a slow handler
			// for one user must not block others.
			go t.msgHandler(context.Background(), msg)

		default:
			d.Ack(false)
		}
	}

	var amqpErr *amqp.Error
	select {
	case amqpErr = <-closeCh:
	default:
	}
	if amqpErr != nil {
		t.eventHandler(ConnectionEvent{Type: EventDisconnected, Err: amqpErr})
	} else {
		t.eventHandler(ConnectionEvent{Type: EventDisconnected})
	}
}

// SendText publishes a reply for the gateway to deliver.
func (t *AMQPTransport) SendText(ctx context.Context, to, text string) error {
	body, err := json.Marshal(struct {
		To   string `json:"to"`
		Text string `json:"text"`
	}{To: to, Text: text})
	if err != nil {
		return err
	}
	return t.publish(ctx, routingKeyOutbound, body)
}

func (t *AMQPTransport) publish(ctx context.Context, key string, body []byte) error {
	t.mu.Lock()
	ch := t.ch
	t.mu.Unlock()
	if ch == nil {
		return errors.New("chattransport: not connected")
	}
	return ch.PublishWithContext(ctx, t.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (t *AMQPTransport) teardown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ch != nil {
		t.ch.Close()
		t.ch = nil
	}
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
}

// Close shuts the session down and waits for the consume loop to exit.
func (t *AMQPTransport) Close() error {
	t.teardown()
	t.consumerWG.Wait()
	return nil
}
