package broker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultQueue = "companies.events"

	ActionCompanyUpserted = "company.upserted"
)

// Event describes a change to a persisted company.
type Event struct {
	Action      string    `json:"action"`
	CompanyID   int64     `json:"company_id"`
	CNPJ        string    `json:"cnpj"`
	RazaoSocial string    `json:"razao_social,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type Publisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewPublisher(uri, queue string) (*Publisher, error) {
	if queue == "" {
		queue = DefaultQueue
	}

	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	// durable, not auto-deleted, not exclusive
	_, err = ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

func (p *Publisher) Publish(ctx context.Context, contentType string, body []byte, headers amqp.Table) error {
	return p.ch.PublishWithContext(
		ctx,
		"",      // default exchange
		p.queue, // routing key is the queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  contentType,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
			Headers:      headers,
		},
	)
}

// PublishEvent sends ev as JSON, with the routing fields copied to headers
// so consumers can filter without decoding the body.
func (p *Publisher) PublishEvent(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	headers := amqp.Table{
		"action":     ev.Action,
		"company_id": ev.CompanyID,
		"cnpj":       ev.CNPJ,
		"timestamp":  ev.Timestamp.UTC().Format(time.RFC3339),
	}
	return p.Publish(ctx, "application/json", body, headers)
}

func (p *Publisher) Close() error {
	var errCh, errConn error
	if p.ch != nil {
		errCh = p.ch.Close()
	}
	if p.conn != nil {
		errConn = p.conn.Close()
	}

	return errors.Join(errCh, errConn)
}
