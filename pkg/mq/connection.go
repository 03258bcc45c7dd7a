package mq

import (
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// The events exchange is a durable topic exchange. Routing keys are
// "<aggregate>.<event>" (project.created, task.status_changed, ...), so
// consumers bind with patterns such as "task.*" or "project.#".
const (
	ExchangeName = "events"
	ExchangeKind = amqp091.ExchangeTopic
)

// ConnectionName is reported to the broker and shows up in its management UI.
const ConnectionName = "taskmaster"

const heartbeat = 10 * time.Second

// NewConnection dials RabbitMQ with a named connection and a short heartbeat,
// so a dead broker is noticed by IsConnected within seconds.
func NewConnection(url string) (*amqp091.Connection, error) {
	props := amqp091.NewConnectionProperties()
	props.SetClientConnectionName(ConnectionName)

	conn, err := amqp091.DialConfig(url, amqp091.Config{
		Heartbeat:  heartbeat,
		Properties: props,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

// DeclareExchange declares the events exchange: durable, not auto-deleted,
// not internal.
func DeclareExchange(ch *amqp091.Channel) error {
	return ch.ExchangeDeclare(
		ExchangeName,
		ExchangeKind,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
}
