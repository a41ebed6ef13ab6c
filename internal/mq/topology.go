package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// ExchangeReleases — обменник событий release.
const ExchangeReleases Exchange = "deployer.releases"

// QueueReleasesAudit — очередь, в которую попадают все события release.
const QueueReleasesAudit Queue = "releases.audit"

// Routing keys.
const (
	RoutingKeyStarted  RoutingKey = "release.started"
	RoutingKeyStep     RoutingKey = "release.step"
	RoutingKeyFinished RoutingKey = "release.finished"

	// RoutingKeyAll — шаблон для привязки ко всем событиям.
	RoutingKeyAll RoutingKey = "release.#"
)

// SetupTopology объявляет exchange и очередь аудита. Идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.ExchangeDeclare(
			string(ExchangeReleases), // name
			"topic",                  // type
			true,                     // durable
			false,                    // auto-deleted
			false,                    // internal
			false,                    // no-wait
			nil,                      // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ExchangeReleases, err)
		}

		_, err = ch.QueueDeclare(
			string(QueueReleasesAudit), // name
			true,                       // durable
			false,                      // delete when unused
			false,                      // exclusive
			false,                      // no-wait
			nil,                        // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", QueueReleasesAudit, err)
		}

		err = ch.QueueBind(
			string(QueueReleasesAudit), // queue name
			string(RoutingKeyAll),      // routing key
			string(ExchangeReleases),   // exchange
			false,                      // no-wait
			nil,                        // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", QueueReleasesAudit, ExchangeReleases, err)
		}

		return nil
	})
}
