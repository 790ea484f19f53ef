// SPDX-License-Identifier: GPL-3.0-only

package rabbitmq

import (
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange  = "umkm.password_reset"
	RoutingKeyPrefix = "password_reset"
)

type Config struct {
	AMQPURL  string
	Exchange string
}

// Publisher sends password reset events to a durable topic exchange.
type Publisher struct {
	config  Config
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}
