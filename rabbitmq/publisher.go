// SPDX-License-Identifier: GPL-3.0-only

package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"umkm-portal/commons"
	"umkm-portal/resetflow"

	amqp "github.com/rabbitmq/amqp091-go"
)

// LoadConfig reads RABBITMQ_URL and RABBITMQ_EXCHANGE. An empty AMQPURL
// means event publishing is disabled.
func LoadConfig() Config {
	return Config{
		AMQPURL:  commons.GetEnv("RABBITMQ_URL"),
		Exchange: commons.GetEnv("RABBITMQ_EXCHANGE", DefaultExchange),
	}
}

func NewPublisher(c Config) (*Publisher, error) {
	if c.Exchange == "" {
		c.Exchange = DefaultExchange
	}
	p := &Publisher{config: c}
	if err := p.connect(); err != nil {
		return nil, err
	}
	commons.Logger.Infof("RabbitMQ publisher ready: exchange=%s", c.Exchange)
	return p, nil
}

// connect dials the broker and declares the exchange. Caller holds mu or
// owns p exclusively.
func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.config.AMQPURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.config.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("exchange declare: %w", err)
	}
	p.conn = conn
	p.channel = ch
	return nil
}

// RoutingKey returns the topic an event is published under, for example
// password_reset.approved.
func RoutingKey(ev resetflow.Event) string {
	return RoutingKeyPrefix + "." + string(ev.Type)
}

func encodeEvent(ev resetflow.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Timestamp:    ev.OccurredAt,
		Type:         string(ev.Type),
		Body:         body,
	}, nil
}

// PublishResetEvent implements resetflow.Publisher. A closed channel is
// reopened once before giving up.
func (p *Publisher) PublishResetEvent(ctx context.Context, ev resetflow.Event) error {
	msg, err := encodeEvent(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil || p.channel.IsClosed() {
		p.closeLocked()
		if err := p.connect(); err != nil {
			return err
		}
	}

	key := RoutingKey(ev)
	if err := p.channel.PublishWithContext(ctx, p.config.Exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	commons.Logger.Debugf("Published %s for request %d", key, ev.RequestID)
	return nil
}

func (p *Publisher) closeLocked() {
	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
}
