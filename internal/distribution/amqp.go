// Package distribution fans published articles out to the social
// channels over AMQP. Each connected channel's copy is published with
// the platform as the routing key, so downstream posting workers bind
// only the platforms they handle.
package distribution

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"lumafin/internal/models"
)

// Publisher sends per-channel social copy to a topic exchange.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewPublisher connects, opens a channel, and declares the durable
// topic exchange.
func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	slog.Info("connected to amqp", "exchange", exchange)

	return &Publisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
	}, nil
}

// SocialMessage is the payload a posting worker receives for one channel.
type SocialMessage struct {
	ChannelID string    `json:"channel_id"`
	ArticleID int64     `json:"article_id"`
	Title     string    `json:"title"`
	Copy      string    `json:"copy"`
	MediaURL  string    `json:"media_url,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PublishSocial publishes one message per channel, routed by channel ID.
// The first publish error aborts the loop; the caller treats the whole
// fan-out as best effort.
func (p *Publisher) PublishSocial(ctx context.Context, article *models.Article, copy map[string]string) error {
	for channelID, text := range copy {
		msg := SocialMessage{
			ChannelID: channelID,
			ArticleID: article.ID,
			Title:     article.Title,
			Copy:      text,
			MediaURL:  article.ImageURL,
			Timestamp: time.Now().UTC(),
		}

		body, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshal message: %w", err)
		}

		err = p.channel.PublishWithContext(
			ctx,
			p.exchange,
			"social."+channelID,
			false,
			false,
			amqp.Publishing{
				DeliveryMode: amqp.Persistent,
				ContentType:  "application/json",
				Body:         body,
				Timestamp:    time.Now(),
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s: %w", channelID, err)
		}

		slog.Debug("published social copy", "channel", channelID, "article_id", article.ID)
	}

	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
