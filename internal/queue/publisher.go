package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-show-booking/internal/pkg/logger"
)

// Publisher は予約イベントをRabbitMQへ配信する
// ベストエフォート: 配信失敗は予約処理を妨げない（ログのみ）
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewPublisher はブローカーへ接続しエクスチェンジを宣言する
func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("RabbitMQ接続に失敗: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("チャンネル作成に失敗: %w", err)
	}
	if err := ch.ExchangeDeclare(BookingEventsExchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("エクスチェンジ宣言に失敗: %w", err)
	}
	return &Publisher{conn: conn, channel: ch}, nil
}

// Publish はイベントをルーティングキー付きで配信する
func (p *Publisher) Publish(ctx context.Context, routingKey string, event BookingEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("イベント変換に失敗: %w", err)
	}
	err = p.channel.PublishWithContext(ctx,
		BookingEventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("イベント配信に失敗: %w", err)
	}
	return nil
}

// PublishAsync は失敗をログに残すだけの fire-and-forget 配信
func (p *Publisher) PublishAsync(ctx context.Context, routingKey string, event BookingEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, routingKey, event); err != nil {
		logger.Warn("予約イベント配信失敗",
			zap.String("routing_key", routingKey),
			zap.Int64("booking_id", event.BookingID),
			zap.Error(err),
		)
	}
}

// Close は接続を閉じる
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
