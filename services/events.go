package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 事件类型
const (
	EventListingCreated = "listing_created"
	EventOfferCreated   = "offer_created"
	EventListingSold    = "listing_sold"
)

const (
	// EventsChannel Redis发布订阅频道（多实例实时同步）
	EventsChannel = "listing:events"
	// EventsStream Redis事件流（统计分析）
	EventsStream = "listing_events"
)

// Event 发布相关的领域事件
type Event struct {
	Type      string      `json:"type"`
	ListingID string      `json:"listing_id"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// EventPublisher 事件发布器
// 有Redis时写入事件流并通过pub/sub广播；否则只投递给本进程订阅者
type EventPublisher struct {
	rdb    *redis.Client
	logger *zap.Logger

	mu        sync.RWMutex
	listeners []func(Event)
}

// NewEventPublisher 创建事件发布器
func NewEventPublisher(rdb *redis.Client, logger *zap.Logger) *EventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventPublisher{rdb: rdb, logger: logger}
}

// Subscribe 注册本进程事件监听（仅在无Redis时被调用）
func (p *EventPublisher) Subscribe(fn func(Event)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Distributed 是否通过Redis分发
func (p *EventPublisher) Distributed() bool {
	return p.rdb != nil
}

// Publish 发布事件，失败只记录日志
func (p *EventPublisher) Publish(ctx context.Context, eventType, listingID string, data interface{}) {
	event := Event{
		Type:      eventType,
		ListingID: listingID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}

	if p.rdb == nil {
		p.mu.RLock()
		listeners := append(([]func(Event))(nil), p.listeners...)
		p.mu.RUnlock()
		for _, fn := range listeners {
			fn(event)
		}
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("marshal event", zap.String("type", eventType), zap.Error(err))
		return
	}

	if err := p.rdb.Publish(ctx, EventsChannel, payload).Err(); err != nil {
		p.logger.Warn("publish event", zap.String("type", eventType), zap.Error(err))
	}

	err = p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: EventsStream,
		MaxLen: 100000,
		Approx: true,
		Values: map[string]interface{}{
			"event":      eventType,
			"listing_id": listingID,
			"timestamp":  event.Timestamp,
			"full_data":  string(payload),
		},
	}).Err()
	if err != nil {
		p.logger.Warn("append event stream", zap.String("type", eventType), zap.Error(err))
	}
}
