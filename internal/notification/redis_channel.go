package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	DefaultRedisTopic = "ems:notifications"
	outboundBuffer    = 1024
	publishTimeout    = 2 * time.Second
)

// RedisChannel fans events out to every API instance through Redis pub/sub.
// Each instance relays what it receives into its local Hub, so a client is
// reached no matter which instance holds its connection.
type RedisChannel struct {
	rdb    *redis.Client
	hub    *Hub
	topic  string
	out    chan Message
	logger *zap.Logger
}

func NewRedisChannel(rdb *redis.Client, hub *Hub, logger ...*zap.Logger) *RedisChannel {
	l := zap.L().Named("notification.redis")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.redis")
	}
	return &RedisChannel{
		rdb:    rdb,
		hub:    hub,
		topic:  DefaultRedisTopic,
		out:    make(chan Message, outboundBuffer),
		logger: l,
	}
}

func (r *RedisChannel) NotifyEmployee(ctx context.Context, employeeID, event string, payload any) {
	r.enqueue(event, employeeID, "", payload)
}

func (r *RedisChannel) NotifyRole(ctx context.Context, role, event string, payload any) {
	r.enqueue(event, "", role, payload)
}

func (r *RedisChannel) Broadcast(ctx context.Context, event string, payload any) {
	r.enqueue(event, "", "", payload)
}

// Subscribe taps the local hub, which sees every event relayed from Redis
// including the ones this instance published.
func (r *RedisChannel) Subscribe(ctx context.Context) (<-chan Message, error) {
	return r.hub.Subscribe(ctx)
}

func (r *RedisChannel) enqueue(event, employeeID, role string, payload any) {
	msg, err := newMessage(event, employeeID, role, payload)
	if err != nil {
		r.logger.Error("encode event failed", zap.String("event", event), zap.Error(err))
		return
	}
	select {
	case r.out <- msg:
	default:
		r.logger.Warn("outbound queue full, dropping event", zap.String("event", event))
	}
}

// Run publishes queued events and relays subscribed ones until ctx ends.
func (r *RedisChannel) Run(ctx context.Context) {
	sub := r.rdb.Subscribe(ctx, r.topic)
	defer sub.Close()

	go r.relay(ctx, sub.Channel())

	r.logger.Info("notification bridge started", zap.String("topic", r.topic))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("notification bridge stopped")
			return
		case msg := <-r.out:
			r.publish(ctx, msg)
		}
	}
}

func (r *RedisChannel) publish(ctx context.Context, msg Message) {
	raw, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error("encode envelope failed", zap.String("event", msg.Event), zap.Error(err))
		return
	}

	pctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := r.rdb.Publish(pctx, r.topic, raw).Err(); err != nil {
		// Still reach clients on this instance.
		r.logger.Warn("redis publish failed, delivering locally", zap.String("event", msg.Event), zap.Error(err))
		r.hub.Deliver(msg)
	}
}

func (r *RedisChannel) relay(ctx context.Context, in <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-in:
			if !ok {
				return
			}
			var msg Message
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				r.logger.Warn("decode relayed event failed", zap.Error(err))
				continue
			}
			r.hub.Deliver(msg)
		}
	}
}
