package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"prompt-manager-core/internal/pkg/logger"
	"prompt-manager-core/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "cluster_events"

// Hub fans committed store changes out to websocket subscribers. With a
// redis client, changes seen by one instance also reach clients connected to
// the others.
type Hub struct {
	// Connected clients keyed by the token subject ("" when auth is off).
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	rdb        *redis.Client
	instanceID string

	logger logger.ILogger
}

type clusterMessage struct {
	Origin string          `json:"origin"`
	Entity string          `json:"entity"`
	Data   json.RawMessage `json:"data"`
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

// Run serves register and unregister requests until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.Subject] = append(h.clients[client.Subject], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"subject": client.Subject})
		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

// Consume subscribes to the change topic and broadcasts every decoded change.
func (h *Hub) Consume(ctx context.Context, subscriber message.Subscriber, topic string) error {
	messages, err := subscriber.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			change, err := events.DecodeChange(msg)
			if err != nil {
				h.logger.Warn("Hub", "Dropping undecodable change", map[string]interface{}{"error": err.Error()})
			} else {
				h.Broadcast(change)
			}
			msg.Ack()
		}
	}()
	return nil
}

// Broadcast sends change to every local client interested in its entity and
// forwards it to the other instances.
func (h *Hub) Broadcast(change events.ChangeEvent) {
	data, err := json.Marshal(map[string]interface{}{
		"type": "change",
		"data": change,
	})
	if err != nil {
		h.logger.Error("Hub", "Failed to encode change", map[string]interface{}{"error": err.Error()})
		return
	}

	h.deliver(change.Entity, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{Origin: h.instanceID, Entity: change.Entity, Data: data})
		if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Failed to publish to cluster", map[string]interface{}{"error": err.Error()})
		}
	}
}

// ClientCount is the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, clients := range h.clients {
		n += len(clients)
	}
	return n
}

func (h *Hub) deliver(entity string, data []byte) {
	var slow []*Client

	h.mu.RLock()
	for _, clients := range h.clients {
		for _, client := range clients {
			if !client.Wants(entity) {
				continue
			}
			select {
			case client.Send <- data:
			default:
				slow = append(slow, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("Hub", "Client send buffer full, dropping client", map[string]interface{}{"subject": client.Subject})
		h.remove(client)
	}
}

// remove closes client.Send exactly once, the first time the client is found.
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[client.Subject]
	for i, c := range clients {
		if c == client {
			h.clients[client.Subject] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.Subject]) == 0 {
		delete(h.clients, client.Subject)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for subject, clients := range h.clients {
		for _, client := range clients {
			close(client.Send)
		}
		delete(h.clients, subject)
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload clusterMessage
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Cluster message parse error", map[string]interface{}{"error": err.Error()})
			continue
		}
		// Our own publications were already delivered locally.
		if payload.Origin == h.instanceID {
			continue
		}
		h.deliver(payload.Entity, payload.Data)
	}
}
