package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"token-pattern-be/internal/pkg/logger"
	"token-pattern-be/pkg/events"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// JobEventsChannel carries job events between instances.
const JobEventsChannel = "pattern_job_events"

// Hub fans job lifecycle events out to WebSocket clients on this instance
// and, through Redis, on every other instance.
type Hub struct {
	// clients keyed by connection id
	clients map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client
	// done is closed when Run returns.
	done chan struct{}

	mu sync.RWMutex

	// instanceId tags outgoing Redis messages so the publisher skips its own.
	instanceId string
	rdb        *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		instanceId: uuid.NewString(),
		rdb:        rdb,
		logger:     log,
	}
}

// Run owns client registration until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, c := range h.clients {
				close(c.Send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.Id] = client
			h.mu.Unlock()
			h.logger.Info("HUB", "Client registered", map[string]interface{}{"client_id": client.Id, "job_id": client.JobFilter})

		case client := <-h.unregister:
			if h.drop(client) {
				h.logger.Info("HUB", "Client unregistered", map[string]interface{}{"client_id": client.Id})
			}
		}
	}
}

// Register hands c to the hub. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes c. It never blocks after the hub has stopped, since
// Run closes every client on its way out.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// drop removes c and closes its Send channel if it is still registered.
func (h *Hub) drop(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.Id]; !ok {
		return false
	}
	delete(h.clients, c.Id)
	close(c.Send)
	return true
}

// Clients reports how many connections this instance holds.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type jobMessage struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

type clusterMessage struct {
	Origin  string          `json:"origin"`
	JobId   string          `json:"job_id"`
	Message json.RawMessage `json:"message"`
}

// NotifyJob delivers a job event to local subscribers and to other
// instances.
func (h *Hub) NotifyJob(event events.BaseEvent) {
	data, err := json.Marshal(jobMessage{Type: event.EventType(), Data: event.Payload()})
	if err != nil {
		h.logger.Error("HUB", "Failed to encode job event", map[string]interface{}{"error": err.Error()})
		return
	}
	jobId := event.String("job_id")
	h.deliver(jobId, data)

	if h.rdb == nil {
		return
	}
	payload, _ := json.Marshal(clusterMessage{Origin: h.instanceId, JobId: jobId, Message: data})
	if err := h.rdb.Publish(context.Background(), JobEventsChannel, payload).Err(); err != nil {
		h.logger.Warn("HUB", "Failed to publish job event to Redis", map[string]interface{}{"error": err.Error()})
	}
}

// deliver sends data to every local client whose filter matches jobId.
// Clients with a full buffer are dropped.
func (h *Hub) deliver(jobId string, data []byte) {
	var slow []*Client

	h.mu.RLock()
	for _, c := range h.clients {
		if !c.wants(jobId) {
			continue
		}
		select {
		case c.Send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		if h.drop(c) {
			h.logger.Warn("HUB", "Client send buffer full, dropped client", map[string]interface{}{"client_id": c.Id})
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, JobEventsChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload clusterMessage
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("HUB", "Malformed job event from Redis", map[string]interface{}{"error": err.Error()})
			continue
		}
		if payload.Origin == h.instanceId {
			continue
		}
		h.deliver(payload.JobId, payload.Message)
	}
}
