package hub

import (
	"sync"

	"github.com/dyndash/combat-provider/pkg/log"
)

// Hub tracks open connections and the single source each one is subscribed to.
type Hub struct {
	clients       map[string]*Client            // clientID -> client
	subscriptions map[string]string             // clientID -> source
	sources       map[string]map[string]*Client // source -> clientID -> client
	register      chan registration
	unregister    chan *Client
	done          chan struct{}
	stopOnce      sync.Once
	mu            sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:       make(map[string]*Client),
		subscriptions: make(map[string]string),
		sources:       make(map[string]map[string]*Client),
		register:      make(chan registration),
		unregister:    make(chan *Client),
		done:          make(chan struct{}),
	}
}

// registration is acknowledged once the client is visible to Subscribe.
type registration struct {
	client *Client
	done   chan struct{}
}

// Run processes registrations until Stop is called.
func (h *Hub) Run() {
	l := log.L()
	for {
		select {
		case reg := <-h.register:
			h.mu.Lock()
			h.clients[reg.client.ID] = reg.client
			h.mu.Unlock()
			close(reg.done)
			l.Info().Str(log.FieldClientID, reg.client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client.ID]
			if ok {
				h.unsubscribeLocked(client.ID)
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			if ok {
				l.Info().Str(log.FieldClientID, client.ID).Msg("client unregistered")
				if client.disconnectHandler != nil {
					client.disconnectHandler(client)
				}
			}

		case <-h.done:
			return
		}
	}
}

// Stop ends Run. Registrations after Stop are dropped.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register adds a client and returns once it can subscribe.
func (h *Hub) Register(client *Client) {
	reg := registration{client: client, done: make(chan struct{})}
	select {
	case h.register <- reg:
		<-reg.done
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribe points client at source, replacing any earlier subscription.
// It reports false when the client is not registered.
func (h *Hub) Subscribe(client *Client, source string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return false
	}
	h.unsubscribeLocked(client.ID)

	if _, ok := h.sources[source]; !ok {
		h.sources[source] = make(map[string]*Client)
	}
	h.sources[source][client.ID] = client
	h.subscriptions[client.ID] = source

	l := log.L()
	l.Info().Str(log.FieldClientID, client.ID).Str(log.FieldSource, source).Msg("client subscribed")
	return true
}

// Unsubscribe drops the client's subscription. It is a no-op when there is none.
func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if source, ok := h.subscriptions[client.ID]; ok {
		h.unsubscribeLocked(client.ID)
		l := log.L()
		l.Info().Str(log.FieldClientID, client.ID).Str(log.FieldSource, source).Msg("client unsubscribed")
	}
}

// Subscription returns the source the client is subscribed to.
func (h *Hub) Subscription(client *Client) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	source, ok := h.subscriptions[client.ID]
	return source, ok
}

func (h *Hub) unsubscribeLocked(clientID string) {
	source, ok := h.subscriptions[clientID]
	if !ok {
		return
	}
	delete(h.subscriptions, clientID)
	if subs, ok := h.sources[source]; ok {
		delete(subs, clientID)
		if len(subs) == 0 {
			delete(h.sources, source)
		}
	}
}

// Broadcast queues message on every client subscribed to source and returns
// how many clients it was queued for. It never blocks: a client whose buffer
// is full is dropped from the hub.
//
// Fan-out happens on the caller's goroutine so that successive broadcasts of
// one source reach each client in call order.
func (h *Hub) Broadcast(source string, message []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, client := range h.sources[source] {
		select {
		case client.Send <- message:
			sent++
		default:
			// Client's send buffer is full
			go h.removeClient(client)
		}
	}
	return sent
}

// SubscriberCount returns the number of clients subscribed to source.
func (h *Hub) SubscriberCount(source string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sources[source])
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) removeClient(client *Client) {
	h.Unregister(client)
}
