package comms

import (
	"encoding/json"
	"github.com/gorilla/websocket"
	"github.com/tfischer/tfitpican/simulator"
	"sync"
)

// sized for a burst of deliveries within one tick loop
const EVENT_BACKLOG = 256

// Conductor fans simulation events out to websocket clients. The core's
// listener only drops an event into a buffered channel, so a slow or
// disconnected client can never stall the tick loop; a single pump
// goroutine started via UpdateClients does all the writing.
type Conductor struct {
	lock    sync.Mutex
	clients map[*websocket.Conn]bool

	events  chan simulator.Event
	dropped int
}

func NewConductor() (c *Conductor) {
	c = new(Conductor)
	c.clients = make(map[*websocket.Conn]bool)
	c.events = make(chan simulator.Event, EVENT_BACKLOG)
	return
}

// Listener returns the callback to subscribe on a scenario engine.
func (c *Conductor) Listener() simulator.Listener {
	return func(e simulator.Event) {
		select {
		case c.events <- e:
		default:
			// stream backlogged; the recorder keeps the full sequence
			c.lock.Lock()
			c.dropped++
			c.lock.Unlock()
		}
	}
}

// AddClient registers a websocket connection for event delivery.
func (c *Conductor) AddClient(conn *websocket.Conn) {
	c.lock.Lock()
	c.clients[conn] = true
	c.lock.Unlock()
}

// RemoveClient drops a connection, closing it.
func (c *Conductor) RemoveClient(conn *websocket.Conn) {
	c.lock.Lock()
	if c.clients[conn] {
		delete(c.clients, conn)
		conn.Close()
	}
	c.lock.Unlock()
}

// UpdateClients pumps events to every connected client until Close.
// Run it on its own goroutine.
func (c *Conductor) UpdateClients() {
	for e := range c.events {
		data, err := json.Marshal(NewEventPayload(e))
		if err != nil {
			continue
		}

		c.lock.Lock()
		for conn := range c.clients {
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				delete(c.clients, conn)
				conn.Close()
			}
		}
		c.lock.Unlock()
	}

	c.lock.Lock()
	for conn := range c.clients {
		delete(c.clients, conn)
		conn.Close()
	}
	c.lock.Unlock()
}

// Dropped reports how many events the stream shed under backlog.
func (c *Conductor) Dropped() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.dropped
}

// Close stops the pump and disconnects all clients.
func (c *Conductor) Close() {
	close(c.events)
}
