package sse

import (
	"context"
	"sync"
)

// Event is one Server-Sent Event. Data is JSON-encoded when written.
type Event struct {
	Name string
	Data interface{}
}

// Emitter manages SSE client channels and broadcasts events to all of them.
type Emitter struct {
	clients     map[chan Event]struct{}
	clientMutex sync.RWMutex
	buffer      int
}

// NewEmitter creates an emitter whose clients buffer up to buffer events.
func NewEmitter(buffer int) *Emitter {
	if buffer <= 0 {
		buffer = 10
	}
	return &Emitter{clients: make(map[chan Event]struct{}), buffer: buffer}
}

// Subscribe adds a client until ctx is done, after which its channel is closed.
func (e *Emitter) Subscribe(ctx context.Context) <-chan Event {
	clientChan := make(chan Event, e.buffer)

	e.clientMutex.Lock()
	e.clients[clientChan] = struct{}{}
	e.clientMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.removeClient(clientChan)
	}()

	return clientChan
}

// Broadcast sends ev to every client. A client with a full buffer skips it.
func (e *Emitter) Broadcast(ev Event) {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()

	for clientChan := range e.clients {
		select {
		case clientChan <- ev:
		default:
		}
	}
}

func (e *Emitter) removeClient(clientChan chan Event) {
	e.clientMutex.Lock()
	defer e.clientMutex.Unlock()

	if _, ok := e.clients[clientChan]; ok {
		delete(e.clients, clientChan)
		close(clientChan)
	}
}

// ClientCount returns the number of connected clients.
func (e *Emitter) ClientCount() int {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()
	return len(e.clients)
}
