package sse

import (
	"context"
	"sync"

	"ms-events/internal/models"
)

// AttendanceEmitter fans attendance updates out to the SSE clients watching an event.
type AttendanceEmitter struct {
	// key: eventID, value: client channels
	clients     map[string][]chan models.AttendanceUpdate
	clientMutex sync.RWMutex
}

func NewAttendanceEmitter() *AttendanceEmitter {
	return &AttendanceEmitter{
		clients: make(map[string][]chan models.AttendanceUpdate),
	}
}

// Subscribe registers a client for eventID. The channel is closed once ctx is done.
func (e *AttendanceEmitter) Subscribe(ctx context.Context, eventID string) <-chan models.AttendanceUpdate {
	clientChan := make(chan models.AttendanceUpdate, 10)

	e.clientMutex.Lock()
	e.clients[eventID] = append(e.clients[eventID], clientChan)
	e.clientMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.removeClient(eventID, clientChan)
	}()

	return clientChan
}

// Emit sends update to every subscriber of its event. Slow clients whose
// buffer is full miss the update rather than block the caller.
func (e *AttendanceEmitter) Emit(update models.AttendanceUpdate) {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()

	for _, clientChan := range e.clients[update.EventID] {
		select {
		case clientChan <- update:
		default:
		}
	}
}

func (e *AttendanceEmitter) removeClient(eventID string, clientChan chan models.AttendanceUpdate) {
	e.clientMutex.Lock()
	defer e.clientMutex.Unlock()

	clients := e.clients[eventID]
	for i, ch := range clients {
		if ch == clientChan {
			e.clients[eventID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	if len(e.clients[eventID]) == 0 {
		delete(e.clients, eventID)
	}
}

// ClientCount returns the number of clients currently subscribed to eventID.
func (e *AttendanceEmitter) ClientCount(eventID string) int {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()
	return len(e.clients[eventID])
}
