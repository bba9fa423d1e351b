package server

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/longkey1/legalc/internal/legal/conversation"
)

// Conversation is one chat held in memory by the server.
type Conversation struct {
	ID         uuid.UUID
	CreatedAt  time.Time
	Controller *conversation.Controller
}

// Registry keeps conversations in memory. Nothing survives a restart.
type Registry struct {
	mu    sync.RWMutex
	convs map[uuid.UUID]*Conversation
	newFn func() *conversation.Controller
}

// NewRegistry returns an empty registry; newFn builds each controller.
func NewRegistry(newFn func() *conversation.Controller) *Registry {
	return &Registry{
		convs: make(map[uuid.UUID]*Conversation),
		newFn: newFn,
	}
}

// Create starts a conversation with an empty transcript.
func (r *Registry) Create() *Conversation {
	conv := &Conversation{
		ID:         uuid.New(),
		CreatedAt:  time.Now(),
		Controller: r.newFn(),
	}

	r.mu.Lock()
	r.convs[conv.ID] = conv
	r.mu.Unlock()
	return conv
}

// Get returns the conversation with id.
func (r *Registry) Get(id uuid.UUID) (*Conversation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conv, ok := r.convs[id]
	return conv, ok
}

// Delete drops the conversation with id.
func (r *Registry) Delete(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.convs[id]; !ok {
		return false
	}
	delete(r.convs, id)
	return true
}

// List returns every conversation, newest first.
func (r *Registry) List() []*Conversation {
	r.mu.RLock()
	convs := make([]*Conversation, 0, len(r.convs))
	for _, conv := range r.convs {
		convs = append(convs, conv)
	}
	r.mu.RUnlock()

	sort.Slice(convs, func(i, j int) bool {
		return convs[i].CreatedAt.After(convs[j].CreatedAt)
	})
	return convs
}
