package chat

import (
	"sync"

	"gptchat/clients/openai"
)

// Clients holds the live conversation of every session opened by this process.
// Conversations are in memory only, a session archived by an earlier process has none.
type Clients struct {
	mu      sync.RWMutex
	items   map[int]*openai.Client
	factory func() *openai.Client
}

// NewClients creates *Clients, factory is called once per opened session.
func NewClients(factory func() *openai.Client) *Clients {
	return &Clients{
		items:   make(map[int]*openai.Client),
		factory: factory,
	}
}

// Open returns the conversation of sessionID, starting one if there is none yet.
func (c *Clients) Open(sessionID int) *openai.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ret, ok := c.items[sessionID]; ok {
		return ret
	}
	ret := c.factory()
	c.items[sessionID] = ret
	return ret
}

func (c *Clients) Get(sessionID int) (*openai.Client, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ret, ok := c.items[sessionID]
	return ret, ok
}
