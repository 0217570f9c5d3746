package cache

import (
	"context"
	"sync"
)

// Memory is an in-process cache.
type Memory struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemory() *Memory {
	return &Memory{m: make(map[string]string)}
}

func (c *Memory) Get(_ context.Context, phrase string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[phrase]
	return v, ok, nil
}

func (c *Memory) Set(_ context.Context, phrase, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[phrase] = value
	return nil
}

func (c *Memory) Delete(_ context.Context, phrase string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, phrase)
	return nil
}

// Len returns the number of cached phrases.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

func (c *Memory) Close() error { return nil }
