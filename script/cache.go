package script

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Loader reads script source by path.
type Loader func(path string) ([]byte, error)

// Cache compiles each script path once.
type Cache struct {
	mu     sync.Mutex
	load   Loader
	logger *slog.Logger
	hooks  map[string]*Hook
}

func NewCache(load Loader, logger *slog.Logger) *Cache {
	return &Cache{load: load, logger: logger, hooks: map[string]*Hook{}}
}

// Hook returns the compiled hook for path.
func (c *Cache) Hook(path string) (*Hook, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("script path is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.hooks[path]; ok {
		return h, nil
	}
	if c.load == nil {
		return nil, fmt.Errorf("no script loader configured")
	}
	src, err := c.load(path)
	if err != nil {
		return nil, err
	}
	h, err := Compile(path, src, c.logger)
	if err != nil {
		return nil, err
	}
	c.hooks[path] = h
	return h, nil
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.hooks)
}

// Reset drops every compiled hook.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = map[string]*Hook{}
}
