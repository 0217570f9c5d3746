package cache

import (
	"context"
	"errors"
	"log/slog"
)

// Layered reads through a fast front store to a slower back store. Writes go
// to the back store first, then the front. The back store is authoritative:
// front failures are logged and never fail a read.
type Layered struct {
	front Store
	back  Store
	log   *slog.Logger
}

func NewLayered(front, back Store, log *slog.Logger) *Layered {
	if log == nil {
		log = slog.Default()
	}
	return &Layered{front: front, back: back, log: log}
}

func (c *Layered) Get(ctx context.Context, phrase string) (string, bool, error) {
	v, ok, err := c.front.Get(ctx, phrase)
	if err != nil {
		c.log.Warn("front cache get failed", "phrase", phrase, "error", err)
	} else if ok {
		return v, true, nil
	}
	v, ok, err = c.back.Get(ctx, phrase)
	if err != nil || !ok {
		return "", false, err
	}
	if err := c.front.Set(ctx, phrase, v); err != nil {
		c.log.Warn("front cache fill failed", "phrase", phrase, "error", err)
	}
	return v, true, nil
}

func (c *Layered) Set(ctx context.Context, phrase, value string) error {
	if err := c.back.Set(ctx, phrase, value); err != nil {
		return err
	}
	return c.front.Set(ctx, phrase, value)
}

func (c *Layered) Delete(ctx context.Context, phrase string) error {
	return errors.Join(c.back.Delete(ctx, phrase), c.front.Delete(ctx, phrase))
}

func (c *Layered) Close() error {
	return errors.Join(c.back.Close(), c.front.Close())
}
