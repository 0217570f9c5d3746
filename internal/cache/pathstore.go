package cache

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dgallion1/iparuby/internal/pathstore"
)

const pathstorePrefix = "ipa/phrases/"

// Pathstore keeps phrases in a shared pathstore instance.
type Pathstore struct {
	client *pathstore.Client
}

func NewPathstore(client *pathstore.Client) *Pathstore {
	return &Pathstore{client: client}
}

func pathstoreKey(phrase string) string {
	return pathstorePrefix + url.PathEscape(phrase)
}

func (c *Pathstore) Get(ctx context.Context, phrase string) (string, bool, error) {
	node, err := c.client.GetNode(ctx, pathstoreKey(phrase))
	if err != nil {
		return "", false, err
	}
	if node == nil {
		return "", false, nil
	}
	v, ok := node.Value.(string)
	if !ok {
		return "", false, fmt.Errorf("pathstore %s: value is %T, not a string", node.Key, node.Value)
	}
	return v, true, nil
}

func (c *Pathstore) Set(ctx context.Context, phrase, value string) error {
	return c.client.PutNode(ctx, pathstoreKey(phrase), pathstore.NodeRequest{
		Value:     value,
		MergeMode: "replace",
		Source:    "iparuby",
	})
}

func (c *Pathstore) Delete(ctx context.Context, phrase string) error {
	return c.client.DeleteNode(ctx, pathstoreKey(phrase), false)
}

func (c *Pathstore) Close() error {
	c.client.Close()
	return nil
}
