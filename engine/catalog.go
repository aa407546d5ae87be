package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tarungka/ripple/stream"
)

// ObserverFactory builds the downstream observer of a root. It is called
// once for the original subscription and again every time the root is
// recovered.
type ObserverFactory func(uri string) stream.Observer

// Definition is a query: the operator tree to run and where its output
// goes.
type Definition struct {
	Operator stream.Operator
	// Observer may be nil, in which case output is logged.
	Observer ObserverFactory
}

// Catalog holds the query definitions of an engine by URI. Recovery looks
// definitions up here to rebuild the trees named in a checkpoint.
type Catalog struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{defs: make(map[string]Definition)}
}

// Register adds def under uri.
func (c *Catalog) Register(uri string, def Definition) error {
	if def.Operator == nil {
		return fmt.Errorf("%w: %s", ErrInvalidDefinition, uri)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.defs[uri]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateQuery, uri)
	}
	c.defs[uri] = def
	return nil
}

// Lookup returns the definition registered under uri.
func (c *Catalog) Lookup(uri string) (Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.defs[uri]
	return def, ok
}

// URIs returns every registered URI in sorted order.
func (c *Catalog) URIs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	uris := make([]string, 0, len(c.defs))
	for uri := range c.defs {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}
