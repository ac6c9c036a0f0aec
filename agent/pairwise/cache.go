package pairwise

import (
	"sync"

	"github.com/golang/glog"
)

// Cache keeps the connections in memory keyed by their DID. Entries are
// never replaced, the first materialized connection wins. Cache is owned by
// one agent connection, it isn't a global.
type Cache struct {
	cache map[string]*Connection
	sync.RWMutex
}

// Add inserts the connection unless its DID is already cached. It returns
// the cached connection.
func (c *Cache) Add(conn *Connection) *Connection {
	c.Lock()
	defer c.Unlock()

	if c.cache == nil {
		c.cache = make(map[string]*Connection)
	}
	if old, found := c.cache[conn.TheirDID]; found {
		return old
	}
	c.cache[conn.TheirDID] = conn
	glog.V(3).Infoln("pairwise cached:", conn)
	return conn
}

func (c *Cache) Get(theirDID string) (*Connection, bool) {
	c.RLock()
	defer c.RUnlock()

	conn, found := c.cache[theirDID]
	return conn, found
}

func (c *Cache) Len() int {
	c.RLock()
	defer c.RUnlock()
	return len(c.cache)
}

// All returns a snapshot of the cached connections.
func (c *Cache) All() []*Connection {
	c.RLock()
	defer c.RUnlock()

	all := make([]*Connection, 0, len(c.cache))
	for _, conn := range c.cache {
		all = append(all, conn)
	}
	return all
}
