package pairwise

import (
	"fmt"
	"sync"
	"testing"

	"github.com/findy-network/findy-agent-conn/agent/mesg"
	"github.com/lainio/err2/assert"
)

func TestCache_Add(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	c := Cache{}
	_, found := c.Get("D2")
	assert.That(!found)

	first := &Connection{MyDID: "D1", TheirDID: "D2", TheirVerkey: "VK2"}
	assert.Equal(c.Add(first), first)
	second := &Connection{MyDID: "D3", TheirDID: "D2", TheirVerkey: "VK4"}
	assert.Equal(c.Add(second), first)

	got, found := c.Get("D2")
	assert.That(found)
	assert.Equal(got.MyDID, "D1")
	assert.Equal(c.Len(), 1)
	assert.Equal(len(c.All()), 1)
}

func TestCache_Concurrent(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	c := &Cache{}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			did := fmt.Sprint("D", i%10)
			c.Add(&Connection{MyDID: fmt.Sprint("M", i), TheirDID: did})
			_, _ = c.Get(did)
		}(i)
	}
	wg.Wait()
	assert.Equal(c.Len(), 10)
}

func TestFromEntry(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	e := &mesg.PairwiseEntry{MyDID: "D1", TheirDID: "D2",
		Metadata: mesg.PairwiseMeta{TheirVerkey: "VK", TheirEndpoint: "http://x",
			ConnectionKey: "CK"}}
	conn := FromEntry(e)
	assert.DeepEqual(*conn, Connection{MyDID: "D1", TheirDID: "D2",
		TheirVerkey: "VK", TheirEndpoint: "http://x"})
	assert.Equal(conn.String(), "D1 <-> D2")
}
