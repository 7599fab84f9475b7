package tenantlock

import (
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyed_SerializesSameTenant(t *testing.T) {
	node, err := snowflake.NewNode(6)
	require.NoError(t, err)

	locks := NewKeyed()
	tenantID := node.Generate()

	const writers = 50
	counter := 0

	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_ = locks.WithLock(tenantID, func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, writers, counter)
}

func TestKeyed_ReclaimsEntries(t *testing.T) {
	node, err := snowflake.NewNode(6)
	require.NoError(t, err)

	locks := NewKeyed()
	for i := 0; i < 10; i++ {
		_ = locks.WithLock(node.Generate(), func() error { return nil })
	}

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.entries)
}
