package capsule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolStartWaitDestroy(t *testing.T) {
	p := NewPool()
	names := []string{"pool-a", "pool-b", "pool-c"}
	for _, name := range names {
		c, err := Create(name, func(c *Capsule, userCtx any) {
			time.Sleep(5 * time.Millisecond)
		}, nil)
		require.NoError(t, err)
		p.Add(c)
	}

	require.NoError(t, p.StartAll(context.Background()))
	p.Wait()
	p.DestroyAll()
}

func TestPoolStartAllSurfacesFirstFailure(t *testing.T) {
	p := NewPool()
	c, err := Create("pool-already-running", func(c *Capsule, userCtx any) {
		time.Sleep(20 * time.Millisecond)
	}, nil)
	require.NoError(t, err)
	require.NoError(t, c.Start())
	p.Add(c)

	err = p.StartAll(context.Background())
	require.Error(t, err)
	c.Destroy()
}
