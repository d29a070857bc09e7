package capsule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/trion-lang/trion/trionerr"
)

func TestLifecycleObservation(t *testing.T) {
	var mu sync.Mutex
	var events []EventKind

	RegisterEventCallback(func(kind EventKind, name string, id uuid.UUID) {
		if name != "w-lifecycle-observation" {
			return
		}
		mu.Lock()
		events = append(events, kind)
		mu.Unlock()
	})

	c, err := Create("w-lifecycle-observation", func(c *Capsule, userCtx any) {
		time.Sleep(10 * time.Millisecond)
	}, nil)
	require.NoError(t, err)

	require.NoError(t, c.Start())
	c.Join()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []EventKind{EventStart, EventStop}, events)
}

func TestDestroyIsQuiescent(t *testing.T) {
	var mu sync.Mutex
	var count int

	RegisterEventCallback(func(kind EventKind, name string, id uuid.UUID) {
		if name == "w-destroy-quiescent" {
			mu.Lock()
			count++
			mu.Unlock()
		}
	})

	c, err := Create("w-destroy-quiescent", func(c *Capsule, userCtx any) {}, nil)
	require.NoError(t, err)
	require.NoError(t, c.Start())
	c.Destroy()

	mu.Lock()
	seen := count
	mu.Unlock()
	require.Equal(t, 2, seen) // start + stop, and no more after Destroy returns

	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 2, count)
}

func TestStartTwiceFails(t *testing.T) {
	c, err := Create("w-start-twice", func(c *Capsule, userCtx any) {
		time.Sleep(20 * time.Millisecond)
	}, nil)
	require.NoError(t, err)
	require.NoError(t, c.Start())
	err = c.Start()
	require.ErrorIs(t, err, trionerr.ErrAlreadyRunning)
	c.Destroy()
}

func TestSendAndReceiveViaEntry(t *testing.T) {
	received := make(chan any, 1)
	c, err := Create("w-send-recv", func(c *Capsule, userCtx any) {
		v, err := c.inbox.Recv(context.Background())
		if err == nil {
			received <- v
		}
	}, nil)
	require.NoError(t, err)
	require.NoError(t, c.Start())
	require.NoError(t, c.Send(context.Background(), "hello"))

	select {
	case v := <-received:
		require.Equal(t, "hello", v)
	case <-time.After(time.Second):
		t.Fatal("entry never received the message")
	}
	c.Destroy()
}
