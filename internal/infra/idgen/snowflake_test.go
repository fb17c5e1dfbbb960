package idgen

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
	// advance is added after every read when non-zero.
	advance time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.advance)
	return now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name    string
		nodeID  int64
		wantErr bool
	}{
		{"min", 0, false},
		{"mid", 512, false},
		{"max", 1023, false},
		{"negative", -1, true},
		{"too large", 1024, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGenerator(tt.nodeID)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidNodeID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.nodeID, g.NodeID())
		})
	}
}

func TestNextID_Layout(t *testing.T) {
	// Arrange
	at := time.UnixMilli(Epoch + 1000)
	clock := &fakeClock{now: at}
	g, err := NewGenerator(5, WithClock(clock.Now))
	require.NoError(t, err)

	// Act
	first, err := g.NextID()
	require.NoError(t, err)
	second, err := g.NextID()
	require.NoError(t, err)

	// Assert
	assert.Equal(t, int64(1000<<22|5<<12), first)
	assert.Equal(t, first+1, second)
	c := Parse(second)
	assert.Equal(t, at.UTC(), c.Time)
	assert.Equal(t, int64(5), c.NodeID)
	assert.Equal(t, int64(1), c.Sequence)
}

func TestNextID_SequenceResetsOnNewMillisecond(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(Epoch + 10)}
	g, _ := NewGenerator(1, WithClock(clock.Now))

	_, _ = g.NextID()
	_, _ = g.NextID()
	clock.Set(time.UnixMilli(Epoch + 11))
	id, err := g.NextID()

	require.NoError(t, err)
	assert.Equal(t, int64(0), Parse(id).Sequence)
}

func TestNextID_Unique(t *testing.T) {
	g, err := NewGenerator(1)
	require.NoError(t, err)

	seen := make(map[int64]struct{}, 10000)
	var last int64
	for i := 0; i < 10000; i++ {
		id, err := g.NextID()
		require.NoError(t, err)
		require.Greater(t, id, last)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %d", id)
		seen[id] = struct{}{}
		last = id
	}
}

func TestNextID_Concurrent(t *testing.T) {
	// Arrange
	g, err := NewGenerator(7)
	require.NoError(t, err)
	const workers, perWorker = 16, 2000
	results := make(chan int64, workers*perWorker)

	// Act
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id, err := g.NextID()
				if err != nil {
					t.Error(err)
					return
				}
				results <- id
			}
		}()
	}
	wg.Wait()
	close(results)

	// Assert
	seen := make(map[int64]struct{}, workers*perWorker)
	for id := range results {
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %d", id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, workers*perWorker)
}

func TestNextID_SequenceWrapWaitsForNextMillisecond(t *testing.T) {
	// Arrange
	clock := &fakeClock{now: time.UnixMilli(Epoch + 100)}
	g, _ := NewGenerator(1, WithClock(clock.Now))
	for i := 0; i <= maxSequence; i++ {
		_, err := g.NextID()
		require.NoError(t, err)
	}
	clock.advance = time.Millisecond

	// Act
	id, err := g.NextID()

	// Assert
	require.NoError(t, err)
	c := Parse(id)
	assert.Equal(t, int64(0), c.Sequence)
	assert.Greater(t, c.Time.UnixMilli(), Epoch+100)
}

func TestNextID_ClockStalled(t *testing.T) {
	// Arrange
	clock := &fakeClock{now: time.UnixMilli(Epoch + 100)}
	g, _ := NewGenerator(1, WithClock(clock.Now), WithMaxWait(2*time.Millisecond))
	issued := make(map[int64]struct{})
	for i := 0; i <= maxSequence; i++ {
		id, err := g.NextID()
		require.NoError(t, err)
		issued[id] = struct{}{}
	}

	// Act
	_, err := g.NextID()
	_, again := g.NextID()

	// Assert
	assert.ErrorIs(t, err, ErrClockStalled)
	assert.ErrorIs(t, again, ErrClockStalled)

	clock.Set(time.UnixMilli(Epoch + 101))
	id, err := g.NextID()
	require.NoError(t, err)
	_, dup := issued[id]
	assert.False(t, dup)
}

func TestNextID_ClockRegression(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(Epoch + 500)}
	g, _ := NewGenerator(1, WithClock(clock.Now))
	_, err := g.NextID()
	require.NoError(t, err)

	clock.Set(time.UnixMilli(Epoch + 499))
	_, err = g.NextID()

	assert.ErrorIs(t, err, ErrClockRegression)
}
