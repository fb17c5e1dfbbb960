// Package idgen generates Snowflake ids: 41 bits of milliseconds since a
// custom epoch, 10 bits of node id and 12 bits of per-millisecond sequence.
package idgen

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"
)

const (
	// Epoch is 2023-01-01T00:00:00Z in milliseconds.
	Epoch int64 = 1672531200000

	timestampBits = 41
	nodeBits      = 10
	sequenceBits  = 12

	MaxNodeID   = (1 << nodeBits) - 1
	maxSequence = (1 << sequenceBits) - 1

	nodeShift      = sequenceBits
	timestampShift = sequenceBits + nodeBits

	defaultMaxWait = 50 * time.Millisecond
)

var (
	ErrInvalidNodeID   = errors.New("idgen: node id must be between 0 and 1023")
	ErrClockRegression = errors.New("idgen: clock moved backwards")
	ErrClockStalled    = errors.New("idgen: clock did not advance after sequence exhaustion")
)

// Clock returns the current time.
type Clock func() time.Time

// Option configures a Generator.
type Option func(*Generator)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(g *Generator) { g.clock = c }
}

// WithMaxWait bounds how long NextID spins for the next millisecond once the
// sequence is exhausted.
func WithMaxWait(d time.Duration) Option {
	return func(g *Generator) { g.maxWait = d }
}

// Generator is safe for concurrent use. One instance per process.
type Generator struct {
	mu            sync.Mutex
	nodeID        int64
	lastTimestamp int64
	sequence      int64

	clock   Clock
	maxWait time.Duration
}

// NewGenerator creates a generator for the given node id.
func NewGenerator(nodeID int64, opts ...Option) (*Generator, error) {
	if nodeID < 0 || nodeID > MaxNodeID {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidNodeID, nodeID)
	}
	g := &Generator{
		nodeID:        nodeID,
		lastTimestamp: -1,
		clock:         time.Now,
		maxWait:       defaultMaxWait,
	}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

// NodeID returns the configured node id.
func (g *Generator) NodeID() int64 {
	return g.nodeID
}

// NextID returns the next id. Ids from one generator are strictly increasing.
func (g *Generator) NextID() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.now()
	if ts < g.lastTimestamp {
		return 0, fmt.Errorf("%w: last=%d current=%d", ErrClockRegression, g.lastTimestamp, ts)
	}

	if ts == g.lastTimestamp {
		seq := (g.sequence + 1) & maxSequence
		if seq == 0 {
			next, err := g.waitNextMillisecond()
			if err != nil {
				return 0, err
			}
			ts = next
		}
		g.sequence = seq
	} else {
		g.sequence = 0
	}
	g.lastTimestamp = ts

	return ((ts - Epoch) << timestampShift) | (g.nodeID << nodeShift) | g.sequence, nil
}

// waitNextMillisecond spins until the clock passes lastTimestamp. The bound is
// real time so a frozen injected clock still terminates.
func (g *Generator) waitNextMillisecond() (int64, error) {
	deadline := time.Now().Add(g.maxWait)
	for {
		ts := g.now()
		if ts > g.lastTimestamp {
			return ts, nil
		}
		if ts < g.lastTimestamp {
			return 0, fmt.Errorf("%w: last=%d current=%d", ErrClockRegression, g.lastTimestamp, ts)
		}
		if time.Now().After(deadline) {
			return 0, fmt.Errorf("%w: waited %s", ErrClockStalled, g.maxWait)
		}
		runtime.Gosched()
	}
}

func (g *Generator) now() int64 {
	return g.clock().UnixMilli()
}

// Components is an id split into its fields.
type Components struct {
	Time     time.Time
	NodeID   int64
	Sequence int64
}

// Parse splits an id produced by a Generator.
func Parse(id int64) Components {
	return Components{
		Time:     time.UnixMilli((id >> timestampShift) + Epoch).UTC(),
		NodeID:   (id >> nodeShift) & MaxNodeID,
		Sequence: id & maxSequence,
	}
}
