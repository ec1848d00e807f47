// Package visualiser fans frame updates out to remote viewers. The Publisher
// is a player renderer that keeps the latest frame and copies every update to
// each subscriber's buffered channel, dropping frames for slow subscribers
// instead of blocking the frame loop. Subscribers are the gRPC stream in this
// package and the websocket route in internal/api.
package visualiser

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/motion.report/internal/animation"
	"github.com/banshee-data/motion.report/internal/monitoring"
)

// Config holds publisher and gRPC server settings.
type Config struct {
	// ListenAddr is the gRPC listen address (e.g., "localhost:50051")
	ListenAddr string

	// MaxClients caps concurrent subscribers across all transports
	MaxClients int

	// QueueSize is the depth of the shared frame queue
	QueueSize int

	// ClientBuffer is the depth of each subscriber's queue
	ClientBuffer int

	// StatsInterval is how often throughput is logged (default: 5s)
	StatsInterval time.Duration
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		ListenAddr:    "localhost:50051",
		MaxClients:    16,
		QueueSize:     100,
		ClientBuffer:  10,
		StatsInterval: monitoring.DefaultMeterInterval,
	}
}

var (
	// ErrTooManyClients is returned by Subscribe when MaxClients is reached.
	ErrTooManyClients = errors.New("visualiser: too many clients")
	// ErrNotRunning is returned by Subscribe before Start or after Stop.
	ErrNotRunning = errors.New("visualiser: publisher not running")
)

// Publisher broadcasts frame updates to subscribers.
type Publisher struct {
	config Config

	frameChan chan animation.FrameUpdate
	clients   map[string]*client
	clientsMu sync.RWMutex

	latest    animation.FrameUpdate
	hasLatest bool
	latestMu  sync.RWMutex

	meter       *monitoring.FrameMeter
	clientCount atomic.Int32

	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

type client struct {
	id      string
	kind    string
	frameCh chan animation.FrameUpdate
	doneCh  chan struct{}

	// last frame handed to frameCh; written by Subscribe before the client
	// is registered, then only by broadcastLoop
	last    animation.FrameUpdate
	hasLast bool
}

// offer queues u unless it repeats the previous frame. It reports false when
// the subscriber's buffer is full.
func (c *client) offer(u animation.FrameUpdate) bool {
	if c.hasLast && sameFrame(c.last, u) {
		return true
	}
	select {
	case c.frameCh <- u:
		c.last, c.hasLast = u, true
		return true
	default:
		return false
	}
}

func sameFrame(a, b animation.FrameUpdate) bool {
	return a.Frame == b.Frame && a.Time == b.Time
}

// Subscription is one subscriber's view of the stream. Frames starts with the
// latest frame, if any, and never repeats a frame back to back. Done is
// closed when the subscriber is removed or the publisher stops.
type Subscription struct {
	ID     string
	Frames <-chan animation.FrameUpdate
	Done   <-chan struct{}
}

// NewPublisher creates a Publisher. Zero config fields take their defaults.
func NewPublisher(cfg Config) *Publisher {
	def := DefaultConfig()
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = def.ListenAddr
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = def.MaxClients
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.ClientBuffer <= 0 {
		cfg.ClientBuffer = def.ClientBuffer
	}
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = def.StatsInterval
	}
	return &Publisher{
		config:    cfg,
		frameChan: make(chan animation.FrameUpdate, cfg.QueueSize),
		clients:   make(map[string]*client),
		meter:     monitoring.NewFrameMeter("Visualiser", cfg.StatsInterval),
		stopCh:    make(chan struct{}),
	}
}

// Config returns the resolved configuration.
func (p *Publisher) Config() Config { return p.config }

// Start starts the broadcast loop.
func (p *Publisher) Start() error {
	if !p.running.CompareAndSwap(false, true) {
		return fmt.Errorf("publisher already running")
	}
	p.wg.Add(1)
	go p.broadcastLoop()
	return nil
}

// Stop stops broadcasting and releases every subscriber. A stopped
// publisher cannot be restarted.
func (p *Publisher) Stop() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.stopCh)
	p.wg.Wait()

	p.clientsMu.Lock()
	for id, c := range p.clients {
		close(c.doneCh)
		delete(p.clients, id)
	}
	p.clientsMu.Unlock()
	p.clientCount.Store(0)
	monitoring.Logf("[Visualiser] Publisher stopped")
}

// Render records u as the latest frame and queues it for subscribers. It
// never blocks; a full queue drops the frame.
func (p *Publisher) Render(u animation.FrameUpdate) error {
	u.Trail = slices.Clone(u.Trail)

	p.latestMu.Lock()
	p.latest = u
	p.hasLatest = true
	p.latestMu.Unlock()

	if !p.running.Load() {
		return nil
	}

	select {
	case p.frameChan <- u:
		p.meter.Frame()
	default:
		dropped := p.meter.Drop()
		monitoring.Logf("[Visualiser] DROPPED frame %d (total dropped: %d), queue full", u.Frame, dropped)
	}
	return nil
}

// Latest returns the most recent frame, if any has been rendered.
func (p *Publisher) Latest() (animation.FrameUpdate, bool) {
	p.latestMu.RLock()
	defer p.latestMu.RUnlock()
	u := p.latest
	u.Trail = slices.Clone(u.Trail)
	return u, p.hasLatest
}

// broadcastLoop distributes frames to all subscribers.
func (p *Publisher) broadcastLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		case frame := <-p.frameChan:
			p.clientsMu.RLock()
			for _, c := range p.clients {
				if !c.offer(frame) {
					// Slow subscriber: drop for this one only.
					p.meter.Drop()
				}
			}
			p.clientsMu.RUnlock()
		}
	}
}

// Subscribe registers a subscriber. kind labels the transport in logs.
func (p *Publisher) Subscribe(kind string) (*Subscription, error) {
	if !p.running.Load() {
		return nil, ErrNotRunning
	}

	c := &client{
		id:      kind + "-" + uuid.NewString(),
		kind:    kind,
		frameCh: make(chan animation.FrameUpdate, p.config.ClientBuffer),
		doneCh:  make(chan struct{}),
	}

	p.clientsMu.Lock()
	// Stop clears the map under this lock after flipping running.
	if !p.running.Load() {
		p.clientsMu.Unlock()
		return nil, ErrNotRunning
	}
	if len(p.clients) >= p.config.MaxClients {
		p.clientsMu.Unlock()
		return nil, ErrTooManyClients
	}
	if u, ok := p.Latest(); ok {
		c.offer(u)
	}
	p.clients[c.id] = c
	p.clientsMu.Unlock()

	total := p.clientCount.Add(1)
	monitoring.Logf("[Visualiser] Client connected: %s (total: %d)", c.id, total)
	return &Subscription{ID: c.id, Frames: c.frameCh, Done: c.doneCh}, nil
}

// Unsubscribe removes a subscriber. Unknown ids are ignored.
func (p *Publisher) Unsubscribe(id string) {
	p.clientsMu.Lock()
	c, ok := p.clients[id]
	if ok {
		close(c.doneCh)
		delete(p.clients, id)
	}
	p.clientsMu.Unlock()

	if ok {
		remaining := p.clientCount.Add(-1)
		monitoring.Logf("[Visualiser] Client disconnected: %s (remaining: %d)", id, remaining)
	}
}

// Stats returns current publisher statistics.
func (p *Publisher) Stats() PublisherStats {
	m := p.meter.Stats()
	return PublisherStats{
		FrameCount:  m.Frames,
		Dropped:     m.Dropped,
		ClientCount: p.clientCount.Load(),
		Running:     p.running.Load(),
	}
}

// PublisherStats contains publisher statistics.
type PublisherStats struct {
	FrameCount  uint64
	Dropped     uint64
	ClientCount int32
	Running     bool
}
