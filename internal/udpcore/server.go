package udpcore

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jroosing/udpforge/internal/pool"
)

// maxDatagramSize bounds the receive buffer; UDP payloads larger than this
// are truncated by the kernel before userspace ever sees them.
const maxDatagramSize = 65535

var recvBufferPool = pool.New(func() *[]byte {
	buf := make([]byte, maxDatagramSize)
	return &buf
})

// ClassifyFunc maps a received packet to a RequestGroup index in
// [0, groupCount). Returning an out-of-range index drops the packet and
// increments the classify-drop counter. A nil ClassifyFunc behaves as
// "always group 0".
type ClassifyFunc func(p *Packet) int

// ProcessFunc is invoked once per dequeued packet by the worker that
// extracted it. A returned error is captured and counted; it never
// terminates the worker. Implementations that want to react to cooperative
// shutdown mid-processing should poll Worker.Terminated between checkpoints.
type ProcessFunc func(w *Worker, p *Packet) error

// Config is the embedder-supplied configuration surface for a MainServer.
type Config struct {
	// LocalPort is the UDP port to bind. Required.
	LocalPort int
	// ListenerThreadCount is the number of listener goroutines/sockets.
	// Defaults to 1 if <= 0.
	ListenerThreadCount int
	// TickInterval is the supervisor's cadence for WorkerPool.Tick. Defaults
	// to 1 second if <= 0.
	TickInterval time.Duration
	// Groups configures one RequestGroup per entry. Must be non-empty.
	Groups []GroupConfig
}

// MainServer owns the UDP listener(s) and the vector of RequestGroups,
// routing each inbound datagram to exactly one group and orchestrating
// startup/shutdown.
type MainServer struct {
	cfg      Config
	classify ClassifyFunc
	process  ProcessFunc
	logger   *slog.Logger
	metrics  Metrics

	mu           sync.Mutex
	groups       []*RequestGroup
	conns        []*net.UDPConn
	wg           sync.WaitGroup
	shuttingDown atomic.Bool
	tickStop     chan struct{}
	open         bool
}

// New constructs a MainServer. process must not be nil; classify may be nil
// (always routes to group 0).
func New(cfg Config, classify ClassifyFunc, process ProcessFunc, logger *slog.Logger) *MainServer {
	if classify == nil {
		classify = func(*Packet) int { return 0 }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MainServer{cfg: cfg, classify: classify, process: process, logger: logger}
}

// Metrics returns a snapshot combining the server's own counters (classify
// drops, packets routed, listener errors) with the sum of every group's
// counters (evictions, age-drops, process errors, zombies). Use
// RequestGroup.Metrics for a single group's breakdown.
func (s *MainServer) Metrics() MetricsSnapshot {
	snap := s.metrics.Snapshot()
	for _, g := range s.Groups() {
		gs := g.Metrics()
		snap.Evictions += gs.Evictions
		snap.AgeDrops += gs.AgeDrops
		snap.ProcessErrors += gs.ProcessErrors
		snap.Zombies += gs.Zombies
	}
	return snap
}

// Groups returns the server's RequestGroups, for inspection (e.g. by an
// admin surface). The slice must not be mutated.
func (s *MainServer) Groups() []*RequestGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*RequestGroup, len(s.groups))
	copy(out, s.groups)
	return out
}

// Open validates the configuration, builds a fresh set of RequestGroups,
// binds ListenerThreadCount UDP sockets, and starts the listener and
// supervisor goroutines. It returns only bind/validation errors; everything
// downstream of a successful Open is absorbed into Metrics and logs.
func (s *MainServer) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return errors.New("udpcore: server already open")
	}
	if err := validateConfig(s.cfg); err != nil {
		return err
	}

	listenerCount := s.cfg.ListenerThreadCount
	if listenerCount <= 0 {
		listenerCount = 1
	}
	tickInterval := s.cfg.TickInterval
	if tickInterval <= 0 {
		tickInterval = time.Second
	}

	groups := make([]*RequestGroup, len(s.cfg.Groups))
	for i, gc := range s.cfg.Groups {
		g := newRequestGroup(s, i, gc)
		if gc.MinThreads > 0 {
			g.pool.Grow(gc.MinThreads)
		}
		groups[i] = g
	}

	addr := fmt.Sprintf(":%d", s.cfg.LocalPort)
	conns := make([]*net.UDPConn, listenerCount)
	for i := 0; i < listenerCount; i++ {
		conn, err := listenReusePort(addr)
		if err != nil {
			for _, c := range conns {
				if c != nil {
					_ = c.Close()
				}
			}
			return fmt.Errorf("udpcore: bind listener %d: %w", i, err)
		}
		conns[i] = conn
	}

	s.groups = groups
	s.conns = conns
	s.shuttingDown.Store(false)
	s.tickStop = make(chan struct{})
	s.open = true

	for i, conn := range conns {
		i, conn := i, conn
		s.wg.Add(1)
		go s.listenerLoop(i, addr, conn)
	}

	s.wg.Add(1)
	go s.superviseLoop(tickInterval)

	return nil
}

func validateConfig(cfg Config) error {
	if cfg.LocalPort <= 0 || cfg.LocalPort > 65535 {
		return errors.New("udpcore: LocalPort must be 1..65535")
	}
	if len(cfg.Groups) == 0 {
		return errors.New("udpcore: at least one group is required")
	}
	for i, g := range cfg.Groups {
		if g.Capacity <= 0 {
			return fmt.Errorf("udpcore: group %d: Capacity must be > 0", i)
		}
		if g.MaxThreads < g.MinThreads {
			return fmt.Errorf("udpcore: group %d: MaxThreads must be >= MinThreads", i)
		}
	}
	return nil
}

// listenerLoop owns one socket for the server's lifetime, restarting on any
// non-shutdown socket error (spec §7: listener failures are logged and
// restarted unless shutdown is in progress).
func (s *MainServer) listenerLoop(index int, addr string, conn *net.UDPConn) {
	defer s.wg.Done()

	for {
		if s.shuttingDown.Load() {
			_ = conn.Close()
			return
		}

		err := s.recvLoop(conn)
		if s.shuttingDown.Load() {
			return
		}

		s.metrics.incListenerErrors()
		s.logger.Warn("udpcore: listener error, restarting", "index", index, "err", err)

		newConn, rerr := listenReusePort(addr)
		if rerr != nil {
			s.logger.Error("udpcore: listener rebind failed, retrying", "index", index, "err", rerr)
			time.Sleep(time.Second)
			continue
		}
		conn = newConn
		s.mu.Lock()
		if index < len(s.conns) {
			s.conns[index] = conn
		}
		s.mu.Unlock()
	}
}

// recvLoop reads datagrams from conn until it errors. A read-deadline keeps
// the loop responsive to shutdown even if no traffic arrives.
func (s *MainServer) recvLoop(conn *net.UDPConn) error {
	for {
		if s.shuttingDown.Load() {
			return nil
		}

		_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		bufPtr := recvBufferPool.Get()
		buf := *bufPtr

		n, peer, err := conn.ReadFromUDP(buf)
		if err != nil {
			recvBufferPool.Put(bufPtr)
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return err
		}

		pkt := NewPacket(buf[:n], peer, time.Now())
		recvBufferPool.Put(bufPtr)
		s.route(pkt)
	}
}

func (s *MainServer) route(pkt *Packet) {
	idx := s.classify(pkt)

	s.mu.Lock()
	groups := s.groups
	s.mu.Unlock()

	if idx < 0 || idx >= len(groups) {
		s.metrics.incClassifyDrops()
		return
	}
	groups[idx].Dispatch(pkt)
	s.metrics.incPacketsRouted()
}

func (s *MainServer) superviseLoop(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.tickStop:
			return
		case <-ticker.C:
			s.AdjustWorkerCount()
		}
	}
}

// AdjustWorkerCount synchronously fans WorkerPool.Tick out across every
// group. Exposed so an embedder can drive scaling on its own schedule
// instead of (or in addition to) the internal supervisor.
func (s *MainServer) AdjustWorkerCount() {
	for _, g := range s.Groups() {
		g.pool.Tick()
	}
}

// Close stops the listeners, then terminates and drains every group's
// worker pool. It is idempotent-safe to call once per successful Open; a
// second Open after Close starts the server fresh.
func (s *MainServer) Close() error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return nil
	}
	s.shuttingDown.Store(true)
	close(s.tickStop)
	conns := make([]*net.UDPConn, len(s.conns))
	copy(conns, s.conns)
	groups := make([]*RequestGroup, len(s.groups))
	copy(groups, s.groups)
	s.mu.Unlock()

	for _, c := range conns {
		if c != nil {
			_ = c.Close()
		}
	}
	s.wg.Wait()

	for _, g := range groups {
		g.pool.TerminateAll()
		g.pool.WaitForAll()
		g.queue.Clear()
	}

	s.mu.Lock()
	s.open = false
	s.groups = nil
	s.conns = nil
	s.mu.Unlock()

	return nil
}
