// Package udpcore implements a concurrent UDP server engine: one or more
// listener goroutines receive datagrams and route each into one of several
// RequestGroups, each backed by a bounded RequestQueue and an adaptively
// sized WorkerPool.
//
// Goroutine Model:
//
//   - 1 listener goroutine per configured listener socket (SO_REUSEPORT),
//     reading datagrams and dispatching them to a RequestGroup's queue.
//   - N worker goroutines per RequestGroup, grown and shrunk by that group's
//     WorkerPool in response to load (WorkerPool.Tick).
//   - 1 supervisor goroutine ticking every group's WorkerPool on a fixed
//     cadence.
//
// All goroutines share a single shutdown signal (MainServer.Close). Workers
// never interrupt user processing; they exit only when they next attempt to
// extract from their queue and find both "no packet" and "terminated" true.
//
// Error Handling:
//
// Socket and processing errors are absorbed into internal/udpcore.Metrics
// counters and logged; only MainServer.Open can return an error to the
// caller, per the engine's error taxonomy.
package udpcore
