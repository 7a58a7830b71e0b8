package udpcore

import (
	"net"
	"time"
)

// Packet is an owning container for one received datagram: its payload, the
// peer it arrived from, and the monotonic time it was read off the socket.
// A Packet is immutable once constructed; there is no mutation after it is
// handed to a RequestQueue.
type Packet struct {
	buf      []byte
	peer     *net.UDPAddr
	recvTime time.Time
}

// NewPacket copies size bytes out of buf and stamps recvTime. The caller's
// buf is never retained, so it is safe to reuse (e.g. a pooled receive
// buffer) immediately after this call returns.
func NewPacket(buf []byte, peer *net.UDPAddr, recvTime time.Time) *Packet {
	owned := make([]byte, len(buf))
	copy(owned, buf)
	return &Packet{buf: owned, peer: peer, recvTime: recvTime}
}

// Buffer returns the packet's payload. Callers must not modify it.
func (p *Packet) Buffer() []byte { return p.buf }

// Size returns the payload length in bytes.
func (p *Packet) Size() int { return len(p.buf) }

// Peer returns the address the datagram arrived from.
func (p *Packet) Peer() *net.UDPAddr { return p.peer }

// RecvTime returns the monotonic time the packet was read off the socket.
func (p *Packet) RecvTime() time.Time { return p.recvTime }

// Age returns how long ago the packet was received.
func (p *Packet) Age() time.Duration { return time.Since(p.recvTime) }
