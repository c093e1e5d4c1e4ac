// Package monitor reads the ticker event stream a board writes over USB
package monitor

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"tickerfree/core"
	"tickerfree/host/serial"
	"tickerfree/protocol"
)

// MessageHandler receives each decoded message and its frame sequence
type MessageHandler func(seq uint8, msg core.Message)

// Stats counts what the monitor has seen so far
type Stats struct {
	Frames    uint32 // Valid frames
	BadFrames uint32 // Frames dropped for length, sequence, sync or CRC errors
	BadData   uint32 // Valid frames whose payload could not be decoded
	Gaps      uint32 // Sequence numbers skipped, i.e. frames lost in transit
}

// Monitor decodes frames from a port and hands messages to a handler
type Monitor struct {
	port    io.ReadCloser
	handler MessageHandler

	fifo    *protocol.FifoBuffer
	decoder *protocol.Decoder

	// Serial reads report EOF when the read timeout expires on an idle link
	idleEOF bool
	closed  atomic.Bool

	haveSeq bool
	lastSeq uint8
	stats   Stats
}

// New creates a Monitor reading from port
func New(port io.ReadCloser, handler MessageHandler) *Monitor {
	m := &Monitor{
		port:    port,
		handler: handler,
		fifo:    protocol.NewFifoBuffer(1024),
	}
	m.decoder = protocol.NewDecoder(m.handleFrame)
	return m
}

// Open opens a serial device and returns a Monitor for it
func Open(cfg *serial.Config, handler MessageHandler) (*Monitor, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	// Drop whatever was queued before we attached
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to flush %s: %w", cfg.Device, err)
	}
	m := New(port, handler)
	m.idleEOF = true
	return m, nil
}

// Run reads until Close is called or the port fails. Ports not opened
// with Open also stop at EOF. Only a read failure returns an error.
func (m *Monitor) Run() error {
	buf := make([]byte, 256)
	for {
		n, err := m.port.Read(buf)
		if n > 0 {
			m.Feed(buf[:n])
		}
		if m.closed.Load() {
			return nil
		}
		if errors.Is(err, io.EOF) {
			if m.idleEOF {
				continue
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("serial read failed: %w", err)
		}
	}
}

// Feed pushes raw bytes through the decoder
func (m *Monitor) Feed(data []byte) {
	for len(data) > 0 {
		written := m.fifo.Write(data)
		data = data[written:]
		m.fifo.Pop(m.decoder.Decode(m.fifo.Data()))

		if written == 0 && m.fifo.Free() == 0 {
			// A full buffer with no frame in it is garbage
			m.fifo.Reset()
		}
	}
}

// Stats returns the counters collected so far
func (m *Monitor) Stats() Stats {
	s := m.stats
	s.Frames = m.decoder.Frames
	s.BadFrames = m.decoder.BadFrames
	return s
}

// Close closes the underlying port and makes Run return
func (m *Monitor) Close() error {
	m.closed.Store(true)
	return m.port.Close()
}

func (m *Monitor) handleFrame(seq uint8, payload []byte) {
	if m.haveSeq {
		expected := protocol.MessageDest | ((m.lastSeq + 1) & protocol.MessageSeqMask)
		if seq != expected {
			m.stats.Gaps += uint32((seq - expected) & protocol.MessageSeqMask)
		}
	}
	m.haveSeq = true
	m.lastSeq = seq

	msg, err := core.DecodeMessage(payload)
	if err != nil {
		m.stats.BadData++
		return
	}
	if m.handler != nil {
		m.handler(seq, msg)
	}
}

// Format renders a message for display
func Format(msg core.Message) string {
	switch msg.ID {
	case protocol.MsgTickerEvent:
		return core.FormatEvent(msg.Event)
	case protocol.MsgDebugText:
		return "[DEBUG] " + msg.Text
	default:
		return fmt.Sprintf("[UNKNOWN] id=%d", msg.ID)
	}
}
