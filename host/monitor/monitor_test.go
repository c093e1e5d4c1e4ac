package monitor

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"tickerfree/core"
	"tickerfree/protocol"
)

// streamPort serves a fixed byte stream in small chunks, then EOF
type streamPort struct {
	r      *bytes.Reader
	chunk  int
	err    error
	closed bool
}

func (p *streamPort) Read(b []byte) (int, error) {
	if len(b) > p.chunk {
		b = b[:p.chunk]
	}
	n, err := p.r.Read(b)
	if err == io.EOF && p.err != nil {
		return n, p.err
	}
	return n, err
}

func (p *streamPort) Close() error {
	p.closed = true
	return nil
}

func boardOutput(t *testing.T) []byte {
	out := protocol.NewScratchOutput()
	rep := core.NewReporter(out)
	rep.HandleEvent(core.Event{OID: 1, Kind: core.EvtStart, Clock: 100, State: core.Running})
	rep.HandleEvent(core.Event{OID: 1, Kind: core.EvtFire, Clock: 600, Counter: 1, State: core.Running})
	rep.Println("led on")
	require.Zero(t, rep.Dropped)
	return append([]byte(nil), out.Result()...)
}

func TestMonitorRun(t *testing.T) {
	chk := require.New(t)
	port := &streamPort{r: bytes.NewReader(boardOutput(t)), chunk: 3}

	var lines []string
	var seqs []uint8
	m := New(port, func(seq uint8, msg core.Message) {
		seqs = append(seqs, seq)
		lines = append(lines, Format(msg))
	})

	chk.NoError(m.Run())
	chk.Equal([]string{
		"[TICKER] START oid=1 clock=100 count=0 state=running",
		"[TICKER] FIRE oid=1 clock=600 count=1 state=running",
		"[DEBUG] led on",
	}, lines)
	chk.Equal([]uint8{0x10, 0x11, 0x12}, seqs)
	chk.Equal(Stats{Frames: 3}, m.Stats())

	chk.NoError(m.Close())
	chk.True(port.closed)
}

// idlePort times out with (0, io.EOF) between bursts of data
type idlePort struct {
	reads  [][]byte
	onIdle func()
	idles  int
}

func (p *idlePort) Read(b []byte) (int, error) {
	if len(p.reads) == 0 {
		p.idles++
		if p.onIdle != nil {
			p.onIdle()
		}
		return 0, io.EOF
	}
	next := p.reads[0]
	p.reads = p.reads[1:]
	if next == nil {
		p.idles++
		return 0, io.EOF
	}
	return copy(b, next), nil
}

func (p *idlePort) Close() error { return nil }

func TestMonitorWaitsThroughIdleTimeouts(t *testing.T) {
	chk := require.New(t)
	stream := boardOutput(t)
	port := &idlePort{reads: [][]byte{nil, nil, stream[:7], nil, stream[7:]}}

	count := 0
	m := New(port, func(uint8, core.Message) { count++ })
	m.idleEOF = true
	port.onIdle = func() {
		chk.Equal(3, count, "every frame arrived before the link went quiet")
		m.Close()
	}

	chk.NoError(m.Run())
	chk.Equal(3, count)
	chk.Equal(4, port.idles)
	chk.Equal(Stats{Frames: 3}, m.Stats())
}

func TestMonitorReadError(t *testing.T) {
	boom := errors.New("device unplugged")
	port := &streamPort{r: bytes.NewReader(nil), chunk: 8, err: boom}

	err := New(port, nil).Run()
	require.ErrorIs(t, err, boom)
}

func TestMonitorCountsGapsAndBadData(t *testing.T) {
	chk := require.New(t)
	out := protocol.NewScratchOutput()
	enc := protocol.NewEncoder(out)

	send := func(payload ...byte) {
		chk.NoError(enc.EncodeFrame(func(o protocol.OutputBuffer) { o.Output(payload) }))
	}
	send(protocol.MsgDebugText, 1, 'a') // seq 0x10
	send(protocol.MsgDebugText, 1, 'b') // seq 0x11, lost below
	send(protocol.MsgDebugText, 1, 'c') // seq 0x12
	send(42)                            // seq 0x13, unknown message

	stream := out.Result()
	frameLen := int(stream[0])
	lost := append(append([]byte(nil), stream[:frameLen]...), stream[2*frameLen:]...)

	var texts []string
	m := New(&streamPort{r: bytes.NewReader(lost), chunk: 64}, func(seq uint8, msg core.Message) {
		texts = append(texts, msg.Text)
	})
	chk.NoError(m.Run())

	chk.Equal([]string{"a", "c"}, texts)
	chk.Equal(Stats{Frames: 3, BadData: 1, Gaps: 1}, m.Stats())
}

func TestMonitorSkipsNoise(t *testing.T) {
	chk := require.New(t)
	// Boards send a sync byte before their first frame after a reset
	noise := bytes.Repeat([]byte{0x55}, 3000)
	stream := append(noise, protocol.MessageValueSync)
	stream = append(stream, boardOutput(t)...)

	count := 0
	m := New(&streamPort{r: bytes.NewReader(stream), chunk: 200}, func(uint8, core.Message) { count++ })
	chk.NoError(m.Run())
	chk.Equal(3, count)
}

func TestFormatUnknown(t *testing.T) {
	require.Equal(t, "[UNKNOWN] id=9", Format(core.Message{ID: 9}))
}
