package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScratchOutput(t *testing.T) {
	chk := require.New(t)
	scratch := NewScratchOutput()

	scratch.Output([]byte{1, 2, 3})
	chk.Equal(3, scratch.CurPosition())
	scratch.Output([]byte{4, 5})
	chk.Equal(5, scratch.CurPosition())

	scratch.Update(0, 99)
	chk.Equal([]byte{99, 2, 3, 4, 5}, scratch.Result())

	// Positions past the write cursor are ignored
	scratch.Update(10, 1)
	chk.Equal(5, scratch.CurPosition())

	chk.Equal([]byte{3, 4, 5}, scratch.DataSince(2))
	chk.Nil(scratch.DataSince(6))

	scratch.Reset()
	chk.Equal(0, scratch.CurPosition())
	chk.Empty(scratch.Result())
}

func TestScratchOutputOverflow(t *testing.T) {
	chk := require.New(t)
	scratch := NewScratchOutput()

	scratch.Output(make([]byte, OutputMax-2))
	scratch.Output([]byte{1, 2, 3, 4})
	chk.Equal(OutputMax, scratch.CurPosition())
	chk.Equal(uint32(2), scratch.Dropped())

	scratch.Reset()
	chk.Zero(scratch.Dropped())
}

func TestScratchOutputDiscard(t *testing.T) {
	chk := require.New(t)
	scratch := NewScratchOutput()
	enc := NewEncoder(scratch)

	chk.NoError(enc.EncodeFrame(func(o OutputBuffer) { o.Output([]byte{1, 2, 3}) }))
	chk.NoError(enc.EncodeFrame(func(o OutputBuffer) { o.Output([]byte{4}) }))

	// A write that only got part way through
	sent := append([]byte(nil), scratch.Result()[:5]...)
	scratch.Discard(5)
	chk.Equal(9, scratch.CurPosition())

	chk.NoError(enc.EncodeFrame(func(o OutputBuffer) { o.Output([]byte{5}) }))
	sent = append(sent, scratch.Result()...)

	var payloads [][]byte
	dec := NewDecoder(func(seq uint8, payload []byte) {
		payloads = append(payloads, append([]byte(nil), payload...))
	})
	chk.Equal(len(sent), dec.Decode(sent))
	chk.Equal([][]byte{{1, 2, 3}, {4}, {5}}, payloads)
	chk.Zero(dec.BadFrames)

	scratch.Discard(0)
	chk.Equal(15, scratch.CurPosition())
	scratch.Discard(100)
	chk.Equal(0, scratch.CurPosition())
}

func TestFifoBuffer(t *testing.T) {
	chk := require.New(t)
	fifo := NewFifoBuffer(10)

	chk.Equal(0, fifo.Available())
	chk.Equal(9, fifo.Free())

	chk.Equal(5, fifo.Write([]byte{1, 2, 3, 4, 5}))
	chk.Equal(5, fifo.Available())
	chk.Equal([]byte{1, 2, 3, 4, 5}, fifo.Data())

	fifo.Pop(2)
	chk.Equal([]byte{3, 4, 5}, fifo.Data())

	// Fill past the end so the data wraps
	chk.Equal(6, fifo.Write([]byte{6, 7, 8, 9, 10, 11, 12}))
	chk.Equal(9, fifo.Available())
	chk.Equal(0, fifo.Free())
	chk.Equal([]byte{3, 4, 5, 6, 7, 8, 9, 10, 11}, fifo.Data())

	fifo.Pop(100)
	chk.Equal(0, fifo.Available())

	fifo.Write([]byte{1})
	fifo.Reset()
	chk.Equal(0, fifo.Available())
}
