package protocol

import "errors"

var (
	ErrFrameTooLarge = errors.New("payload does not fit in a frame")
	ErrOutputFull    = errors.New("output buffer full")
)

// CRC16 calculates the CCITT checksum used by Klipper-style frames
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		b ^= uint8(crc & 0xFF)
		b ^= b << 4
		b16 := uint16(b)
		crc = (b16<<8 | crc>>8) ^ (b16 >> 4) ^ (b16 << 3)
	}
	return crc
}

// Encoder wraps payloads into frames on an OutputBuffer
type Encoder struct {
	output OutputBuffer
	seq    uint8
}

// NewEncoder creates an Encoder writing to output
func NewEncoder(output OutputBuffer) *Encoder {
	return &Encoder{output: output}
}

// overflowCounter is implemented by buffers that truncate when full
type overflowCounter interface {
	Dropped() uint32
}

func (e *Encoder) overflowed() uint32 {
	if c, ok := e.output.(overflowCounter); ok {
		return c.Dropped()
	}
	return 0
}

// EncodeFrame writes one frame whose payload is produced by frameData.
// A payload over MessagePayloadMax, or a frame the output cannot hold,
// is rolled back and reported without using a sequence number.
func (e *Encoder) EncodeFrame(frameData func(output OutputBuffer)) error {
	cursor := e.output.CurPosition()
	dropped := e.overflowed()

	// Length placeholder, filled in once the payload size is known
	seq := MessageDest | (e.seq & MessageSeqMask)
	e.output.Output([]byte{0, seq})

	frameData(e.output)

	if e.overflowed() != dropped {
		e.rollback(cursor)
		return ErrOutputFull
	}
	length := len(e.output.DataSince(cursor)) + MessageTrailerSize
	if length > MessageLengthMax {
		e.rollback(cursor)
		return ErrFrameTooLarge
	}
	e.output.Update(cursor+MessagePositionLen, uint8(length))

	crc := CRC16(e.output.DataSince(cursor))
	e.output.Output([]byte{
		uint8(crc >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})
	if e.overflowed() != dropped {
		e.rollback(cursor)
		return ErrOutputFull
	}

	e.seq = (e.seq + 1) & MessageSeqMask
	return nil
}

// SendMessage encodes a frame carrying msgID followed by args
func (e *Encoder) SendMessage(msgID uint16, args func(output OutputBuffer)) error {
	return e.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(msgID))
		if args != nil {
			args(output)
		}
	})
}

// Reset restarts the sequence numbering
func (e *Encoder) Reset() {
	e.seq = 0
}

func (e *Encoder) rollback(cursor int) {
	if s, ok := e.output.(*ScratchOutput); ok {
		s.pos = cursor
		return
	}
	// Other buffers cannot shrink; poison the frame so decoders resync
	if cursor < e.output.CurPosition() {
		e.output.Update(cursor+MessagePositionLen, 0)
	}
}

// FrameHandler receives the sequence byte and payload of each valid frame
type FrameHandler func(seq uint8, payload []byte)

// Decoder extracts frames from a byte stream, resynchronizing on the sync
// byte after any corrupt data.
type Decoder struct {
	handler      FrameHandler
	synchronized bool

	// Counters for diagnostics
	Frames    uint32
	BadFrames uint32
}

// NewDecoder creates a Decoder delivering frames to handler
func NewDecoder(handler FrameHandler) *Decoder {
	return &Decoder{
		handler:      handler,
		synchronized: true,
	}
}

// Decode consumes complete frames from data and returns how many bytes were
// used. A trailing partial frame is left for the next call.
func (d *Decoder) Decode(data []byte) int {
	original := len(data)

	for len(data) > 0 {
		if !d.synchronized {
			// Skip garbage up to and including the next sync byte
			syncPos := -1
			for i, b := range data {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}
			if syncPos < 0 {
				data = nil
				break
			}
			data = data[syncPos+1:]
			d.synchronized = true
			continue
		}

		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			d.desync()
			continue
		}

		seq := data[MessagePositionSeq]
		if seq&^MessageSeqMask != MessageDest {
			d.desync()
			continue
		}

		if len(data) < msgLen {
			break // Wait for the rest
		}

		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			d.desync()
			continue
		}

		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			d.desync()
			continue
		}

		payload := data[MessageHeaderSize : msgLen-MessageTrailerSize]
		data = data[msgLen:]
		d.Frames++
		if d.handler != nil {
			d.handler(seq, payload)
		}
	}

	return original - len(data)
}

func (d *Decoder) desync() {
	d.synchronized = false
	d.BadFrames++
}
