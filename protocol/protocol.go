// Package protocol implements the framed wire format used to stream ticker
// events from a board to a host.
//
// A frame is: len, seq, payload..., crc_hi, crc_lo, 0x7E. The length byte
// covers the whole frame and the CRC covers everything before it.
package protocol

// Version represents the wire format version
const Version = "0.1.0"

// Frame layout constants
const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10
	MessageSeqMask     = 0x0F

	// MessagePayloadMax is the largest payload that fits in one frame
	MessagePayloadMax = MessageLengthMax - MessageLengthMin

	// OutputMax is the scratch output size; several frames may be queued
	// between USB writes.
	OutputMax = 512
)

// Message IDs carried as the first VLQ of every payload
const (
	MsgTickerEvent = 1 // oid=%c kind=%c clock=%u counter=%u state=%c
	MsgDebugText   = 2 // text=%s
)
