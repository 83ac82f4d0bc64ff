// Package sample defines the fixed-size record written to the data log.
//
// A record is the ADC reading followed by the X, Y and Z accelerometer axes,
// each a big-endian 16-bit word. Records are concatenated with no header or
// framing.
package sample

import (
	"encoding/binary"
	"errors"
)

// Size is the encoded length of one record in bytes.
const Size = 8

// ErrShort is returned by Decode when fewer than Size bytes are supplied.
var ErrShort = errors.New("sample: short record")

// Sample is one synchronized set of readings.
type Sample struct {
	ADC    uint16
	AccelX int16
	AccelY int16
	AccelZ int16
}

// Encode writes s into buf, which must hold at least Size bytes.
func (s Sample) Encode(buf []byte) {
	_ = buf[Size-1]
	binary.BigEndian.PutUint16(buf[0:], s.ADC)
	binary.BigEndian.PutUint16(buf[2:], uint16(s.AccelX))
	binary.BigEndian.PutUint16(buf[4:], uint16(s.AccelY))
	binary.BigEndian.PutUint16(buf[6:], uint16(s.AccelZ))
}

// Decode parses one record from the start of buf.
func Decode(buf []byte) (Sample, error) {
	if len(buf) < Size {
		return Sample{}, ErrShort
	}
	return Sample{
		ADC:    binary.BigEndian.Uint16(buf[0:]),
		AccelX: int16(binary.BigEndian.Uint16(buf[2:])),
		AccelY: int16(binary.BigEndian.Uint16(buf[4:])),
		AccelZ: int16(binary.BigEndian.Uint16(buf[6:])),
	}, nil
}
