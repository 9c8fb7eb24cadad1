// Package zerocopy implements the little-endian zero-copy encoding used by
// the remote chain for headers and consensus payloads.
//
// Sink and Source wrap the remote chain's own ZeroCopySink and
// ZeroCopySource from github.com/polynetwork/poly/common. The wrappers add
// the rules that package leaves to its callers: var uints must be written
// in their shortest form, flags must be 0 or 1, and a read that fails
// leaves the source where it was.
package zerocopy

import (
	polycommon "github.com/polynetwork/poly/common"
)

// Sink accumulates an encoding. The zero value is ready to use.
type Sink struct {
	sink polycommon.ZeroCopySink
}

// NewSink returns a Sink whose buffer has room for n bytes.
func NewSink(n int) *Sink {
	return &Sink{sink: *polycommon.NewZeroCopySink(make([]byte, 0, n))}
}

// Bytes returns the encoded bytes. The slice aliases the sink buffer.
func (s *Sink) Bytes() []byte {
	return s.sink.Bytes()
}

// Size returns the number of bytes written so far.
func (s *Sink) Size() int {
	return int(s.sink.Size())
}

// WriteBytes appends bz as is, with no length prefix.
func (s *Sink) WriteBytes(bz []byte) {
	s.sink.WriteBytes(bz)
}

// WriteByte appends b. It never fails and implements io.ByteWriter.
func (s *Sink) WriteByte(b byte) error {
	s.sink.WriteByte(b)
	return nil
}

// WriteUint8 appends v as a single byte.
func (s *Sink) WriteUint8(v uint8) {
	s.sink.WriteUint8(v)
}

// WriteBool appends 1 for true and 0 for false.
func (s *Sink) WriteBool(v bool) {
	s.sink.WriteBool(v)
}

// WriteUint16 appends v as 2 little-endian bytes.
func (s *Sink) WriteUint16(v uint16) {
	s.sink.WriteUint16(v)
}

// WriteUint32 appends v as 4 little-endian bytes.
func (s *Sink) WriteUint32(v uint32) {
	s.sink.WriteUint32(v)
}

// WriteUint64 appends v as 8 little-endian bytes.
func (s *Sink) WriteUint64(v uint64) {
	s.sink.WriteUint64(v)
}

// WriteHash writes a 32 byte digest with no length prefix.
func (s *Sink) WriteHash(h [HashSize]byte) {
	s.sink.WriteHash(polycommon.Uint256(h))
}

// WriteAddress writes a 20 byte address with no length prefix.
func (s *Sink) WriteAddress(a [AddressSize]byte) {
	s.sink.WriteAddress(polycommon.Address(a))
}

// WriteVarUint writes v in its shortest form:
//
//	v < 0xFD          1 byte
//	v <= 0xFFFF       0xFD + uint16
//	v <= 0xFFFFFFFF   0xFE + uint32
//	otherwise         0xFF + uint64
func (s *Sink) WriteVarUint(v uint64) {
	s.sink.WriteVarUint(v)
}

// WriteVarBytes writes a var uint length prefix followed by bz.
func (s *Sink) WriteVarBytes(bz []byte) {
	s.sink.WriteVarBytes(bz)
}

// WriteString writes str the way WriteVarBytes writes a byte string.
func (s *Sink) WriteString(str string) {
	s.sink.WriteString(str)
}
