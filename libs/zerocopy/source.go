package zerocopy

import (
	polycommon "github.com/polynetwork/poly/common"
)

// Sizes of the fixed-width values written without a length prefix.
const (
	HashSize    = polycommon.UINT256_SIZE
	AddressSize = polycommon.ADDR_LEN
)

// Source reads values from an encoded byte slice. Every Read method either
// consumes exactly the bytes of one value or fails; on ErrInputTooShort the
// read position is left unchanged.
type Source struct {
	src *polycommon.ZeroCopySource
}

// NewSource returns a Source reading bz from the start. Variable-length
// results alias bz.
func NewSource(bz []byte) *Source {
	return &Source{src: polycommon.NewZeroCopySource(bz)}
}

// Len returns the number of unread bytes.
func (s *Source) Len() int {
	return int(s.src.Len())
}

// Pos returns the read offset.
func (s *Source) Pos() int {
	return int(s.src.Pos())
}

// rewind moves the read offset back to start.
func (s *Source) rewind(start uint64) {
	s.src.BackUp(s.src.Pos() - start)
}

// ReadBytes returns the next n bytes. The result aliases the source buffer.
func (s *Source) ReadBytes(n uint64) ([]byte, error) {
	start := s.src.Pos()
	bz, eof := s.src.NextBytes(n)
	if eof {
		s.rewind(start)
		return nil, ErrInputTooShort
	}
	return bz, nil
}

// ReadByte reads a single byte and implements io.ByteReader.
func (s *Source) ReadByte() (byte, error) {
	b, eof := s.src.NextByte()
	if eof {
		return 0, ErrInputTooShort
	}
	return b, nil
}

// ReadUint8 reads a single byte.
func (s *Source) ReadUint8() (uint8, error) {
	return s.ReadByte()
}

// ReadBool reads a one byte flag; only 0 and 1 are legal. An illegal flag
// is consumed.
func (s *Source) ReadBool() (bool, error) {
	b, err := s.ReadByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ErrInvalidValue
	}
}

// ReadUint16 reads 2 little-endian bytes.
func (s *Source) ReadUint16() (uint16, error) {
	start := s.src.Pos()
	v, eof := s.src.NextUint16()
	if eof {
		s.rewind(start)
		return 0, ErrInputTooShort
	}
	return v, nil
}

// ReadUint32 reads 4 little-endian bytes.
func (s *Source) ReadUint32() (uint32, error) {
	start := s.src.Pos()
	v, eof := s.src.NextUint32()
	if eof {
		s.rewind(start)
		return 0, ErrInputTooShort
	}
	return v, nil
}

// ReadUint64 reads 8 little-endian bytes.
func (s *Source) ReadUint64() (uint64, error) {
	start := s.src.Pos()
	v, eof := s.src.NextUint64()
	if eof {
		s.rewind(start)
		return 0, ErrInputTooShort
	}
	return v, nil
}

// ReadHash reads a 32 byte digest written by Sink.WriteHash.
func (s *Source) ReadHash() ([HashSize]byte, error) {
	start := s.src.Pos()
	h, eof := s.src.NextHash()
	if eof {
		s.rewind(start)
		return [HashSize]byte{}, ErrInputTooShort
	}
	return h, nil
}

// ReadAddress reads a 20 byte address written by Sink.WriteAddress.
func (s *Source) ReadAddress() ([AddressSize]byte, error) {
	start := s.src.Pos()
	a, eof := s.src.NextAddress()
	if eof {
		s.rewind(start)
		return [AddressSize]byte{}, ErrInputTooShort
	}
	return a, nil
}

// ReadVarUint reads a var uint written by Sink.WriteVarUint. A value that
// was not written in its shortest form is rejected with ErrInvalidValue.
func (s *Source) ReadVarUint() (uint64, error) {
	start := s.src.Pos()
	v, eof := s.src.NextVarUint()
	if eof {
		s.rewind(start)
		return 0, ErrInputTooShort
	}
	if s.src.Pos()-start != varUintSize(v) {
		s.rewind(start)
		return 0, ErrInvalidValue
	}
	return v, nil
}

// varUintSize is the length of the shortest encoding of v.
func varUintSize(v uint64) uint64 {
	switch {
	case v < 0xFD:
		return 1
	case v <= 0xFFFF:
		return 3
	case v <= 0xFFFFFFFF:
		return 5
	default:
		return 9
	}
}

// ReadVarBytes reads a length-prefixed byte string. The result aliases the
// source buffer.
func (s *Source) ReadVarBytes() ([]byte, error) {
	start := s.src.Pos()
	n, err := s.ReadVarUint()
	if err != nil {
		return nil, err
	}
	bz, err := s.ReadBytes(n)
	if err != nil {
		s.rewind(start)
		return nil, err
	}
	return bz, nil
}

// ReadString reads a string written by Sink.WriteString.
func (s *Source) ReadString() (string, error) {
	bz, err := s.ReadVarBytes()
	if err != nil {
		return "", err
	}
	return string(bz), nil
}
