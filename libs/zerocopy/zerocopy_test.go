package zerocopy_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/crosschain/headersync/libs/zerocopy"
)

func TestVarUintEncoding(t *testing.T) {
	testCases := []struct {
		v   uint64
		hex string
	}{
		{0, "00"},
		{1, "01"},
		{0xFC, "FC"},
		{0xFD, "FDFD00"},
		{0xFFFF, "FDFFFF"},
		{0x10000, "FE00000100"},
		{0xFFFFFFFF, "FEFFFFFFFF"},
		{0x100000000, "FF0000000001000000"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(fmt.Sprint(tc.v), func(t *testing.T) {
			sink := new(zerocopy.Sink)
			sink.WriteVarUint(tc.v)
			assert.Equal(t, tc.hex, fmt.Sprintf("%X", sink.Bytes()))

			src := zerocopy.NewSource(sink.Bytes())
			v, err := src.ReadVarUint()
			require.NoError(t, err)
			assert.Equal(t, tc.v, v)
			assert.Zero(t, src.Len())
		})
	}
}

func TestVarUintNonCanonical(t *testing.T) {
	for _, bz := range [][]byte{
		{0xFD, 0x10, 0x00},
		{0xFE, 0xFF, 0xFF, 0x00, 0x00},
		{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00},
	} {
		src := zerocopy.NewSource(bz)
		_, err := src.ReadVarUint()
		assert.ErrorIs(t, err, zerocopy.ErrInvalidValue, "%X", bz)
		assert.Zero(t, src.Pos())
	}

	src := zerocopy.NewSource([]byte{0xFE, 0x01, 0x00})
	_, err := src.ReadVarUint()
	assert.ErrorIs(t, err, zerocopy.ErrInputTooShort)
	assert.Zero(t, src.Pos())
}

func TestReadBool(t *testing.T) {
	src := zerocopy.NewSource([]byte{0, 1, 2})

	v, err := src.ReadBool()
	require.NoError(t, err)
	assert.False(t, v)

	v, err = src.ReadBool()
	require.NoError(t, err)
	assert.True(t, v)

	_, err = src.ReadBool()
	assert.ErrorIs(t, err, zerocopy.ErrInvalidValue)

	_, err = src.ReadBool()
	assert.ErrorIs(t, err, zerocopy.ErrInputTooShort)
}

func TestReadVarBytesTooShort(t *testing.T) {
	sink := new(zerocopy.Sink)
	sink.WriteVarBytes([]byte("hello"))
	bz := sink.Bytes()

	src := zerocopy.NewSource(bz[:len(bz)-1])
	_, err := src.ReadVarBytes()
	assert.ErrorIs(t, err, zerocopy.ErrInputTooShort)
	assert.Zero(t, src.Pos(), "failed read must not consume input")
}

func TestReadTooShortKeepsPosition(t *testing.T) {
	sink := new(zerocopy.Sink)
	sink.WriteUint8(7)
	sink.WriteUint64(0x0102030405060708)
	bz := sink.Bytes()[:2]

	testCases := []struct {
		name string
		read func(*zerocopy.Source) error
	}{
		{"uint16", func(s *zerocopy.Source) error { _, err := s.ReadUint16(); return err }},
		{"uint32", func(s *zerocopy.Source) error { _, err := s.ReadUint32(); return err }},
		{"uint64", func(s *zerocopy.Source) error { _, err := s.ReadUint64(); return err }},
		{"hash", func(s *zerocopy.Source) error { _, err := s.ReadHash(); return err }},
		{"address", func(s *zerocopy.Source) error { _, err := s.ReadAddress(); return err }},
		{"bytes", func(s *zerocopy.Source) error { _, err := s.ReadBytes(6); return err }},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			src := zerocopy.NewSource(bz)
			_, err := src.ReadUint8()
			require.NoError(t, err)

			assert.ErrorIs(t, tc.read(src), zerocopy.ErrInputTooShort)
			assert.Equal(t, 1, src.Pos())
			assert.Equal(t, 1, src.Len())
		})
	}
}

func TestSinkZeroValueGrows(t *testing.T) {
	sink := new(zerocopy.Sink)
	for i := 0; i < 1000; i++ {
		sink.WriteUint32(uint32(i))
	}
	require.Equal(t, 4000, sink.Size())

	src := zerocopy.NewSource(sink.Bytes())
	for i := 0; i < 1000; i++ {
		v, err := src.ReadUint32()
		require.NoError(t, err)
		require.EqualValues(t, i, v)
	}
}

func TestFixedWidthLittleEndian(t *testing.T) {
	sink := zerocopy.NewSink(16)
	sink.WriteUint32(0x01020304)
	sink.WriteUint64(0x0102030405060708)
	assert.Equal(t, "040302010807060504030201", fmt.Sprintf("%X", sink.Bytes()))
}

func TestSinkSourceProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		u8 := rapid.Uint8().Draw(t, "u8").(uint8)
		u16 := rapid.Uint16().Draw(t, "u16").(uint16)
		u32 := rapid.Uint32().Draw(t, "u32").(uint32)
		u64 := rapid.Uint64().Draw(t, "u64").(uint64)
		vu := rapid.Uint64().Draw(t, "varuint").(uint64)
		vb := rapid.SliceOfN(rapid.Byte(), 0, 300).Draw(t, "varbytes").([]byte)
		str := rapid.String().Draw(t, "string").(string)

		var hash [zerocopy.HashSize]byte
		copy(hash[:], rapid.SliceOfN(rapid.Byte(), zerocopy.HashSize, zerocopy.HashSize).Draw(t, "hash").([]byte))
		var addr [zerocopy.AddressSize]byte
		copy(addr[:], rapid.SliceOfN(rapid.Byte(), zerocopy.AddressSize, zerocopy.AddressSize).Draw(t, "addr").([]byte))

		sink := new(zerocopy.Sink)
		sink.WriteUint8(u8)
		sink.WriteUint16(u16)
		sink.WriteUint32(u32)
		sink.WriteUint64(u64)
		sink.WriteVarUint(vu)
		sink.WriteVarBytes(vb)
		sink.WriteString(str)
		sink.WriteHash(hash)
		sink.WriteAddress(addr)

		src := zerocopy.NewSource(sink.Bytes())
		gotU8, err := src.ReadUint8()
		require.NoError(t, err)
		gotU16, err := src.ReadUint16()
		require.NoError(t, err)
		gotU32, err := src.ReadUint32()
		require.NoError(t, err)
		gotU64, err := src.ReadUint64()
		require.NoError(t, err)
		gotVU, err := src.ReadVarUint()
		require.NoError(t, err)
		gotVB, err := src.ReadVarBytes()
		require.NoError(t, err)
		gotStr, err := src.ReadString()
		require.NoError(t, err)
		gotHash, err := src.ReadHash()
		require.NoError(t, err)
		gotAddr, err := src.ReadAddress()
		require.NoError(t, err)

		require.Equal(t, u8, gotU8)
		require.Equal(t, u16, gotU16)
		require.Equal(t, u32, gotU32)
		require.Equal(t, u64, gotU64)
		require.Equal(t, vu, gotVU)
		require.Equal(t, len(vb), len(gotVB))
		if len(vb) > 0 {
			require.Equal(t, vb, gotVB)
		}
		require.Equal(t, str, gotStr)
		require.Equal(t, hash, gotHash)
		require.Equal(t, addr, gotAddr)
		require.Zero(t, src.Len())
	})
}
