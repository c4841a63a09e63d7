package elf

import (
	"bytes"
	"testing"

	"github.com/pattyshack/gt/testing/expect"
	"github.com/pattyshack/gt/testing/suite"
)

type CursorSuite struct{}

func TestCursor(t *testing.T) {
	suite.RunTests(t, &CursorSuite{})
}

func newTestCursor(encoding DataEncoding, content []byte) *cursor {
	c := newCursor(bytes.NewReader(content))
	c.DataEncoding = encoding
	return c
}

func (CursorSuite) TestLittleEndianReads(t *testing.T) {
	c := newTestCursor(
		DataEncodingTwosComplementLittleEndian,
		[]byte{
			0x01, 0x00,
			0x78, 0x56, 0x34, 0x12,
			0xf0, 0xde, 0xbc, 0x9a, 0x78, 0x56, 0x34, 0x12,
		})

	val16, err := c.U16()
	expect.Nil(t, err)
	expect.Equal(t, uint16(1), val16)

	val32, err := c.U32()
	expect.Nil(t, err)
	expect.Equal(t, uint32(0x12345678), val32)

	val64, err := c.U64()
	expect.Nil(t, err)
	expect.Equal(t, uint64(0x123456789abcdef0), val64)
}

func (CursorSuite) TestBigEndianReads(t *testing.T) {
	c := newTestCursor(
		DataEncodingTwosComplementBigEndian,
		[]byte{
			0x01, 0x00,
			0x12, 0x34, 0x56, 0x78,
			0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0,
		})

	// Same leading byte pattern as the little endian test, different value.
	val16, err := c.U16()
	expect.Nil(t, err)
	expect.Equal(t, uint16(256), val16)

	val32, err := c.U32()
	expect.Nil(t, err)
	expect.Equal(t, uint32(0x12345678), val32)

	val64, err := c.U64()
	expect.Nil(t, err)
	expect.Equal(t, uint64(0x123456789abcdef0), val64)
}

func (CursorSuite) TestInvalidDataEncoding(t *testing.T) {
	c := newTestCursor(DataEncodingNone, []byte{0x01, 0x00})

	_, err := c.U16()
	expect.Error(t, err, "invalid data encoding (0)")

	c = newTestCursor(DataEncoding(9), []byte{0x01, 0x00, 0x00, 0x00})

	_, err = c.U32()
	expect.Error(t, err, "invalid data encoding (9)")
}

func (CursorSuite) TestShortRead(t *testing.T) {
	c := newTestCursor(DataEncodingTwosComplementLittleEndian, []byte{0x01})

	_, err := c.U16()
	expect.Error(t, err, "unexpected EOF")

	c = newTestCursor(
		DataEncodingTwosComplementBigEndian,
		[]byte{0x01, 0x02, 0x03})

	_, err = c.U64()
	expect.Error(t, err, "unexpected EOF")
}

func (CursorSuite) TestBytesExact(t *testing.T) {
	c := newTestCursor(
		DataEncodingTwosComplementLittleEndian,
		[]byte{0x0a, 0x0b, 0x0c})

	content, err := c.Bytes(3)
	expect.Nil(t, err)
	expect.Equal(t, []byte{0x0a, 0x0b, 0x0c}, content)

	c = newTestCursor(DataEncodingTwosComplementLittleEndian, []byte{0x0a})

	_, err = c.Bytes(3)
	expect.Error(t, err, "unexpected EOF")
}

func (CursorSuite) TestSeekThenRead(t *testing.T) {
	c := newTestCursor(
		DataEncodingTwosComplementLittleEndian,
		[]byte{0xff, 0xff, 0x2a, 0x00})

	err := c.SeekTo(2)
	expect.Nil(t, err)

	val, err := c.U16()
	expect.Nil(t, err)
	expect.Equal(t, uint16(42), val)
}
