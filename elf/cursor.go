package elf

import (
	"encoding/binary"
	"fmt"
	"io"
)

// cursor reads fixed width unsigned integers from a seekable byte source.
// The byte order is selected per read from the file's data encoding tag;
// an unrecognized tag fails the read instead of defaulting to some order.
type cursor struct {
	src io.ReadSeeker

	DataEncoding

	scratch [8]byte
}

func newCursor(src io.ReadSeeker) *cursor {
	return &cursor{
		src: src,
	}
}

func (encoding DataEncoding) byteOrder() (binary.ByteOrder, error) {
	switch encoding {
	case DataEncodingTwosComplementLittleEndian:
		return binary.LittleEndian, nil
	case DataEncodingTwosComplementBigEndian:
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("invalid data encoding (%d)", byte(encoding))
	}
}

func (cursor *cursor) SeekTo(offset uint64) error {
	_, err := cursor.src.Seek(int64(offset), io.SeekStart)
	if err != nil {
		return fmt.Errorf("failed to seek to %d: %w", offset, err)
	}

	return nil
}

// Length returns the total size of the underlying source.
func (cursor *cursor) Length() (uint64, error) {
	length, err := cursor.src.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("failed to seek to end: %w", err)
	}

	return uint64(length), nil
}

// Bytes reads exactly size bytes into an owned buffer.
func (cursor *cursor) Bytes(size uint64) ([]byte, error) {
	content := make([]byte, size)
	_, err := io.ReadFull(cursor.src, content)
	if err != nil {
		return nil, err
	}

	return content, nil
}

func (cursor *cursor) read(numBytes int) (binary.ByteOrder, []byte, error) {
	order, err := cursor.byteOrder()
	if err != nil {
		return nil, nil, err
	}

	chunk := cursor.scratch[:numBytes]
	_, err = io.ReadFull(cursor.src, chunk)
	if err != nil {
		return nil, nil, err
	}

	return order, chunk, nil
}

func (cursor *cursor) U16() (uint16, error) {
	order, chunk, err := cursor.read(2)
	if err != nil {
		return 0, err
	}

	return order.Uint16(chunk), nil
}

func (cursor *cursor) U32() (uint32, error) {
	order, chunk, err := cursor.read(4)
	if err != nil {
		return 0, err
	}

	return order.Uint32(chunk), nil
}

func (cursor *cursor) U64() (uint64, error) {
	order, chunk, err := cursor.read(8)
	if err != nil {
		return 0, err
	}

	return order.Uint64(chunk), nil
}
