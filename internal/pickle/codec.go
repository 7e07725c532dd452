package pickle

import (
	"encoding/binary"
	"fmt"
	"io"
)

// writeVarint writes an unsigned varint to w.
func writeVarint(w io.Writer, v uint64) error {
	var buf [binary.MaxVarintLen64]byte

	n := binary.PutUvarint(buf[:], v)
	_, err := w.Write(buf[:n])

	return err
}

// readVarint reads an unsigned varint from r.
func readVarint(r io.ByteReader) (uint64, error) {
	return binary.ReadUvarint(r)
}

// writeString writes a length-prefixed string.
func writeString(w io.Writer, s string) error {
	if err := writeVarint(w, uint64(len(s))); err != nil {
		return err
	}

	_, err := io.WriteString(w, s)

	return err
}

// readString reads a length-prefixed string.
func readString(r interface {
	io.Reader
	io.ByteReader
},
) (string, error) {
	n, err := readVarint(r)
	if err != nil {
		return "", err
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("pickle: read string: %w", err)
	}

	return string(buf), nil
}

// writeBytes writes a length-prefixed byte slice.
func writeBytes(w io.Writer, b []byte) error {
	if err := writeVarint(w, uint64(len(b))); err != nil {
		return err
	}

	_, err := w.Write(b)

	return err
}

// readBytes reads a length-prefixed byte slice.
func readBytes(r interface {
	io.Reader
	io.ByteReader
},
) ([]byte, error) {
	n, err := readVarint(r)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("pickle: read bytes: %w", err)
	}

	return buf, nil
}
