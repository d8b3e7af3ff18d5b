package tomy_file

import (
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"
)

func WriteVarint(w io.Writer, value uint64) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], value)
	if _, err := w.Write(buf[:n]); err != nil {
		return errors.Wrap(err, "writing varint")
	}
	return nil
}

func ReadVarint(r io.Reader) (uint64, error) {
	byteReader, ok := r.(io.ByteReader)
	if !ok {
		return 0, errors.AssertionFailedf("reader %T does not implement io.ByteReader", r)
	}

	value, err := binary.ReadUvarint(byteReader)
	if err != nil {
		return 0, errors.Wrap(err, "reading varint")
	}
	return value, nil
}
