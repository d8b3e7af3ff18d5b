package tomy_file

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
)

func ZigZagEncode(n int64) uint64 {
	return uint64((n << 1) ^ (n >> 63))
}

func ZigZagDecode(z uint64) int64 {
	return int64((z >> 1) ^ uint64((int64(z&1)<<63)>>63))
}

// CompressInt64Column encodes values as delta -> zigzag -> varint.
func CompressInt64Column(col *Int64Column) ([]byte, error) {
	var buf bytes.Buffer
	var prev int64
	for _, v := range col.Values {
		if err := WriteVarint(&buf, ZigZagEncode(v-prev)); err != nil {
			return nil, err
		}
		prev = v
	}
	return buf.Bytes(), nil
}

func DecompressInt64Column(data []byte, numRows uint64) (*Int64Column, error) {
	reader := bytes.NewReader(data)
	values := make([]int64, numRows)
	var prev int64

	for i := range numRows {
		zz, err := ReadVarint(reader)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding value at row %d", i)
		}
		prev += ZigZagDecode(zz)
		values[i] = prev
	}
	return &Int64Column{Values: values}, nil
}

// CompressVarcharColumn writes
// [len(offsets) varint][delta-varint offsets][zstd data].
func CompressVarcharColumn(col *VarcharColumn) ([]byte, error) {
	// offsets are non-decreasing, so plain deltas need no zigzag
	var offsetsBuf bytes.Buffer
	var prevOffset uint64
	for _, off := range col.Offsets {
		if err := WriteVarint(&offsetsBuf, off-prevOffset); err != nil {
			return nil, err
		}
		prevOffset = off
	}

	var dataBuf bytes.Buffer
	enc, err := zstd.NewWriter(&dataBuf)
	if err != nil {
		return nil, errors.Wrap(err, "creating zstd writer")
	}
	if _, err := enc.Write(col.Data); err != nil {
		_ = enc.Close()
		return nil, errors.Wrap(err, "compressing varchar data")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "flushing zstd writer")
	}

	var out bytes.Buffer
	if err := WriteVarint(&out, uint64(offsetsBuf.Len())); err != nil {
		return nil, err
	}
	out.Write(offsetsBuf.Bytes())
	out.Write(dataBuf.Bytes())
	return out.Bytes(), nil
}

func DecompressVarcharColumn(data []byte, numRows uint64) (*VarcharColumn, error) {
	reader := bytes.NewReader(data)

	offsetsLen, err := ReadVarint(reader)
	if err != nil {
		return nil, errors.Wrap(err, "reading offsets length")
	}
	if offsetsLen > uint64(reader.Len()) {
		return nil, errors.Newf("offsets length %d exceeds column size %d", offsetsLen, reader.Len())
	}

	offsetsBytes := make([]byte, offsetsLen)
	if _, err := io.ReadFull(reader, offsetsBytes); err != nil {
		return nil, errors.Wrap(err, "reading compressed offsets")
	}

	offsetReader := bytes.NewReader(offsetsBytes)
	offsets := make([]uint64, numRows)
	var prevOffset uint64
	for i := range numRows {
		delta, err := ReadVarint(offsetReader)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding offset delta at row %d", i)
		}
		prevOffset += delta
		offsets[i] = prevOffset
	}

	dec, err := zstd.NewReader(reader)
	if err != nil {
		return nil, errors.Wrap(err, "creating zstd reader")
	}
	defer dec.Close()

	uncompressed, err := io.ReadAll(dec)
	if err != nil {
		return nil, errors.Wrap(err, "decompressing varchar data")
	}

	return &VarcharColumn{Offsets: offsets, Data: uncompressed}, nil
}

func decompressColumn(meta ColumnMetaData, data []byte, numRows uint64) (AnyColumn, error) {
	switch meta.Type {
	case TypeInt64:
		col, err := DecompressInt64Column(data, numRows)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding INT64 column %q", meta.Name)
		}
		col.Name = meta.Name
		return col, nil
	case TypeVarchar:
		col, err := DecompressVarcharColumn(data, numRows)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding VARCHAR column %q", meta.Name)
		}
		col.Name = meta.Name
		return col, nil
	default:
		return nil, errors.Newf("unknown column type for %q: %d", meta.Name, meta.Type)
	}
}
