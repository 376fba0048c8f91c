package ledger

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// encodeGob serializes a value using gob encoding.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCodec, err)
	}
	return buf.Bytes(), nil
}

// decodeGob deserializes gob-encoded data into a value.
func decodeGob(data []byte, v interface{}) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrCodec, err)
	}
	return nil
}

// GetRecord loads the record at addr in bucket into v.
func GetRecord(tx Tx, bucket []byte, addr Address, v interface{}) error {
	data, err := tx.Get(bucket, addr.Bytes())
	if err != nil {
		return err
	}
	return decodeGob(data, v)
}

// InsertRecord stores v at addr, failing with ErrExists if addr is taken.
func InsertRecord(tx Tx, bucket []byte, addr Address, v interface{}) error {
	data, err := encodeGob(v)
	if err != nil {
		return err
	}
	return tx.Insert(bucket, addr.Bytes(), data)
}

// PutRecord stores v at addr, replacing any previous record.
func PutRecord(tx Tx, bucket []byte, addr Address, v interface{}) error {
	data, err := encodeGob(v)
	if err != nil {
		return err
	}
	return tx.Put(bucket, addr.Bytes(), data)
}

// EachRecord decodes every record in bucket and passes it to fn, in address
// order.
func EachRecord[T any](tx Tx, bucket []byte, fn func(addr Address, rec *T) error) error {
	return tx.ForEach(bucket, func(key, value []byte) error {
		if len(key) != AddressSize {
			return fmt.Errorf("%w: key of %d bytes in %s", ErrInvalidAddress, len(key), bucket)
		}
		var addr Address
		copy(addr[:], key)
		rec := new(T)
		if err := decodeGob(value, rec); err != nil {
			return err
		}
		return fn(addr, rec)
	})
}
