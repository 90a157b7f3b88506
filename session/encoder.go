package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const (
	recordFormatVersionCurrent = 2
	recordFormatVersionV1      = 1
)

const maxFieldLength = 16 * 1024

// Encode serializes a record in the current format: a version byte followed
// by length-prefixed fields. Tokens use uint16 lengths; the short metadata
// fields use a single length byte.
func Encode(r *Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordFormatVersionCurrent)

	if err := writeLongString(&buf, r.AccessToken); err != nil {
		return nil, err
	}
	if err := writeLongString(&buf, r.RefreshToken); err != nil {
		return nil, err
	}
	if err := writeShortString(&buf, r.SessionID); err != nil {
		return nil, err
	}
	if err := writeShortString(&buf, r.Fingerprint); err != nil {
		return nil, err
	}

	if err := binary.Write(&buf, binary.BigEndian, r.IssuedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.ExpiresAt); err != nil {
		return nil, err
	}
	buf.WriteByte(byte(r.SecurityLevel))

	return buf.Bytes(), nil
}

// Decode parses a blob in any supported format version. Version 1 predates
// the security level byte; such records decode as [SecurityBasic].
func Decode(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordFormatVersionCurrent && version != recordFormatVersionV1 {
		return nil, errors.New("invalid record version")
	}

	r := &Record{}

	if r.AccessToken, err = readLongString(reader); err != nil {
		return nil, err
	}
	if r.RefreshToken, err = readLongString(reader); err != nil {
		return nil, err
	}
	if r.SessionID, err = readShortString(reader); err != nil {
		return nil, err
	}
	if r.Fingerprint, err = readShortString(reader); err != nil {
		return nil, err
	}

	if err := binary.Read(reader, binary.BigEndian, &r.IssuedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &r.ExpiresAt); err != nil {
		return nil, err
	}

	if version >= recordFormatVersionCurrent {
		level, err := reader.ReadByte()
		if err != nil {
			return nil, err
		}
		r.SecurityLevel = SecurityLevel(level)
	}

	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes in record")
	}

	return r, nil
}

func writeLongString(buf *bytes.Buffer, s string) error {
	if len(s) > maxFieldLength {
		return errors.New("field too long")
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	buf.WriteString(s)
	return nil
}

func readLongString(reader *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(reader, binary.BigEndian, &n); err != nil {
		return "", err
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(reader, out); err != nil {
		return "", errors.New("truncated field")
	}
	return string(out), nil
}

func writeShortString(buf *bytes.Buffer, s string) error {
	if len(s) > 255 {
		return errors.New("field too long")
	}
	buf.WriteByte(byte(len(s)))
	buf.WriteString(s)
	return nil
}

func readShortString(reader *bytes.Reader) (string, error) {
	n, err := reader.ReadByte()
	if err != nil {
		return "", err
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(reader, out); err != nil {
		return "", errors.New("truncated field")
	}
	return string(out), nil
}
