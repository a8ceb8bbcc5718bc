// Package container implements the on-disk container format: the 512-byte
// header, the fixed-size user table, the directory-tree stream, and the
// free-block bitmap, plus their save/load/format protocols. All multi-byte
// fields are little-endian; strings are zero-padded, null-terminated C
// strings, never relying on Go's in-memory struct layout.
package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	Magic               = "OMNIFS01"
	FormatVersion       = 0x00010000
	HeaderSize          = 512
	magicFieldLen       = 8
	studentIDFieldLen   = 32
	submissionFieldLen  = 16
	configHashFieldLen  = 64
	// reserved is sized so the header totals exactly HeaderSize bytes; the
	// spec's itemized reserved[328] does not itself sum to 512 with the
	// other listed fields, so the reserved region is computed rather than
	// hard-coded (see DESIGN.md).
	reservedFieldLen = HeaderSize - (magicFieldLen + 4 + 8 + 8 + 8 + studentIDFieldLen + submissionFieldLen + configHashFieldLen + 8 + 4 + 4 + 4 + 4)
)

// Header is the fixed 512-byte container header.
type Header struct {
	TotalSize              uint64
	BlockSize              uint64
	StudentID              string
	SubmissionDate         string
	ConfigHash             string // lowercase hex SHA-256, 64 chars
	ConfigTimestamp        uint64
	UserTableOffset        uint32
	MaxUsers               uint32
	FileStateStorageOffset uint32
	ChangeLogOffset        uint32
}

func writeFixedString(w io.Writer, s string, size int) error {
	buf := make([]byte, size)
	copy(buf, s) // truncates if s is too long; remaining bytes are the null terminator + padding
	_, err := w.Write(buf)
	return err
}

func readFixedString(r io.Reader, size int) (string, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf), nil
}

// WriteTo serializes the header in its fixed 512-byte layout.
func (h *Header) WriteTo(w io.Writer) (int64, error) {
	buf := &bytes.Buffer{}

	if err := writeFixedString(buf, Magic, magicFieldLen); err != nil {
		return 0, err
	}
	binary.Write(buf, binary.LittleEndian, uint32(FormatVersion))
	binary.Write(buf, binary.LittleEndian, h.TotalSize)
	binary.Write(buf, binary.LittleEndian, uint64(HeaderSize))
	binary.Write(buf, binary.LittleEndian, h.BlockSize)
	if err := writeFixedString(buf, h.StudentID, studentIDFieldLen); err != nil {
		return 0, err
	}
	if err := writeFixedString(buf, h.SubmissionDate, submissionFieldLen); err != nil {
		return 0, err
	}
	if err := writeFixedString(buf, h.ConfigHash, configHashFieldLen); err != nil {
		return 0, err
	}
	binary.Write(buf, binary.LittleEndian, h.ConfigTimestamp)
	binary.Write(buf, binary.LittleEndian, h.UserTableOffset)
	binary.Write(buf, binary.LittleEndian, h.MaxUsers)
	binary.Write(buf, binary.LittleEndian, h.FileStateStorageOffset)
	binary.Write(buf, binary.LittleEndian, h.ChangeLogOffset)

	reserved := make([]byte, reservedFieldLen)
	buf.Write(reserved)

	if buf.Len() != HeaderSize {
		return 0, fmt.Errorf("internal error: header serialized to %d bytes, want %d", buf.Len(), HeaderSize)
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// ReadHeader parses a 512-byte header, validating the magic and version.
func ReadHeader(r io.Reader) (*Header, error) {
	raw := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	buf := bytes.NewReader(raw)

	magic, err := readFixedString(buf, magicFieldLen)
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, fmt.Errorf("bad magic %q, want %q", magic, Magic)
	}

	var formatVersion uint32
	binary.Read(buf, binary.LittleEndian, &formatVersion)
	if formatVersion != FormatVersion {
		return nil, fmt.Errorf("unsupported format_version 0x%08x", formatVersion)
	}

	h := &Header{}
	binary.Read(buf, binary.LittleEndian, &h.TotalSize)

	var headerSizeField uint64
	binary.Read(buf, binary.LittleEndian, &headerSizeField)

	binary.Read(buf, binary.LittleEndian, &h.BlockSize)

	h.StudentID, _ = readFixedString(buf, studentIDFieldLen)
	h.SubmissionDate, _ = readFixedString(buf, submissionFieldLen)
	h.ConfigHash, _ = readFixedString(buf, configHashFieldLen)

	binary.Read(buf, binary.LittleEndian, &h.ConfigTimestamp)
	binary.Read(buf, binary.LittleEndian, &h.UserTableOffset)
	binary.Read(buf, binary.LittleEndian, &h.MaxUsers)
	binary.Read(buf, binary.LittleEndian, &h.FileStateStorageOffset)
	binary.Read(buf, binary.LittleEndian, &h.ChangeLogOffset)

	return h, nil
}
