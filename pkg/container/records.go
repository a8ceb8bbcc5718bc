package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/omnifs/omnifs/pkg/fsnode"
	"github.com/omnifs/omnifs/pkg/usermanager"
)

const (
	usernameFieldLen     = 32
	passwordHashFieldLen = 64
	userReservedLen      = 23
	// UserRecordSize is the fixed on-disk size of one user table slot.
	UserRecordSize = usernameFieldLen + passwordHashFieldLen + 4 + 8 + 8 + 1 + userReservedLen

	fileNameFieldLen = 128
	ownerFieldLen    = 32
	fileReservedLen  = 47
	// FileEntryRecordSize is the fixed on-disk size of one file/directory
	// entry (the fixed portion only; in-memory Content is never persisted).
	FileEntryRecordSize = fileNameFieldLen + 1 + 8 + 4 + 8 + 8 + ownerFieldLen + 4 + fileReservedLen
)

// WriteUserRecord serializes one user table slot.
func WriteUserRecord(w io.Writer, u *usermanager.User) error {
	buf := &bytes.Buffer{}
	if err := writeFixedString(buf, u.Username, usernameFieldLen); err != nil {
		return err
	}
	if err := writeFixedString(buf, u.PasswordHash, passwordHashFieldLen); err != nil {
		return err
	}
	binary.Write(buf, binary.LittleEndian, uint32(u.Role))
	binary.Write(buf, binary.LittleEndian, u.CreatedTime)
	binary.Write(buf, binary.LittleEndian, u.LastLogin)
	var isActive uint8
	if u.IsActive {
		isActive = 1
	}
	binary.Write(buf, binary.LittleEndian, isActive)
	buf.Write(make([]byte, userReservedLen))

	if buf.Len() != UserRecordSize {
		return fmt.Errorf("internal error: user record serialized to %d bytes, want %d", buf.Len(), UserRecordSize)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteEmptyUserSlot zero-fills one user table slot (an unused slot).
func WriteEmptyUserSlot(w io.Writer) error {
	_, err := w.Write(make([]byte, UserRecordSize))
	return err
}

// ReadUserRecord parses one user table slot. A slot with an empty username
// is a zeroed, unused slot; the caller is expected to skip it.
func ReadUserRecord(r io.Reader) (*usermanager.User, error) {
	raw := make([]byte, UserRecordSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, err
	}
	buf := bytes.NewReader(raw)

	username, _ := readFixedString(buf, usernameFieldLen)
	passwordHash, _ := readFixedString(buf, passwordHashFieldLen)

	var role uint32
	binary.Read(buf, binary.LittleEndian, &role)
	var createdTime, lastLogin uint64
	binary.Read(buf, binary.LittleEndian, &createdTime)
	binary.Read(buf, binary.LittleEndian, &lastLogin)
	var isActive uint8
	binary.Read(buf, binary.LittleEndian, &isActive)

	return &usermanager.User{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         usermanager.Role(role),
		CreatedTime:  createdTime,
		LastLogin:    lastLogin,
		IsActive:     isActive == 1,
	}, nil
}

// WriteFileEntry serializes the fixed on-disk portion of a file or
// directory entry. Content is never written here.
func WriteFileEntry(w io.Writer, e *fsnode.FileEntry) error {
	buf := &bytes.Buffer{}
	if err := writeFixedString(buf, e.Name, fileNameFieldLen); err != nil {
		return err
	}
	binary.Write(buf, binary.LittleEndian, uint8(e.Type))
	binary.Write(buf, binary.LittleEndian, e.Size)
	binary.Write(buf, binary.LittleEndian, e.Permissions)
	binary.Write(buf, binary.LittleEndian, e.CreatedTime)
	binary.Write(buf, binary.LittleEndian, e.ModifiedTime)
	if err := writeFixedString(buf, e.Owner, ownerFieldLen); err != nil {
		return err
	}
	binary.Write(buf, binary.LittleEndian, e.Inode)
	buf.Write(make([]byte, fileReservedLen))

	if buf.Len() != FileEntryRecordSize {
		return fmt.Errorf("internal error: file entry serialized to %d bytes, want %d", buf.Len(), FileEntryRecordSize)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// ReadFileEntry parses the fixed on-disk portion of a file or directory
// entry. Content is left nil; it is never persisted.
func ReadFileEntry(r io.Reader) (*fsnode.FileEntry, error) {
	raw := make([]byte, FileEntryRecordSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, err
	}
	buf := bytes.NewReader(raw)

	name, _ := readFixedString(buf, fileNameFieldLen)

	var entryType uint8
	binary.Read(buf, binary.LittleEndian, &entryType)
	var size uint64
	binary.Read(buf, binary.LittleEndian, &size)
	var permissions uint32
	binary.Read(buf, binary.LittleEndian, &permissions)
	var createdTime, modifiedTime uint64
	binary.Read(buf, binary.LittleEndian, &createdTime)
	binary.Read(buf, binary.LittleEndian, &modifiedTime)

	owner, _ := readFixedString(buf, ownerFieldLen)

	var inode uint32
	binary.Read(buf, binary.LittleEndian, &inode)

	return &fsnode.FileEntry{
		Name:         name,
		Type:         fsnode.EntryType(entryType),
		Size:         size,
		Permissions:  permissions,
		CreatedTime:  createdTime,
		ModifiedTime: modifiedTime,
		Owner:        owner,
		Inode:        inode,
	}, nil
}
