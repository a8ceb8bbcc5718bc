package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/omnifs/omnifs/internal/logger"
	"github.com/omnifs/omnifs/pkg/allocator"
	"github.com/omnifs/omnifs/pkg/fsnode"
	"github.com/omnifs/omnifs/pkg/pathresolver"
	"github.com/omnifs/omnifs/pkg/usermanager"
)

// State is the full in-memory state persisted to (and reloaded from) a
// container file.
type State struct {
	Header    *Header
	Users     []*usermanager.User
	Root      *fsnode.Directory
	Allocator *allocator.Allocator
}

// writeDirectoryStream writes the DFS pre-order directory-tree stream:
// node_count, then for each node path_len+path+FileEntry+file_count+files.
func writeDirectoryStream(w io.Writer, root *fsnode.Directory) error {
	var nodes []string
	var dirs []*fsnode.Directory
	fsnode.Walk(root, func(path string, dir *fsnode.Directory) {
		nodes = append(nodes, path)
		dirs = append(dirs, dir)
	})

	if err := binary.Write(w, binary.LittleEndian, uint32(len(nodes))); err != nil {
		return err
	}

	for i, path := range nodes {
		dir := dirs[i]
		pathBytes := []byte(path)
		if err := binary.Write(w, binary.LittleEndian, uint32(len(pathBytes))); err != nil {
			return err
		}
		if _, err := w.Write(pathBytes); err != nil {
			return err
		}
		if err := WriteFileEntry(w, &dir.Entry); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(len(dir.Files))); err != nil {
			return err
		}
		for _, file := range dir.Files {
			if err := WriteFileEntry(w, file); err != nil {
				return err
			}
		}
	}
	return nil
}

func readDirectoryStream(r io.Reader, root *fsnode.Directory) error {
	var nodeCount uint32
	if err := binary.Read(r, binary.LittleEndian, &nodeCount); err != nil {
		return fmt.Errorf("read node_count: %w", err)
	}

	for n := uint32(0); n < nodeCount; n++ {
		var pathLen uint32
		if err := binary.Read(r, binary.LittleEndian, &pathLen); err != nil {
			return fmt.Errorf("read path_len: %w", err)
		}
		pathBytes := make([]byte, pathLen)
		if _, err := io.ReadFull(r, pathBytes); err != nil {
			return fmt.Errorf("read path: %w", err)
		}
		path := string(pathBytes)

		entry, err := ReadFileEntry(r)
		if err != nil {
			return fmt.Errorf("read node entry for %q: %w", path, err)
		}

		var dir *fsnode.Directory
		if path == "/" {
			dir = root
			dir.Entry = *entry
			dir.Entry.Type = fsnode.TypeDirectory
		} else {
			parent, leaf := pathresolver.LocateParent(root, path)
			if parent == nil {
				return fmt.Errorf("directory stream references unknown parent for %q", path)
			}
			entry.Name = leaf
			dir = &fsnode.Directory{
				Entry:    *entry,
				Children: make(map[string]*fsnode.Directory),
				Files:    make(map[string]*fsnode.FileEntry),
			}
			parent.Children[leaf] = dir
		}

		var fileCount uint32
		if err := binary.Read(r, binary.LittleEndian, &fileCount); err != nil {
			return fmt.Errorf("read file_count: %w", err)
		}
		for f := uint32(0); f < fileCount; f++ {
			fileEntry, err := ReadFileEntry(r)
			if err != nil {
				return fmt.Errorf("read file entry under %q: %w", path, err)
			}
			dir.Files[fileEntry.Name] = fileEntry
		}
	}
	return nil
}

// Save writes the full snapshot: header, user table, directory-tree stream,
// then the free-block bitmap appended at end-of-file with its offset
// recorded back into the header.
func Save(path string, header *Header, users []*usermanager.User, root *fsnode.Directory, alloc *allocator.Allocator) error {
	start := time.Now()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("open container for save: %w", err)
	}
	defer f.Close()

	// Placeholder header; rewritten at the end once file_state_storage_offset
	// is known.
	if _, err := header.WriteTo(f); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if _, err := f.Seek(int64(header.UserTableOffset), io.SeekStart); err != nil {
		return fmt.Errorf("seek to user table: %w", err)
	}
	for _, u := range users {
		if err := WriteUserRecord(f, u); err != nil {
			return fmt.Errorf("write user record: %w", err)
		}
	}
	for i := uint32(len(users)); i < header.MaxUsers; i++ {
		if err := WriteEmptyUserSlot(f); err != nil {
			return fmt.Errorf("write empty user slot: %w", err)
		}
	}

	treeOffset := int64(header.UserTableOffset) + int64(header.MaxUsers)*int64(UserRecordSize)
	if _, err := f.Seek(treeOffset, io.SeekStart); err != nil {
		return fmt.Errorf("seek to directory stream: %w", err)
	}
	var treeBuf bytes.Buffer
	if err := writeDirectoryStream(&treeBuf, root); err != nil {
		return fmt.Errorf("encode directory stream: %w", err)
	}
	if _, err := f.Write(treeBuf.Bytes()); err != nil {
		return fmt.Errorf("write directory stream: %w", err)
	}

	bitmapOffset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("seek to end for bitmap: %w", err)
	}
	if _, err := alloc.WriteTo(f); err != nil {
		return fmt.Errorf("write free-block map: %w", err)
	}

	header.FileStateStorageOffset = uint32(bitmapOffset)
	header.ChangeLogOffset = 0
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek to rewrite header: %w", err)
	}
	if _, err := header.WriteTo(f); err != nil {
		return fmt.Errorf("rewrite header: %w", err)
	}

	logger.Info("container saved",
		logger.KeyContainerPath, path,
		logger.KeyDurationMs, logger.Duration(start))
	return nil
}

// Load reads header, user table, directory-tree stream, and free-block map
// from an existing container.
func Load(path string) (*State, error) {
	start := time.Now()
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open container for load: %w", err)
	}
	defer f.Close()

	header, err := ReadHeader(f)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	if _, err := f.Seek(int64(header.UserTableOffset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to user table: %w", err)
	}
	var users []*usermanager.User
	for i := uint32(0); i < header.MaxUsers; i++ {
		u, err := ReadUserRecord(f)
		if err != nil {
			return nil, fmt.Errorf("read user record %d: %w", i, err)
		}
		if u.Username == "" {
			continue
		}
		users = append(users, u)
	}

	root := fsnode.NewRoot(header.ConfigTimestamp)
	if err := readDirectoryStream(f, root); err != nil {
		return nil, fmt.Errorf("read directory stream: %w", err)
	}

	if _, err := f.Seek(int64(header.FileStateStorageOffset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to free-block map: %w", err)
	}
	alloc, err := allocator.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("read free-block map: %w", err)
	}

	logger.Info("container loaded",
		logger.KeyContainerPath, path,
		logger.KeyDurationMs, logger.Duration(start))

	return &State{Header: header, Users: users, Root: root, Allocator: alloc}, nil
}

// FormatOptions configures a fresh container build.
type FormatOptions struct {
	TotalSize       uint64
	BlockSize       uint64
	MaxUsers        uint32
	ConfigHash      string
	ConfigTimestamp uint64
}

// Format writes a brand-new container: header, zero-filled user table, a
// single root directory entry, then zero-padding to TotalSize.
func Format(path string, opts FormatOptions) (*State, error) {
	header := &Header{
		TotalSize:       opts.TotalSize,
		BlockSize:       opts.BlockSize,
		ConfigHash:      opts.ConfigHash,
		ConfigTimestamp: opts.ConfigTimestamp,
		UserTableOffset: HeaderSize,
		MaxUsers:        opts.MaxUsers,
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("create container: %w", err)
	}
	defer f.Close()

	if _, err := header.WriteTo(f); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i := uint32(0); i < opts.MaxUsers; i++ {
		if err := WriteEmptyUserSlot(f); err != nil {
			return nil, fmt.Errorf("write empty user slot: %w", err)
		}
	}

	root := fsnode.NewRoot(opts.ConfigTimestamp)
	if err := writeDirectoryStream(f, root); err != nil {
		return nil, fmt.Errorf("write directory stream: %w", err)
	}

	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	if uint64(pos) < opts.TotalSize {
		if err := f.Truncate(int64(opts.TotalSize)); err != nil {
			return nil, fmt.Errorf("zero-pad to total_size: %w", err)
		}
	}

	bitmapOffset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seek to end for bitmap: %w", err)
	}

	totalBlocks := int(opts.TotalSize / opts.BlockSize)
	alloc := allocator.New(totalBlocks, opts.BlockSize)
	if _, err := alloc.WriteTo(f); err != nil {
		return nil, fmt.Errorf("write free-block map: %w", err)
	}

	header.FileStateStorageOffset = uint32(bitmapOffset)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to rewrite header: %w", err)
	}
	if _, err := header.WriteTo(f); err != nil {
		return nil, fmt.Errorf("rewrite header: %w", err)
	}

	logger.Info("container formatted", logger.KeyContainerPath, path)

	return &State{Header: header, Root: root, Allocator: alloc}, nil
}
