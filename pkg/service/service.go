// Package service wires the allocator, directory tree, user manager, and
// session manager into the single confined domain object the dispatcher
// drives. Every method here is called only from the worker goroutine; none
// of the state it touches carries its own locking.
package service

import (
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/omnifs/omnifs/internal/omnierr"
	"github.com/omnifs/omnifs/pkg/allocator"
	"github.com/omnifs/omnifs/pkg/container"
	"github.com/omnifs/omnifs/pkg/fsnode"
	"github.com/omnifs/omnifs/pkg/metrics"
	"github.com/omnifs/omnifs/pkg/pathresolver"
	"github.com/omnifs/omnifs/pkg/sessionmanager"
	"github.com/omnifs/omnifs/pkg/usermanager"
)

// Service is the full confined domain object: the directory tree, the
// block allocator, the user and session tables, the container header, and
// an inode index for O(1) file-entry lookup by block index.
type Service struct {
	Root      *fsnode.Directory
	Allocator *allocator.Allocator
	Users     *usermanager.Manager
	Sessions  *sessionmanager.Manager
	Header    *container.Header

	inodes  map[uint32]*fsnode.FileEntry
	metrics *metrics.Metrics
}

// New builds a Service from a loaded or freshly formatted container state.
func New(state *container.State, m *metrics.Metrics) *Service {
	users := usermanager.New()
	users.LoadUsers(state.Users)

	s := &Service{
		Root:      state.Root,
		Allocator: state.Allocator,
		Users:     users,
		Sessions:  sessionmanager.New(),
		Header:    state.Header,
		inodes:    make(map[uint32]*fsnode.FileEntry),
		metrics:   m,
	}
	fsnode.Walk(s.Root, func(_ string, dir *fsnode.Directory) {
		for _, entry := range dir.Files {
			s.inodes[entry.Inode] = entry
		}
	})
	s.observeAllocator()
	return s
}

func (s *Service) now() uint64 {
	return uint64(time.Now().Unix())
}

func (s *Service) observeAllocator() {
	if s.metrics != nil {
		s.metrics.ObserveAllocator(s.Allocator.UsedBlocks(), s.Allocator.FreeBlocks())
	}
}

// FileMetadata is the response shape for get_metadata.
type FileMetadata struct {
	Path        string
	Entry       fsnode.FileEntry
	ActualSize  uint64
	ContentType string
}

// Stats is the response shape for get_stats.
type Stats struct {
	TotalSize         uint64
	UsedSpace         uint64
	FreeSpace         uint64
	TotalFiles        int
	TotalDirectories  int
	TotalUsers        int
	ActiveSessions    int
	Fragmentation     float64
}

// --- Directory operations ---

// DirCreate creates a directory, rejecting both directory and file
// name collisions under the parent.
func (s *Service) DirCreate(path string) *omnierr.Error {
	parent, name := pathresolver.LocateParent(s.Root, path)
	if parent == nil {
		return omnierr.NewInvalidPath("cannot resolve parent directory", path)
	}
	if parent.HasChildOrFile(name) {
		return omnierr.NewFileExists("entry already exists", path)
	}
	parent.Children[name] = fsnode.NewDirectory(name, "root", s.now())
	return nil
}

// DirDelete removes an empty directory.
func (s *Service) DirDelete(path string) *omnierr.Error {
	if path == "/" {
		return omnierr.NewInvalidOperation("cannot delete root directory")
	}
	parent, name := pathresolver.LocateParent(s.Root, path)
	if parent == nil {
		return omnierr.NewInvalidPath("cannot resolve parent directory", path)
	}
	dir, ok := parent.Children[name]
	if !ok {
		return omnierr.NewNotFound("no such directory", path)
	}
	if !dir.IsEmpty() {
		return omnierr.NewDirectoryNotEmpty("directory is not empty", path)
	}
	delete(parent.Children, name)
	return nil
}

// DirExists reports whether path resolves to a directory.
func (s *Service) DirExists(path string) bool {
	return pathresolver.LocateDir(s.Root, path) != nil
}

// DirList returns the entries directly inside path.
func (s *Service) DirList(path string) ([]string, *omnierr.Error) {
	dir := pathresolver.LocateDir(s.Root, path)
	if dir == nil {
		return nil, omnierr.NewNotFound("no such directory", path)
	}
	return dir.ListEntries(), nil
}

// --- File operations ---

// FileCreate allocates a block and creates a file entry of the given size.
func (s *Service) FileCreate(path string, size uint64) *omnierr.Error {
	parent, name := pathresolver.LocateParent(s.Root, path)
	if parent == nil {
		return omnierr.NewInvalidPath("cannot resolve parent directory", path)
	}
	if parent.HasChildOrFile(name) {
		return omnierr.NewFileExists("entry already exists", path)
	}
	inode, ok := s.Allocator.Allocate()
	if !ok {
		return omnierr.NewNoSpace("no free blocks available")
	}
	entry := fsnode.NewFileEntry(name, inode, s.now())
	if size > 0 {
		entry.Content = make([]byte, size)
	}
	entry.Size = size
	parent.Files[name] = entry
	s.inodes[inode] = entry
	s.observeAllocator()
	return nil
}

// FileDelete frees the entry's block and removes it from the tree.
func (s *Service) FileDelete(path string) *omnierr.Error {
	parent, name := pathresolver.LocateParent(s.Root, path)
	if parent == nil {
		return omnierr.NewInvalidPath("cannot resolve parent directory", path)
	}
	entry, ok := parent.Files[name]
	if !ok {
		return omnierr.NewNotFound("no such file", path)
	}
	s.Allocator.Free(entry.Inode)
	delete(s.inodes, entry.Inode)
	delete(parent.Files, name)
	s.observeAllocator()
	return nil
}

// FileRead returns the file's in-memory content.
func (s *Service) FileRead(path string) ([]byte, *omnierr.Error) {
	entry, err := s.lookupFile(path)
	if err != nil {
		return nil, err
	}
	return entry.Content, nil
}

// FileEdit overwrites the window [offset, offset+len(data)) with data,
// growing the content buffer if the window extends past its current size.
func (s *Service) FileEdit(path string, data []byte, offset uint64) *omnierr.Error {
	entry, err := s.lookupFile(path)
	if err != nil {
		return err
	}
	end := offset + uint64(len(data))
	if end > uint64(len(entry.Content)) {
		grown := make([]byte, end)
		copy(grown, entry.Content)
		entry.Content = grown
	}
	copy(entry.Content[offset:end], data)
	entry.Size = uint64(len(entry.Content))
	entry.ModifiedTime = s.now()
	return nil
}

// FileTruncate resizes the file's content, zero-filling any growth.
func (s *Service) FileTruncate(path string, newSize uint64) *omnierr.Error {
	entry, err := s.lookupFile(path)
	if err != nil {
		return err
	}
	switch {
	case newSize < uint64(len(entry.Content)):
		entry.Content = entry.Content[:newSize]
	case newSize > uint64(len(entry.Content)):
		grown := make([]byte, newSize)
		copy(grown, entry.Content)
		entry.Content = grown
	}
	entry.Size = newSize
	entry.ModifiedTime = s.now()
	return nil
}

// FileRename moves a file entry to a new path, rejecting destination
// collisions against both files and directories.
func (s *Service) FileRename(oldPath, newPath string) *omnierr.Error {
	oldParent, oldName := pathresolver.LocateParent(s.Root, oldPath)
	if oldParent == nil {
		return omnierr.NewInvalidPath("cannot resolve parent directory", oldPath)
	}
	entry, ok := oldParent.Files[oldName]
	if !ok {
		return omnierr.NewNotFound("no such file", oldPath)
	}

	newParent, newName := pathresolver.LocateParent(s.Root, newPath)
	if newParent == nil {
		return omnierr.NewInvalidPath("cannot resolve parent directory", newPath)
	}
	if newParent.HasChildOrFile(newName) {
		return omnierr.NewFileExists("destination already exists", newPath)
	}

	delete(oldParent.Files, oldName)
	entry.Name = fsnode.TruncateName(newName)
	entry.ModifiedTime = s.now()
	newParent.Files[newName] = entry
	return nil
}

// FileExists reports whether path resolves to a file entry.
func (s *Service) FileExists(path string) bool {
	parent, name := pathresolver.LocateParent(s.Root, path)
	if parent == nil {
		return false
	}
	_, ok := parent.Files[name]
	return ok
}

// GetMetadata returns the entry's metadata plus a sniffed content type.
func (s *Service) GetMetadata(path string) (*FileMetadata, *omnierr.Error) {
	entry, err := s.lookupFile(path)
	if err != nil {
		return nil, err
	}
	contentType := mimetype.Detect(entry.Content).String()
	return &FileMetadata{
		Path:        path,
		Entry:       *entry.Clone(),
		ActualSize:  entry.Size,
		ContentType: contentType,
	}, nil
}

// SetPermissions mutates a file entry's permission bits.
func (s *Service) SetPermissions(path string, perms uint32) *omnierr.Error {
	entry, err := s.lookupFile(path)
	if err != nil {
		return err
	}
	entry.Permissions = perms
	entry.ModifiedTime = s.now()
	return nil
}

// GetStats aggregates tree, allocator, user, and session counts.
func (s *Service) GetStats() *Stats {
	dirs, files := fsnode.CountAll(s.Root)
	used := s.Allocator.UsedBlocks()
	free := s.Allocator.FreeBlocks()
	blockSize := s.Allocator.BlockSize()

	return &Stats{
		TotalSize:        s.Header.TotalSize,
		UsedSpace:        uint64(used) * blockSize,
		FreeSpace:        uint64(free) * blockSize,
		TotalFiles:       files,
		TotalDirectories: dirs,
		TotalUsers:       s.Users.Count(),
		ActiveSessions:   s.Sessions.Count(),
		Fragmentation:    s.Allocator.Fragmentation(),
	}
}

func (s *Service) lookupFile(path string) (*fsnode.FileEntry, *omnierr.Error) {
	parent, name := pathresolver.LocateParent(s.Root, path)
	if parent == nil {
		return nil, omnierr.NewInvalidPath("cannot resolve parent directory", path)
	}
	entry, ok := parent.Files[name]
	if !ok {
		return nil, omnierr.NewNotFound("no such file", path)
	}
	return entry, nil
}

// --- User operations (role-gated) ---

// UserLogin verifies credentials and issues a session.
func (s *Service) UserLogin(username, password string) (string, *omnierr.Error) {
	user, ok := s.Users.Get(username)
	if !ok {
		return "", omnierr.NewNotFound("no such user", username)
	}
	if !user.IsActive {
		return "", omnierr.NewInvalidOperation("user account is inactive")
	}
	if !s.Users.VerifyPassword(username, password) {
		return "", omnierr.NewPermissionDenied("invalid credentials")
	}

	id, err := s.Sessions.CreateSession(user, s.now())
	if err != nil {
		return "", omnierr.NewIOError("failed to create session: " + err.Error())
	}
	s.Users.TouchLogin(username, s.now())
	return id, nil
}

// UserLogout destroys a session.
func (s *Service) UserLogout(sessionID string) *omnierr.Error {
	if s.Sessions.Get(sessionID) == nil {
		return omnierr.NewInvalidSession("no such session")
	}
	s.Sessions.Destroy(sessionID)
	return nil
}

// requireAdmin resolves a session and enforces the admin role, the common
// precondition for every user-table mutation.
func (s *Service) requireAdmin(sessionID string) *omnierr.Error {
	sess := s.Sessions.Get(sessionID)
	if sess == nil {
		return omnierr.NewInvalidSession("no such session")
	}
	if sess.User.Role != usermanager.RoleAdmin {
		return omnierr.NewPermissionDenied("admin role required")
	}
	return nil
}

// UserCreate adds a new user. secret is hashed with bcrypt before storage.
func (s *Service) UserCreate(sessionID, username, secret string, role usermanager.Role) *omnierr.Error {
	if err := s.requireAdmin(sessionID); err != nil {
		return err
	}
	if _, err := s.Users.CreateUser(username, secret, role, s.now()); err != nil {
		return err
	}
	return nil
}

// UserDelete removes a user.
func (s *Service) UserDelete(sessionID, username string) *omnierr.Error {
	if err := s.requireAdmin(sessionID); err != nil {
		return err
	}
	return s.Users.DeleteUser(username)
}

// UserList returns every known user.
func (s *Service) UserList(sessionID string) ([]*usermanager.User, *omnierr.Error) {
	if err := s.requireAdmin(sessionID); err != nil {
		return nil, err
	}
	return s.Users.List(), nil
}

// SnapshotUsers returns the user records ready for a persistence save.
func (s *Service) SnapshotUsers() []*usermanager.User {
	return s.Users.List()
}
