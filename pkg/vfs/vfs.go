// Package vfs is the artifact disk: an in-memory set of build outputs
// (.mgo sources, .postfix programs, .cil listings, .psm snapshots) backed by
// a host directory.
package vfs

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// MaxDiskBytes caps the total size of all artifacts (16MB).
const MaxDiskBytes = 16 << 20

// validName accepts flat artifact names: a stem of up to 64 characters and
// an optional extension of up to 8.
var validName = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_\-]{0,63}(\.[a-zA-Z0-9]{1,8})?$`)

var (
	ErrNotFound      = errors.New("artifact not found")
	ErrInvalidName   = errors.New("invalid artifact name")
	ErrQuotaExceeded = errors.New("artifact disk quota exceeded")
)

// Artifact is one stored file.
type Artifact struct {
	Data     []byte
	Created  time.Time
	Modified time.Time
}

// Disk holds artifacts in memory and tracks which ones changed since the
// last Persist.
type Disk struct {
	mu        sync.RWMutex
	root      string
	files     map[string]*Artifact
	dirty     map[string]bool
	usedBytes int
}

// Open creates a disk rooted at dir and loads whatever artifacts the
// directory already holds. A missing directory is an empty disk.
func Open(dir string) (*Disk, error) {
	d := New()
	d.root = dir
	if err := d.loadFrom(dir); err != nil {
		return nil, err
	}
	return d, nil
}

// New returns an empty disk with no host directory.
func New() *Disk {
	return &Disk{
		files: make(map[string]*Artifact),
		dirty: make(map[string]bool),
	}
}

// Root is the host directory, empty for a memory-only disk.
func (d *Disk) Root() string { return d.root }

// ValidName reports whether name can be stored.
func ValidName(name string) bool { return validName.MatchString(name) }

// ArtifactName derives the artifact name for src with its extension replaced
// by ext ("prog.mgo", ".postfix" -> "prog.postfix").
func ArtifactName(src, ext string) string {
	base := filepath.Base(src)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ext
}

// Write stores a copy of data under name, replacing any earlier version.
func (d *Disk) Write(name string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !ValidName(name) {
		return ErrInvalidName
	}

	oldSize := 0
	entry, exists := d.files[name]
	if exists {
		oldSize = len(entry.Data)
	}
	if d.usedBytes-oldSize+len(data) > MaxDiskBytes {
		return ErrQuotaExceeded
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	now := time.Now()
	if !exists {
		entry = &Artifact{Created: now}
		d.files[name] = entry
	}
	entry.Data = buf
	entry.Modified = now

	d.dirty[name] = true
	d.usedBytes += len(data) - oldSize
	return nil
}

// Read returns the stored bytes of name.
func (d *Disk) Read(name string) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !ValidName(name) {
		return nil, ErrInvalidName
	}
	entry, ok := d.files[name]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(entry.Data))
	copy(out, entry.Data)
	return out, nil
}

// Stat returns the size and modification time of name.
func (d *Disk) Stat(name string) (int, time.Time, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !ValidName(name) {
		return 0, time.Time{}, ErrInvalidName
	}
	entry, ok := d.files[name]
	if !ok {
		return 0, time.Time{}, ErrNotFound
	}
	return len(entry.Data), entry.Modified, nil
}

// Delete removes name. The host copy goes on the next Persist.
func (d *Disk) Delete(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !ValidName(name) {
		return ErrInvalidName
	}
	entry, ok := d.files[name]
	if !ok {
		return ErrNotFound
	}
	d.usedBytes -= len(entry.Data)
	delete(d.files, name)
	d.dirty[name] = true
	return nil
}

// FreeSpace is the number of bytes still available.
func (d *Disk) FreeSpace() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return MaxDiskBytes - d.usedBytes
}

// Dirty reports whether there are unpersisted changes.
func (d *Disk) Dirty() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.dirty) > 0
}

// List returns the artifact names in sorted order.
func (d *Disk) List() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.files))
	for k := range d.files {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (d *Disk) loadFrom(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, e := range entries {
		if e.IsDir() || !ValidName(e.Name()) {
			continue
		}
		full := filepath.Join(dir, e.Name())
		raw, err := os.ReadFile(full)
		if err != nil {
			continue
		}
		a := &Artifact{Data: raw, Created: time.Now(), Modified: time.Now()}
		if info, err := e.Info(); err == nil {
			a.Created = info.ModTime()
			a.Modified = info.ModTime()
		}
		d.files[e.Name()] = a
		d.usedBytes += len(raw)
	}
	return nil
}

// Persist writes changed artifacts to the host directory and removes deleted
// ones. Failed writes stay dirty. The first error is returned.
func (d *Disk) Persist() error {
	if d.root == "" {
		return nil
	}
	return d.PersistTo(d.root)
}

// PersistTo is Persist against an explicit directory.
func (d *Disk) PersistTo(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	// Snapshot under the lock, then do I/O without it.
	d.mu.Lock()
	snapshot := make(map[string]Artifact)
	var deleted []string
	for name := range d.dirty {
		if a, ok := d.files[name]; ok {
			buf := make([]byte, len(a.Data))
			copy(buf, a.Data)
			snapshot[name] = Artifact{Data: buf, Created: a.Created, Modified: a.Modified}
		} else {
			deleted = append(deleted, name)
		}
		delete(d.dirty, name)
	}
	d.mu.Unlock()

	var firstErr error
	for _, name := range deleted {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	for name, a := range snapshot {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, a.Data, 0o644); err != nil {
			d.mu.Lock()
			d.dirty[name] = true
			d.mu.Unlock()
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		_ = os.Chtimes(path, time.Now(), a.Modified)
	}
	return firstErr
}
