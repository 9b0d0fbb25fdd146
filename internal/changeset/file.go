package changeset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sublime-tools/monorepo/internal/fileutil"
	"github.com/sublime-tools/monorepo/pkg/semver"
)

const defaultRoot = ".changesets"
const historyDirName = "history"

// FileStore is the on-disk Changeset Store: one JSON file per pending
// branch under root, one JSON file per archived record under
// root/history/<branch>/<RFC3339>.json.
//
// Grounded on internal/history/append.go's temp-file + os.Rename
// atomicity, extended with an explicit fsync before rename since
// spec.md requires the archive write to be durable before the
// pending file is removed. Unlike internal/history/append.go this
// store holds no file lock: concurrent writers are the operator's
// responsibility, and a mismatch between the in-memory Changeset and
// what is on disk at Archive time is reported as
// ErrConcurrentModification instead.
type FileStore struct {
	root string
}

// NewFileStore opens (creating if needed) a File-backed Store rooted
// at root, defaulting to ".changesets", and runs startup reconciliation.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		root = defaultRoot
	}
	s := &FileStore{root: root}
	if err := fileutil.EnsureDir(s.root); err != nil {
		return nil, err
	}
	if err := s.reconcile(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) pendingPath(branch string) string {
	return filepath.Join(s.root, semver.SanitizeBranch(branch)+".json")
}

func (s *FileStore) historyDir(branch string) string {
	return filepath.Join(s.root, historyDirName, semver.SanitizeBranch(branch))
}

func (s *FileStore) Save(c Changeset) error {
	data, err := marshalChangeset(c)
	if err != nil {
		return err
	}
	return atomicWriteSync(s.pendingPath(c.Branch), data)
}

func (s *FileStore) Load(branch string) (Changeset, error) {
	data, err := os.ReadFile(s.pendingPath(branch))
	if err != nil {
		if os.IsNotExist(err) {
			return Changeset{}, ErrNotFound
		}
		return Changeset{}, err
	}
	return unmarshalChangeset(data)
}

func (s *FileStore) Exists(branch string) (bool, error) {
	_, err := os.Stat(s.pendingPath(branch))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (s *FileStore) ListPending() ([]Changeset, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []Changeset
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.root, e.Name()))
		if err != nil {
			return nil, err
		}
		c, err := unmarshalChangeset(data)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sortPendingDesc(out)
	return out, nil
}

func (s *FileStore) Archive(c Changeset, info ReleaseInfo) error {
	current, err := s.Load(c.Branch)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrConcurrentModification
		}
		return err
	}
	if !equalCore(current, c) {
		return ErrConcurrentModification
	}

	archived := ArchivedChangeset{Changeset: c, ReleaseInfo: info}
	data, err := marshalArchived(archived)
	if err != nil {
		return err
	}

	dir := s.historyDir(c.Branch)
	if err := fileutil.EnsureDir(dir); err != nil {
		return err
	}
	archivePath := filepath.Join(dir, archiveFileName(info.AppliedAt))
	if err := atomicWriteSync(archivePath, data); err != nil {
		return err
	}

	if err := os.Remove(s.pendingPath(c.Branch)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FileStore) LoadArchived(branch string) (ArchivedChangeset, error) {
	records, err := s.readArchivedDir(s.historyDir(branch))
	if err != nil {
		return ArchivedChangeset{}, err
	}
	if len(records) == 0 {
		return ArchivedChangeset{}, ErrNotFound
	}
	return latestByAppliedAt(records), nil
}

func (s *FileStore) ListArchived() ([]ArchivedChangeset, error) {
	root := filepath.Join(s.root, historyDirName)
	branches, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []ArchivedChangeset
	for _, b := range branches {
		if !b.IsDir() {
			continue
		}
		records, err := s.readArchivedDir(filepath.Join(root, b.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
	}
	sortArchivedDesc(out)
	return out, nil
}

func (s *FileStore) readArchivedDir(dir string) ([]ArchivedChangeset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []ArchivedChangeset
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		a, err := unmarshalArchived(data)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *FileStore) Remove(branch string) error {
	err := os.Remove(s.pendingPath(branch))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// reconcile implements the crash-recovery rule from spec.md §4.G: a
// pending file whose core fields match an existing archived record
// is leftover from a crash between the archive write and the pending
// delete, and is safe to remove.
func (s *FileStore) reconcile() error {
	pending, err := s.ListPending()
	if err != nil {
		return err
	}
	for _, c := range pending {
		records, err := s.readArchivedDir(s.historyDir(c.Branch))
		if err != nil {
			return err
		}
		for _, r := range records {
			if equalCore(r.Changeset, c) {
				if err := s.Remove(c.Branch); err != nil {
					return err
				}
				break
			}
		}
	}
	return nil
}

func archiveFileName(t time.Time) string {
	return t.UTC().Format(time.RFC3339) + ".json"
}

// atomicWriteSync writes data to path via a temp file in the same
// directory, fsyncs it, then renames it into place. The fsync is the
// one addition over fileutil.AtomicWrite: spec.md requires the
// archive file to be durable on disk before the pending file it
// replaces is deleted.
func atomicWriteSync(path string, data []byte) error {
	if err := fileutil.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
