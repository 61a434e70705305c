// Package uploads stores user files under a root directory partitioned by
// entity and document kind. Files are first written to a staging area and
// only moved to their final path after the owning database row is committed.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Partition is a subdirectory of the uploads root.
type Partition string

const (
	ClubDocs          Partition = "club_docs"
	MemberPhotos      Partition = "members/photos"
	MemberForms       Partition = "members/forms"
	MemberMedical     Partition = "members/medical"
	CoachContracts    Partition = "coaches/contracts"
	CoachDocs         Partition = "coaches/docs"
	CoachPhotos       Partition = "coaches/photos"
	CompetitionImages Partition = "competitions/gallery"
)

const stagingDir = ".staging"

// Store is an uploads tree rooted at Root.
type Store struct {
	Root string
	Log  *logrus.Logger
	now  func() time.Time
}

// New returns a Store rooted at root.
func New(root string, log *logrus.Logger) *Store {
	return &Store{Root: root, Log: log, now: time.Now}
}

// Staged is a file written to the staging area whose final path is reserved.
// Path is relative to the store root and is what the database row stores.
type Staged struct {
	Path     string
	Filename string

	store *Store
	tmp   string
	done  bool
}

// Stage copies r into the staging area and reserves
// <partition>/<YYYYmmdd_HHMMSS>_<id>_<name> as the final path.
func (s *Store) Stage(p Partition, filename string, r io.Reader) (*Staged, error) {
	dir := filepath.Join(s.Root, stagingDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	id := uuid.NewString()
	tmp := filepath.Join(dir, id)
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create staged file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return nil, fmt.Errorf("write staged file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("close staged file: %w", err)
	}
	name := SafeName(filename)
	final := path.Join(string(p), fmt.Sprintf("%s_%s_%s", s.now().Format("20060102_150405"), id[:8], name))
	return &Staged{Path: final, Filename: name, store: s, tmp: tmp}, nil
}

// Commit moves the staged file to its final path.
func (st *Staged) Commit() error {
	if st.done {
		return errors.New("staged file already finalized")
	}
	dst := st.store.Abs(st.Path)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.Rename(st.tmp, dst); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	st.done = true
	return nil
}

// Discard removes the staged file. It is a no-op after Commit.
func (st *Staged) Discard() {
	if st == nil || st.done {
		return
	}
	st.done = true
	if err := os.Remove(st.tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		st.store.Log.WithError(err).WithField("staged", st.tmp).Warn("discard staged upload")
	}
}

// Abs maps a stored relative path to the filesystem.
func (s *Store) Abs(rel string) string {
	return filepath.Join(s.Root, filepath.FromSlash(rel))
}

// Open opens a stored file for reading. Paths escaping the root are rejected.
func (s *Store) Open(rel string) (*os.File, error) {
	clean := path.Clean("/" + rel)
	if strings.HasPrefix(clean, "/"+stagingDir) {
		return nil, os.ErrNotExist
	}
	return os.Open(s.Abs(strings.TrimPrefix(clean, "/")))
}

// Remove deletes a stored file; a missing file is not an error.
func (s *Store) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	if err := os.Remove(s.Abs(rel)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Sweep deletes staged files older than ttl, left behind when a process died
// between staging and commit. It returns how many files were removed.
func (s *Store) Sweep(ttl time.Duration) (int, error) {
	dir := filepath.Join(s.Root, stagingDir)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	cutoff := s.now().Add(-ttl)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			s.Log.WithError(err).WithField("file", e.Name()).Warn("sweep staged upload")
			continue
		}
		removed++
	}
	if removed > 0 {
		s.Log.WithField("removed", removed).Info("swept stale staged uploads")
	}
	return removed, nil
}

// SafeName strips directories and characters that are awkward in file names.
func SafeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == ':' || r == '*' || r == '?' || r == '"' || r == '<' || r == '>' || r == '|':
			return -1
		case r == ' ':
			return '_'
		case r < 32:
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}
