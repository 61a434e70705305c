package uploads

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	s := New(t.TempDir(), log)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC) }
	return s
}

func TestStageCommit(t *testing.T) {
	s := newStore(t)
	st, err := s.Stage(MemberMedical, "../potvrda ana.pdf", strings.NewReader("pdf-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(st.Path, "members/medical/20240501_103000_"))
	assert.True(t, strings.HasSuffix(st.Path, "_potvrda_ana.pdf"))

	_, err = os.Stat(s.Abs(st.Path))
	assert.True(t, os.IsNotExist(err), "final file must not exist before commit")

	require.NoError(t, st.Commit())
	f, err := s.Open(st.Path)
	require.NoError(t, err)
	defer f.Close()
	b, _ := io.ReadAll(f)
	assert.Equal(t, "pdf-bytes", string(b))

	st.Discard() // no-op after commit
	_, err = os.Stat(s.Abs(st.Path))
	assert.NoError(t, err)
	assert.Error(t, st.Commit())
}

func TestStageDiscard(t *testing.T) {
	s := newStore(t)
	st, err := s.Stage(ClubDocs, "statut.pdf", strings.NewReader("x"))
	require.NoError(t, err)
	st.Discard()
	entries, err := os.ReadDir(filepath.Join(s.Root, stagingDir))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSweepRemovesOnlyStale(t *testing.T) {
	s := newStore(t)
	s.now = time.Now
	old, err := s.Stage(CoachDocs, "old.pdf", strings.NewReader("old"))
	require.NoError(t, err)
	fresh, err := s.Stage(CoachDocs, "fresh.pdf", strings.NewReader("fresh"))
	require.NoError(t, err)
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old.tmp, past, past))

	n, err := s.Sweep(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, fresh.Commit())
	assert.Error(t, old.Commit())
}

func TestSweepWithoutStagingDir(t *testing.T) {
	s := newStore(t)
	n, err := s.Sweep(time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpenRejectsStaging(t *testing.T) {
	s := newStore(t)
	st, err := s.Stage(ClubDocs, "a.pdf", strings.NewReader("x"))
	require.NoError(t, err)
	_, err = s.Open("../" + stagingDir + "/" + filepath.Base(st.tmp))
	assert.Error(t, err)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "file", SafeName(""))
	assert.Equal(t, "evil.sh", SafeName("../../evil.sh"))
	assert.Equal(t, "c.txt", SafeName(`C:\a\b\c.txt`))
	assert.Equal(t, "moj_dokument.pdf", SafeName("moj dokument.pdf"))
}
