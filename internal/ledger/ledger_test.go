package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_LoadMissingFile(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "replied.txt"))

	set, err := l.Load()

	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestLedger_RecordThenLoad(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "replied.txt"))

	require.NoError(t, l.Record("1111"))
	require.NoError(t, l.Record("2222"))

	set, err := l.Load()
	require.NoError(t, err)

	assert.Len(t, set, 2)
	assert.Contains(t, set, "1111")
	assert.Contains(t, set, "2222")
}

func TestLedger_RecordIsIdempotent(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "replied.txt"))

	require.NoError(t, l.Record("1111"))
	require.NoError(t, l.Record("1111"))

	set, err := l.Load()
	require.NoError(t, err)

	// Duplicate appends fold into a single membership
	assert.Len(t, set, 1)
	assert.Contains(t, set, "1111")
}

func TestLedger_SkipsCommentsAndBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replied.txt")
	content := "# header comment\n\n1111\n  \n# another\n2222\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	set, err := New(path).Load()
	require.NoError(t, err)

	assert.Len(t, set, 2)
	assert.NotContains(t, set, "# header comment")
}

func TestLedger_EnsureExistsWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replied.txt")
	l := New(path)

	require.NoError(t, l.EnsureExists())
	require.NoError(t, l.Record("1111"))
	// Second EnsureExists must not clobber recorded IDs
	require.NoError(t, l.EnsureExists())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "#"))
	assert.Contains(t, string(data), "1111")
}

func TestReadTargetIDs_MissingFile(t *testing.T) {
	ids, err := ReadTargetIDs(filepath.Join(t.TempDir(), "targets.txt"))

	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestReadTargetIDs_PreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.txt")
	require.NoError(t, os.WriteFile(path, []byte("# tracked\n333\n111\n222\n"), 0o644))

	ids, err := ReadTargetIDs(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"333", "111", "222"}, ids)
}

func TestEnsureTargetFile_CreatesTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.txt")

	require.NoError(t, EnsureTargetFile(path))

	ids, err := ReadTargetIDs(path)
	require.NoError(t, err)
	assert.Empty(t, ids, "template must be all comments")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "#")
}
