package migration

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan(t *testing.T) {
	t.Parallel()

	t.Run("orders by numeric version", func(t *testing.T) {
		t.Parallel()
		fsys := fstest.MapFS{
			"m/010_later.sql":  {Data: []byte("CREATE TABLE b (id TEXT);")},
			"m/2_first.sql":    {Data: []byte("CREATE TABLE a (id TEXT);")},
			"m/README.md":      {Data: []byte("ignored")},
			"m/nested/3_x.sql": {Data: []byte("ignored")},
		}

		got, err := Scan(fsys, "m")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "2", got[0].Version)
		assert.Equal(t, "first", got[0].Description)
		assert.Equal(t, "010", got[1].Version)
		assert.NotEmpty(t, got[1].Checksum)
	})

	t.Run("rejects bad file names", func(t *testing.T) {
		t.Parallel()
		fsys := fstest.MapFS{"m/init.sql": {Data: []byte("SELECT 1;")}}

		_, err := Scan(fsys, "m")
		require.ErrorIs(t, err, ErrInvalidFileName)
	})

	t.Run("rejects duplicate versions", func(t *testing.T) {
		t.Parallel()
		fsys := fstest.MapFS{
			"m/001_a.sql": {Data: []byte("SELECT 1;")},
			"m/001_b.sql": {Data: []byte("SELECT 2;")},
		}

		_, err := Scan(fsys, "m")
		require.ErrorIs(t, err, ErrDuplicateVersion)
	})

	t.Run("rejects comment-only files", func(t *testing.T) {
		t.Parallel()
		fsys := fstest.MapFS{"m/001_a.sql": {Data: []byte("-- nothing here\n;\n")}}

		_, err := Scan(fsys, "m")
		require.ErrorIs(t, err, ErrEmptyMigration)
	})
}

func TestSplitStatements(t *testing.T) {
	t.Parallel()

	script := `
-- people
CREATE TABLE persons (id TEXT);

CREATE INDEX idx ON persons (id);
-- trailing
`
	got := splitStatements(script)
	assert.Equal(t, []string{"CREATE TABLE persons (id TEXT)", "CREATE INDEX idx ON persons (id)"}, got)
}
