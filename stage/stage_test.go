package stage_test

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/sirad/config"
	"github.com/grailbio/sirad/layout"
	"github.com/grailbio/sirad/stage"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const taxLayout = `
source: tax.txt
fields:
- last: {pii: last_name}
- dob: {pii: dob, type: date}
- job
- salary: {type: int}
`

func writeOutput(t *testing.T, cfg *config.Config, name, dir, content string) {
	path, err := cfg.Path(name, dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(content), 0666))
}

func TestStage(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	cfg := config.Default()
	cfg.DataDir = filepath.Join(tempDir, "data")
	cfg.PiiDir = filepath.Join(tempDir, "pii")
	cfg.LinkDir = filepath.Join(tempDir, "link")
	cfg.StagedDir = filepath.Join(tempDir, "staged")
	cfg.Project = "Test"

	ds, err := layout.Parse("tax", []byte(taxLayout))
	require.NoError(t, err)
	writeOutput(t, cfg, "tax", cfg.DataDir, "record_id|job|salary\n1|cook|45000\n2||\n")
	writeOutput(t, cfg, "tax", cfg.PiiDir, "pii_id|last_name|dob\n1|Smith|1970-03-02\n2|Doe|\n")
	writeOutput(t, cfg, "tax", cfg.LinkDir, "record_id|pii_id\n1|2\n2|1\n")

	require.NoError(t, stage.Stage(vcontext.Background(), cfg, []*layout.Dataset{ds}))

	db, err := sql.Open("sqlite", filepath.Join(cfg.StagedDir, "Test_V1", "data.db"))
	require.NoError(t, err)
	defer db.Close() // nolint: errcheck

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "tax"`).Scan(&n))
	assert.Equal(t, 2, n)

	var job string
	var salary int64
	require.NoError(t, db.QueryRow(`SELECT "job", "salary" FROM "tax" WHERE "record_id" = 1`).Scan(&job, &salary))
	assert.Equal(t, "cook", job)
	assert.Equal(t, int64(45000), salary)

	// Empty serialized values stage as NULL.
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "tax" WHERE "job" IS NULL AND "salary" IS NULL`).Scan(&n))
	assert.Equal(t, 1, n)

	pii, err := sql.Open("sqlite", filepath.Join(cfg.StagedDir, "Test_V1", "pii.db"))
	require.NoError(t, err)
	defer pii.Close() // nolint: errcheck
	require.NoError(t, pii.QueryRow(`SELECT COUNT(*) FROM "tax"`).Scan(&n))
	assert.Equal(t, 2, n)

	link, err := sql.Open("sqlite", filepath.Join(cfg.StagedDir, "Test_V1", "link.db"))
	require.NoError(t, err)
	defer link.Close() // nolint: errcheck
	var piiID int64
	require.NoError(t, link.QueryRow(`SELECT "pii_id" FROM "tax" WHERE "record_id" = 1`).Scan(&piiID))
	assert.Equal(t, int64(2), piiID)
}
