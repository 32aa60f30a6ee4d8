package research_test

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/sirad/config"
	"github.com/grailbio/sirad/layout"
	"github.com/grailbio/sirad/research"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, dir string) *config.Config {
	cfg := config.Default()
	cfg.RawDir = filepath.Join(dir, "raw")
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.PiiDir = filepath.Join(dir, "pii")
	cfg.LinkDir = filepath.Join(dir, "link")
	cfg.ResearchDir = filepath.Join(dir, "research")
	cfg.Project = "Test"
	return cfg
}

func writeOutput(t *testing.T, cfg *config.Config, name, dir, content string) {
	path, err := cfg.Path(name, dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(content), 0666))
}

const taxPii = `pii_id|last_name|first_name|dob|ssn|ssn_invalid
1|Smith|John|1970-03-02|111223333|0
2|Smith|Jon|1970-03-02||1
3|Jones|Bob|1980-01-01||1
4|||||1
5|Conf|Ann|1975-05-05|210115555|0
6|Conf|Anne|1975-05-05|210225555|0
7|Conf|Anna|1975-05-05||1
`

const creditPii = `pii_id|first_name|last_name|dob
1|Johnny|Smith|1970-03-02
2|Zed|Zulu|1999-09-09
`

func datasets() []*layout.Dataset {
	return []*layout.Dataset{
		{Name: "tax", HasPII: true},
		{Name: "credit", HasPII: true},
		{Name: "survey", HasPII: false},
	}
}

func resolve(t *testing.T, cfg *config.Config, seed int64) (research.IDs, map[string]*research.Stats) {
	ids, stats, err := research.SiradID(vcontext.Background(), cfg, datasets(), rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	byName := map[string]*research.Stats{}
	for _, s := range stats {
		byName[s.Dataset] = s
	}
	return ids, byName
}

func TestSiradID(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	cfg := testConfig(t, tempDir)
	writeOutput(t, cfg, "tax", cfg.PiiDir, taxPii)
	writeOutput(t, cfg, "credit", cfg.PiiDir, creditPii)

	ids, stats := resolve(t, cfg, 42)
	tax, credit := ids["tax"], ids["credit"]
	require.NotNil(t, tax)
	require.NotNil(t, credit)

	// Jon's Soundex matches John's (both J500), so rows 1 and 2 share
	// the name/DOB block; row 2's SSN is imputed and all three rows key
	// by SSN.
	assert.NotZero(t, tax[1])
	assert.Equal(t, tax[1], tax[2], "imputed SSN joins the same key")
	assert.Equal(t, tax[1], credit[1], "equal keys across datasets share an id")

	// Bob has no SSN anywhere: keyed by name/DOB, distinct from John.
	assert.NotZero(t, tax[3])
	assert.NotEqual(t, tax[1], tax[3])

	// No SSN and no name: sentinel id 0.
	assert.Zero(t, tax[4])

	// The Conf block holds two distinct valid SSNs, so no imputation:
	// Anna keys by name/DOB instead, distinct from both SSN keys.
	assert.NotZero(t, tax[5])
	assert.NotZero(t, tax[6])
	assert.NotEqual(t, tax[5], tax[6])
	assert.NotZero(t, tax[7])
	assert.NotEqual(t, tax[5], tax[7])
	assert.NotEqual(t, tax[6], tax[7])

	assert.NotZero(t, credit[2])

	taxStats := stats["tax"]
	require.NotNil(t, taxStats)
	assert.Equal(t, 7, taxStats.NAllPii)
	assert.Equal(t, 1, taxStats.NSSNFills)
	assert.Equal(t, 4, taxStats.NSSNKeys) // rows 1, 2 (imputed), 5, 6
	assert.Equal(t, 2, taxStats.NDobnKeys)
	assert.Equal(t, 6, taxStats.NIDs)

	creditStats := stats["credit"]
	require.NotNil(t, creditStats)
	assert.Equal(t, 2, creditStats.NAllPii)
	assert.Equal(t, 1, creditStats.NSSNFills)
	assert.Equal(t, 1, creditStats.NSSNKeys)
	assert.Equal(t, 1, creditStats.NDobnKeys)
	assert.Equal(t, 2, creditStats.NIDs)

	// Ids are a dense rank: every non-zero id falls in 1..k for k
	// distinct keys.
	distinct := map[int]bool{}
	for _, m := range ids {
		for _, id := range m {
			if id != 0 {
				distinct[id] = true
			}
		}
	}
	assert.Len(t, distinct, 6)
	for id := 1; id <= 6; id++ {
		assert.True(t, distinct[id], "dense rank misses %d", id)
	}
}

func TestSiradIDDeterministic(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	cfg := testConfig(t, tempDir)
	writeOutput(t, cfg, "tax", cfg.PiiDir, taxPii)
	writeOutput(t, cfg, "credit", cfg.PiiDir, creditPii)

	first, _ := resolve(t, cfg, 99)
	second, _ := resolve(t, cfg, 99)
	assert.Equal(t, first, second)
}

// A dataset whose pii carries neither an SSN column nor the full
// name/DOB group contributes no identities.
func TestSiradIDExcludesWeakDatasets(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	cfg := testConfig(t, tempDir)
	writeOutput(t, cfg, "tax", cfg.PiiDir, taxPii)
	writeOutput(t, cfg, "credit", cfg.PiiDir, "pii_id|phone\n1|401-555-0100\n")

	ids, stats, err := research.SiradID(vcontext.Background(), cfg, datasets(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	_, ok := ids["credit"]
	assert.False(t, ok)
	for _, s := range stats {
		assert.NotEqual(t, "credit", s.Dataset)
	}
}
