// Package research assembles the research release: it pools PII across
// datasets into the SIRAD ID, a randomized dense-rank identifier over
// identity keys, and attaches it to each dataset's data file.
package research

import (
	"context"
	"encoding/csv"
	"io"
	"math/rand"
	"strconv"

	"github.com/grailbio/base/log"
	"github.com/grailbio/sirad/config"
	"github.com/grailbio/sirad/layout"
	"github.com/grailbio/sirad/reader"
	"github.com/pkg/errors"
)

// identity is one pii row's contribution to the cross-dataset pool.
type identity struct {
	dsn     string
	piiID   int
	ssn     string
	invalid bool // ssn missing or failed validation
	dob     string
	last    string
	sdx     string // Soundex of the first name
}

type block struct {
	dob, last, sdx string
}

func (id *identity) block() (block, bool) {
	if id.dob == "" || id.last == "" || id.sdx == "" {
		return block{}, false
	}
	return block{id.dob, id.last, id.sdx}, true
}

// Stats summarizes one dataset's resolver contribution.
type Stats struct {
	Dataset   string
	NAllPii   int // rows pooled
	NSSNFills int // rows whose SSN was imputed
	NSSNKeys  int // rows keyed by SSN
	NDobnKeys int // rows keyed by name/DOB
	NIDs      int // rows receiving a non-zero id
}

// IDs maps dataset name -> pii_id -> sirad id for every contributing
// dataset.
type IDs map[string]map[int]int

// SiradID pools PII from every dataset, imputes missing SSNs where a
// name/DOB block maps to exactly one valid SSN, and assigns a randomized
// dense-rank identifier per distinct identity key. Rows with no usable
// key receive id 0.
func SiradID(ctx context.Context, cfg *config.Config, datasets []*layout.Dataset, rnd *rand.Rand) (IDs, []*Stats, error) {
	var (
		pool  []identity
		stats []*Stats
		byDsn = map[string]*Stats{}
	)
	for _, ds := range datasets {
		if !ds.HasPII {
			continue
		}
		rows, ok, err := loadIdentities(ctx, cfg, ds)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			log.Printf("%s: no identity columns, excluded from SIRAD ID", ds.Name)
			continue
		}
		s := &Stats{Dataset: ds.Name, NAllPii: len(rows)}
		stats = append(stats, s)
		byDsn[ds.Name] = s
		pool = append(pool, rows...)
	}

	// Blocks of valid, fully named rows that agree on exactly one SSN.
	distinct := map[block]map[string]bool{}
	for i := range pool {
		id := &pool[i]
		if id.invalid {
			continue
		}
		b, ok := id.block()
		if !ok {
			continue
		}
		ssns := distinct[b]
		if ssns == nil {
			ssns = map[string]bool{}
			distinct[b] = ssns
		}
		ssns[id.ssn] = true
	}
	impute := make(map[block]string, len(distinct))
	for b, ssns := range distinct {
		if len(ssns) == 1 {
			for ssn := range ssns {
				impute[b] = ssn
			}
		}
	}

	ids := IDs{}
	for dsn := range byDsn {
		ids[dsn] = map[int]int{}
	}
	rank := map[string]int{}
	var keys []string
	keyOf := make([]string, len(pool))
	for i := range pool {
		id := &pool[i]
		s := byDsn[id.dsn]
		if id.invalid {
			if b, ok := id.block(); ok {
				if ssn, ok := impute[b]; ok {
					id.ssn = ssn
					id.invalid = false
					s.NSSNFills++
				}
			}
		}
		var key string
		switch {
		case !id.invalid:
			key = id.ssn
			s.NSSNKeys++
		default:
			if b, ok := id.block(); ok {
				key = b.dob + "_" + b.last + "_" + b.sdx
				s.NDobnKeys++
			}
		}
		keyOf[i] = key
		if key != "" {
			if _, ok := rank[key]; !ok {
				rank[key] = 0
				keys = append(keys, key)
			}
		}
	}

	// Randomized dense rank over the distinct keys.
	rnd.Shuffle(len(keys), func(i, j int) {
		keys[i], keys[j] = keys[j], keys[i]
	})
	for i, key := range keys {
		rank[key] = i + 1
	}

	for i := range pool {
		id := &pool[i]
		sirad := 0
		if keyOf[i] != "" {
			sirad = rank[keyOf[i]]
			byDsn[id.dsn].NIDs++
		}
		ids[id.dsn][id.piiID] = sirad
	}
	return ids, stats, nil
}

// loadIdentities reads one dataset's pii file and projects its identity
// columns. ok is false when the dataset has neither an SSN column nor the
// full first/last/DOB group.
func loadIdentities(ctx context.Context, cfg *config.Config, ds *layout.Dataset) (rows []identity, ok bool, err error) {
	path, err := cfg.Path(ds.Name, cfg.PiiDir)
	if err != nil {
		return nil, false, err
	}
	r, closer, err := reader.Open(ctx, path, "")
	if err != nil {
		return nil, false, err
	}
	defer closer() // nolint: errcheck
	cr := csv.NewReader(r)
	cr.Comma = '|'
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, false, errors.Wrapf(err, "read %s", path)
	}
	index := map[string]int{}
	for i, name := range header {
		index[name] = i
	}
	piiID, hasID := index["pii_id"]
	if !hasID {
		return nil, false, errors.Errorf("%s: pii file has no pii_id column", ds.Name)
	}
	ssnIdx, hasSSN := index["ssn"]
	ssnInvalidIdx := -1
	if hasSSN {
		var hasVerdict bool
		if ssnInvalidIdx, hasVerdict = index["ssn_invalid"]; !hasVerdict {
			return nil, false, errors.Errorf("%s: ssn column without ssn_invalid", ds.Name)
		}
	}
	firstIdx, hasFirst := index["first_name"]
	lastIdx, hasLast := index["last_name"]
	dobIdx, hasDob := index["dob"]
	hasName := hasFirst && hasLast && hasDob
	if !hasSSN && !hasName {
		return nil, false, nil
	}
	at := func(record []string, i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return record[i]
	}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, errors.Wrapf(err, "read %s", path)
		}
		pid, err := strconv.Atoi(at(record, piiID))
		if err != nil {
			return nil, false, errors.Errorf("%s: bad pii_id %q", ds.Name, at(record, piiID))
		}
		id := identity{dsn: ds.Name, piiID: pid, invalid: true}
		if hasSSN {
			id.ssn = at(record, ssnIdx)
			id.invalid = at(record, ssnInvalidIdx) != "0" || id.ssn == ""
		}
		if hasName {
			id.dob = at(record, dobIdx)
			id.last = at(record, lastIdx)
			if first := at(record, firstIdx); first != "" {
				id.sdx = Soundex(first)
			}
		}
		rows = append(rows, id)
	}
	return rows, true, nil
}
