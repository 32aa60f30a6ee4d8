package research

import (
	crand "crypto/rand"
	"encoding/binary"
	"encoding/csv"
	"math/rand"
	"os"
	"strconv"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/sirad/config"
	"github.com/grailbio/sirad/layout"
)

func cryptoSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		log.Panicf("crypto seed: %v", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:]) >> 1)
}

// Run executes the research phase: resolve the SIRAD ID over all pooled
// PII, write the per-dataset statistics, and emit the research files.
// A zero seed draws one from a cryptographic source; the effective seed
// is always recorded next to the statistics.
func Run(cfg *config.Config, datasets []*layout.Dataset, seed int64) error {
	ctx := vcontext.Background()
	if seed == 0 {
		seed = cryptoSeed()
	}
	log.Printf("research seed: %d", seed)
	rnd := rand.New(rand.NewSource(seed))
	ids, stats, err := SiradID(ctx, cfg, datasets, rnd)
	if err != nil {
		return err
	}
	if err := writeStats(cfg, stats, seed); err != nil {
		return err
	}
	return Release(ctx, cfg, datasets, ids)
}

// writeStats records the per-dataset resolver statistics and the seed
// that drove the key permutation.
func writeStats(cfg *config.Config, stats []*Stats, seed int64) error {
	path, err := cfg.Path("sirad_id_stats", cfg.ResearchDir)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	err = w.Write([]string{"dataset", "n_all_pii", "n_ssn_fills", "n_ssn_keys", "n_dobn_keys", "n_ids"})
	for _, s := range stats {
		if err != nil {
			break
		}
		err = w.Write([]string{
			s.Dataset,
			strconv.Itoa(s.NAllPii),
			strconv.Itoa(s.NSSNFills),
			strconv.Itoa(s.NSSNKeys),
			strconv.Itoa(s.NDobnKeys),
			strconv.Itoa(s.NIDs),
		})
	}
	if err == nil {
		w.Flush()
		err = w.Error()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	seedPath, err := cfg.Path("sirad_id_seed", cfg.ResearchDir)
	if err != nil {
		return err
	}
	return os.WriteFile(seedPath, []byte(strconv.FormatInt(seed, 10)+"\n"), 0666)
}
