package research

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/sirad/config"
	"github.com/grailbio/sirad/layout"
	"github.com/grailbio/sirad/reader"
	"github.com/pkg/errors"
)

type linkRow struct {
	recordID int
	piiID    int
}

// Release writes each dataset's research file: the data file with the
// SIRAD ID attached via the link file for resolved datasets, or the data
// file hard-linked (copied where hard links are unavailable) unchanged
// for excluded ones.
func Release(ctx context.Context, cfg *config.Config, datasets []*layout.Dataset, ids IDs) error {
	for _, ds := range datasets {
		dataPath, err := cfg.Path(ds.Name, cfg.DataDir)
		if err != nil {
			return err
		}
		resPath, err := cfg.Path(ds.Name, cfg.ResearchDir)
		if err != nil {
			return err
		}
		idmap, ok := ids[ds.Name]
		if !ok {
			if err := linkOrCopy(dataPath, resPath); err != nil {
				return errors.Wrapf(err, "release %s", ds.Name)
			}
			continue
		}
		log.Printf("attaching sirad_id to %s", ds.Name)
		if err := attach(ctx, cfg, ds, idmap, dataPath, resPath); err != nil {
			return errors.Wrapf(err, "release %s", ds.Name)
		}
	}
	return nil
}

// attach streams the data file in record_id order, pairing each row with
// its link entry and prepending the resolved id. A record_id mismatch
// between data and link is an integrity violation and fatal.
func attach(ctx context.Context, cfg *config.Config, ds *layout.Dataset, idmap map[int]int, dataPath, resPath string) error {
	links, err := loadLinks(ctx, cfg, ds)
	if err != nil {
		return err
	}
	sirad := make([]int, len(links))
	for i, l := range links {
		id, ok := idmap[l.piiID]
		if !ok {
			return errors.Errorf("pii_id %d has no sirad_id after join", l.piiID)
		}
		sirad[i] = id
	}

	in, err := file.Open(ctx, dataPath)
	if err != nil {
		return err
	}
	defer in.Close(ctx) // nolint: errcheck
	out, err := file.Create(ctx, resPath)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(out.Writer(ctx))
	scanner := bufio.NewScanner(in.Reader(ctx))
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	if !scanner.Scan() {
		_ = out.Close(ctx)
		if err := scanner.Err(); err != nil {
			return err
		}
		return errors.Errorf("data file %s is empty", dataPath)
	}
	err = func() error {
		if _, err := w.WriteString("sirad_id|" + scanner.Text() + "\n"); err != nil {
			return err
		}
		n := 0
		for scanner.Scan() {
			line := scanner.Text()
			if n >= len(links) {
				return errors.Errorf("data file %s has more rows than its link file", dataPath)
			}
			recordID := line
			if i := strings.IndexByte(line, '|'); i >= 0 {
				recordID = line[:i]
			}
			got, err := strconv.Atoi(recordID)
			if err != nil || got != links[n].recordID {
				return errors.Errorf("record_id mismatch at data row %d: data %q, link %d", n+1, recordID, links[n].recordID)
			}
			if _, err := w.WriteString(strconv.Itoa(sirad[n]) + "|" + line + "\n"); err != nil {
				return err
			}
			n++
		}
		if err := scanner.Err(); err != nil {
			return err
		}
		if n != len(links) {
			return errors.Errorf("data file %s has %d rows but its link file has %d", dataPath, n, len(links))
		}
		return w.Flush()
	}()
	if err != nil {
		_ = out.Close(ctx)
		return err
	}
	return out.Close(ctx)
}

// loadLinks reads a dataset's link file sorted by record_id.
func loadLinks(ctx context.Context, cfg *config.Config, ds *layout.Dataset) ([]linkRow, error) {
	path, err := cfg.Path(ds.Name, cfg.LinkDir)
	if err != nil {
		return nil, err
	}
	r, closer, err := reader.Open(ctx, path, "")
	if err != nil {
		return nil, err
	}
	defer closer() // nolint: errcheck
	cr := csv.NewReader(r)
	cr.Comma = '|'
	cr.FieldsPerRecord = 2
	if _, err := cr.Read(); err != nil { // header
		return nil, errors.Wrapf(err, "read %s", path)
	}
	var links []linkRow
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}
		recordID, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, errors.Errorf("bad record_id %q in %s", record[0], path)
		}
		piiID, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, errors.Errorf("bad pii_id %q in %s", record[1], path)
		}
		links = append(links, linkRow{recordID, piiID})
	}
	sort.Slice(links, func(i, j int) bool { return links[i].recordID < links[j].recordID })
	return links, nil
}

// linkOrCopy hard-links dst to src, falling back to a plain copy on file
// systems without hard links.
func linkOrCopy(src, dst string) error {
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Link(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close() // nolint: errcheck
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
