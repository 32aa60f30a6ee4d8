package process

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"sync"
	"time"
)

// RunLog is the append-only process log: one DATASET,NROWS,ELAPSED line
// per successfully processed dataset. Appends are serialized so parallel
// workers can share one log.
type RunLog struct {
	path string
	mu   sync.Mutex
}

// NewRunLog returns a RunLog backed by the file at path. The file is
// created on first append.
func NewRunLog(path string) *RunLog {
	return &RunLog{path: path}
}

// Completed returns the names of datasets already recorded in the log.
// A missing log file yields an empty set.
func (l *RunLog) Completed() (map[string]bool, error) {
	done := map[string]bool{}
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return done, nil
		}
		return nil, err
	}
	defer f.Close() // nolint: errcheck
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	for {
		record, err := r.Read()
		if err == io.EOF {
			return done, nil
		}
		if err != nil {
			return nil, err
		}
		if len(record) > 0 && record[0] != "" {
			done[record[0]] = true
		}
	}
}

// Append records one completed dataset.
func (l *RunLog) Append(dataset string, nrows int, elapsed time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	err = w.Write([]string{
		dataset,
		strconv.Itoa(nrows),
		strconv.FormatFloat(elapsed.Seconds(), 'f', 3, 64),
	})
	if err == nil {
		w.Flush()
		err = w.Error()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
