// Package config holds the immutable run configuration: directory roots,
// project versioning, the channel salts, and output path construction.
// A Config value is threaded through the pipeline constructors; there is
// no process-global state.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// DefaultFile is the configuration file loaded from the working directory
// when no explicit path is given.
const DefaultFile = "sirad.yaml"

// Config is the pipeline configuration. Salts are pointers so that an
// unset salt is distinguishable from an empty one.
type Config struct {
	LayoutsDir  string  `yaml:"layouts_dir"`
	RawDir      string  `yaml:"raw_dir"`
	DataDir     string  `yaml:"data_dir"`
	PiiDir      string  `yaml:"pii_dir"`
	LinkDir     string  `yaml:"link_dir"`
	ResearchDir string  `yaml:"research_dir"`
	StagedDir   string  `yaml:"staged_dir"`
	Version     int     `yaml:"version"`
	Project     string  `yaml:"project"`
	DataSalt    *string `yaml:"data_salt"`
	PiiSalt     *string `yaml:"pii_salt"`
	ProcessLog  string  `yaml:"process_log"`
	// DateFormat is the Go reference layout used for all dates in one
	// release.
	DateFormat string `yaml:"date_format"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	c := &Config{
		LayoutsDir:  "layouts",
		RawDir:      "raw",
		DataDir:     "data",
		PiiDir:      "pii",
		LinkDir:     "link",
		ResearchDir: "research",
		StagedDir:   "staged",
		Version:     1,
		DateFormat:  "2006-01-02",
	}
	c.ProcessLog = c.defaultProcessLog()
	return c
}

func (c *Config) defaultProcessLog() string {
	return filepath.Join(c.DataDir, fmt.Sprintf("%s_V%d_process.log", c.Project, c.Version))
}

// Load reads the YAML configuration at path, filling unset options with
// defaults. An empty path loads DefaultFile when it exists and plain
// defaults otherwise. Unknown keys are errors.
func Load(path string) (*Config, error) {
	implicit := path == ""
	if implicit {
		path = DefaultFile
	}
	doc, err := os.ReadFile(path)
	if err != nil {
		if implicit && os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	c := Default()
	c.ProcessLog = "" // re-derive unless the file sets it
	if err := yaml.UnmarshalStrict(doc, c); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	if c.ProcessLog == "" {
		c.ProcessLog = c.defaultProcessLog()
	}
	return c, nil
}

// versioned returns <dir>/<PROJECT>_V<VERSION>, creating it on demand.
func (c *Config) versioned(dir string) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("%s_V%d", c.Project, c.Version))
	if err := os.MkdirAll(path, 0777); err != nil {
		return "", err
	}
	return path, nil
}

// Path returns the output path <dir>/<PROJECT>_V<VERSION>/<name>.txt for
// the given channel directory, creating directories on demand.
func (c *Config) Path(name, dir string) (string, error) {
	base, err := c.versioned(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, name+".txt"), nil
}

// SourcePath resolves a dataset's relative source path under the raw
// directory.
func (c *Config) SourcePath(source string) string {
	return filepath.Join(c.RawDir, source)
}
