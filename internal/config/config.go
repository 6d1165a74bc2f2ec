package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults for everything except the input directory, which is required.
const (
	DefaultDBName  = "afdbDB"
	DefaultOutput  = "knn_raw.m8"
	DefaultScratch = "foldseek_tmp"
	DefaultTopK    = 50
)

// ErrMissingInput is returned by Resolve when no input directory was given
// on the command line or in the config file.
var ErrMissingInput = errors.New("input directory is required (--input)")

// Config is the fully resolved run configuration. It is immutable once
// Resolve returns; every pipeline step reads from it and nothing writes.
type Config struct {
	InputDir string
	QueryDir string
	DBName   string
	Output   string
	Scratch  string
	TopK     int
	Threads  int
	Force    bool
}

// Options carries the raw invocation parameters before resolution.
// Zero values mean "not given".
type Options struct {
	InputDir string
	QueryDir string
	DBName   string
	Output   string
	Scratch  string
	TopK     int
	Threads  int
	Force    bool
}

// File is the on-disk representation of an optional foldmap.yaml.
// It can pre-set any run parameter; explicit flags always win.
type File struct {
	InputDir string `yaml:"input_dir,omitempty"`
	QueryDir string `yaml:"query_dir,omitempty"`
	DBName   string `yaml:"database,omitempty"`
	Output   string `yaml:"output,omitempty"`
	Scratch  string `yaml:"scratch,omitempty"`
	TopK     int    `yaml:"top_k,omitempty"`
	Threads  int    `yaml:"threads,omitempty"`
	Force    bool   `yaml:"force,omitempty"`
}

// LoadFile reads and parses a foldmap.yaml.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	return &f, nil
}

// Resolve merges flags over the optional config file over built-in defaults
// and returns the immutable Config. file may be nil. Pure apart from the
// CPU-count probe for the thread default; nothing on disk is touched.
func Resolve(opts Options, file *File) (*Config, error) {
	if file == nil {
		file = &File{}
	}

	cfg := &Config{
		InputDir: firstString(opts.InputDir, file.InputDir),
		QueryDir: firstString(opts.QueryDir, file.QueryDir),
		DBName:   firstString(opts.DBName, file.DBName, DefaultDBName),
		Output:   firstString(opts.Output, file.Output, DefaultOutput),
		Scratch:  firstString(opts.Scratch, file.Scratch, DefaultScratch),
		TopK:     firstInt(opts.TopK, file.TopK, DefaultTopK),
		Threads:  firstInt(opts.Threads, file.Threads, defaultThreads()),
		Force:    opts.Force || file.Force,
	}

	if cfg.InputDir == "" {
		return nil, ErrMissingInput
	}
	// All-vs-all when no query set is given.
	if cfg.QueryDir == "" {
		cfg.QueryDir = cfg.InputDir
	}

	var err error
	if cfg.InputDir, err = ExpandPath(cfg.InputDir); err != nil {
		return nil, err
	}
	if cfg.QueryDir, err = ExpandPath(cfg.QueryDir); err != nil {
		return nil, err
	}

	if cfg.TopK < 1 {
		return nil, fmt.Errorf("top-k must be at least 1, got %d", cfg.TopK)
	}
	if cfg.Threads < 1 {
		return nil, fmt.Errorf("thread count must be at least 1, got %d", cfg.Threads)
	}
	return cfg, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

func defaultThreads() int {
	n := runtime.NumCPU()
	if n < 1 {
		n = 1
	}
	return n
}

func firstString(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstInt(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
