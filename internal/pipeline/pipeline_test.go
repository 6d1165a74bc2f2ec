package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/structbio/foldmap/internal/config"
)

// fakeRunner records every invocation and fails according to script.
type fakeRunner struct {
	calls  [][]string
	script func(args []string) error
}

func (f *fakeRunner) Run(args ...string) error {
	call := make([]string, len(args))
	copy(call, args)
	f.calls = append(f.calls, call)
	if f.script != nil {
		return f.script(args)
	}
	return nil
}

// subcommands lists the first argument of every recorded invocation.
func (f *fakeRunner) subcommands() []string {
	var out []string
	for _, c := range f.calls {
		out = append(out, c[0])
	}
	return out
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	tmp := t.TempDir()
	input := filepath.Join(tmp, "structs")
	if err := os.MkdirAll(input, 0o755); err != nil {
		t.Fatal(err)
	}
	return &config.Config{
		InputDir: input,
		QueryDir: input,
		DBName:   filepath.Join(tmp, "afdbDB"),
		Output:   filepath.Join(tmp, "knn_raw.m8"),
		Scratch:  filepath.Join(tmp, "foldseek_tmp"),
		TopK:     2,
		Threads:  1,
	}
}

func TestRunFreshBuild(t *testing.T) {
	cfg := testConfig(t)
	r := &fakeRunner{}

	res, err := New(cfg, r, Reporter{}).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"createdb", "createindex", "easy-search"}
	if !reflect.DeepEqual(r.subcommands(), want) {
		t.Fatalf("invocations: got %v want %v", r.subcommands(), want)
	}
	if res.State != StateSearchDone {
		t.Errorf("terminal state: got %s", res.State)
	}
	if !res.BuiltDB {
		t.Error("fresh run must build the database")
	}
	if res.Schema.Name != "extended" {
		t.Errorf("schema: got %s want extended", res.Schema.Name)
	}

	// The search invocation must carry the full protocol.
	search := r.calls[2]
	wantSearch := []string{
		"easy-search", cfg.QueryDir, cfg.DBName, cfg.Output, cfg.Scratch,
		"--threads", "1", "--max-seqs", "2", "--alignment-type", "1",
		"--format-output", "query,target,alnlen,qcov,tcov,evalue,bits,alntmscore",
	}
	if !reflect.DeepEqual(search, wantSearch) {
		t.Errorf("search args:\n got  %v\n want %v", search, wantSearch)
	}
}

func TestRunMissingInputInvokesNothing(t *testing.T) {
	cfg := testConfig(t)
	cfg.InputDir = filepath.Join(cfg.InputDir, "nope")
	cfg.QueryDir = cfg.InputDir
	r := &fakeRunner{}

	if _, err := New(cfg, r, Reporter{}).Run(); err == nil {
		t.Fatal("missing input dir must fail the run")
	}
	if len(r.calls) != 0 {
		t.Fatalf("engine must not be invoked, got %v", r.subcommands())
	}
}

func TestRunMissingQueryDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.QueryDir = filepath.Join(filepath.Dir(cfg.InputDir), "queries")
	r := &fakeRunner{}

	if _, err := New(cfg, r, Reporter{}).Run(); err == nil {
		t.Fatal("missing query dir must fail the run")
	}
	if len(r.calls) != 0 {
		t.Fatalf("engine must not be invoked, got %v", r.subcommands())
	}
}

func TestRunSkipsCompleteDB(t *testing.T) {
	cfg := testConfig(t)
	markers := map[string]string{
		cfg.DBName + ".dbtype": "type marker\n",
		cfg.DBName + ".lookup": "0\tAF-P12345-F1\t0\n",
	}
	for path, content := range markers {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	r := &fakeRunner{}
	res, err := New(cfg, r, Reporter{}).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"createindex", "easy-search"}
	if !reflect.DeepEqual(r.subcommands(), want) {
		t.Fatalf("invocations: got %v want %v", r.subcommands(), want)
	}
	if res.BuiltDB {
		t.Error("complete database must not be rebuilt without force")
	}
	for path, content := range markers {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("marker %s gone: %v", path, err)
		}
		if string(data) != content {
			t.Errorf("marker %s modified: %q", path, data)
		}
	}
}

func TestRunPartialWithoutForceHalts(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(cfg.DBName+".lookup", []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := &fakeRunner{}
	_, err := New(cfg, r, Reporter{}).Run()
	if err == nil {
		t.Fatal("partial database without force must halt")
	}
	if !strings.Contains(err.Error(), "--force") {
		t.Errorf("diagnostic should point at --force: %v", err)
	}
	if len(r.calls) != 0 {
		t.Fatalf("no engine invocation expected, got %v", r.subcommands())
	}
	// No destructive action either.
	if _, err := os.Stat(cfg.DBName + ".lookup"); err != nil {
		t.Errorf("partial marker must be left in place: %v", err)
	}
}

func TestRunForceWipesBeforeRebuild(t *testing.T) {
	cfg := testConfig(t)
	cfg.Force = true
	for _, m := range dbMarkers(cfg.DBName) {
		if err := os.WriteFile(m, []byte("old"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var leftover []string
	r := &fakeRunner{script: func(args []string) error {
		if args[0] == "createdb" {
			// All markers must already be gone when the rebuild starts.
			for _, m := range dbMarkers(cfg.DBName) {
				if _, err := os.Stat(m); !os.IsNotExist(err) {
					leftover = append(leftover, m)
				}
			}
		}
		return nil
	}}

	res, err := New(cfg, r, Reporter{}).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(leftover) != 0 {
		t.Errorf("markers still present at rebuild time: %v", leftover)
	}
	if !res.BuiltDB {
		t.Error("forced run must rebuild the database")
	}
	if got := r.subcommands()[0]; got != "createdb" {
		t.Errorf("first invocation after wipe: got %s", got)
	}
}

func TestRunForceOnPartialDBWipesAndRebuilds(t *testing.T) {
	cfg := testConfig(t)
	cfg.Force = true
	// Interrupted prior build: a marker but no .dbtype completion signal.
	if err := os.WriteFile(cfg.DBName+".lookup", []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	var leftover []string
	r := &fakeRunner{script: func(args []string) error {
		if args[0] == "createdb" {
			for _, m := range dbMarkers(cfg.DBName) {
				if _, err := os.Stat(m); !os.IsNotExist(err) {
					leftover = append(leftover, m)
				}
			}
		}
		return nil
	}}

	res, err := New(cfg, r, Reporter{}).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(leftover) != 0 {
		t.Errorf("partial markers still present at rebuild time: %v", leftover)
	}
	if !res.BuiltDB {
		t.Error("forced run over a partial database must rebuild")
	}
	want := []string{"createdb", "createindex", "easy-search"}
	if !reflect.DeepEqual(r.subcommands(), want) {
		t.Fatalf("invocations: got %v want %v", r.subcommands(), want)
	}
}

func TestRunForceOnAbsentDBJustBuilds(t *testing.T) {
	cfg := testConfig(t)
	cfg.Force = true
	r := &fakeRunner{}

	if _, err := New(cfg, r, Reporter{}).Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"createdb", "createindex", "easy-search"}
	if !reflect.DeepEqual(r.subcommands(), want) {
		t.Fatalf("invocations: got %v want %v", r.subcommands(), want)
	}
}

func TestSearchFallsBackOnce(t *testing.T) {
	cfg := testConfig(t)
	fail := errors.New("unrecognized output field alntmscore")
	r := &fakeRunner{script: func(args []string) error {
		if args[0] == "easy-search" && strings.Contains(args[len(args)-1], "alntmscore") {
			return fail
		}
		return nil
	}}

	res, err := New(cfg, r, Reporter{}).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Schema.Name != "reduced" {
		t.Errorf("schema after fallback: got %s want reduced", res.Schema.Name)
	}

	var attempts [][]string
	for _, c := range r.calls {
		if c[0] == "easy-search" {
			attempts = append(attempts, c)
		}
	}
	if len(attempts) != 2 {
		t.Fatalf("want exactly 2 search attempts, got %d", len(attempts))
	}
	// Both attempts must be identical except for the schema value.
	first, second := attempts[0], attempts[1]
	if len(first) != len(second) {
		t.Fatalf("attempt arg counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if i == len(first)-1 {
			continue // the --format-output value
		}
		if first[i] != second[i] {
			t.Errorf("arg %d differs between attempts: %q vs %q", i, first[i], second[i])
		}
	}
	if strings.Contains(second[len(second)-1], "alntmscore") {
		t.Error("fallback attempt must drop the alntmscore column")
	}
}

func TestSearchFailsAfterAllSchemas(t *testing.T) {
	cfg := testConfig(t)
	r := &fakeRunner{script: func(args []string) error {
		if args[0] == "easy-search" {
			return errors.New("exit status 1")
		}
		return nil
	}}

	_, err := New(cfg, r, Reporter{}).Run()
	if err == nil {
		t.Fatal("run must fail when every schema is rejected")
	}

	var attempts int
	for _, c := range r.calls {
		if c[0] == "easy-search" {
			attempts++
		}
	}
	if attempts != len(Schemas) {
		t.Errorf("want %d search attempts, got %d", len(Schemas), attempts)
	}
}

func TestIndexBuildFailureIsFatal(t *testing.T) {
	cfg := testConfig(t)
	r := &fakeRunner{script: func(args []string) error {
		if args[0] == "createindex" {
			return errors.New("exit status 1")
		}
		return nil
	}}

	_, err := New(cfg, r, Reporter{}).Run()
	if err == nil {
		t.Fatal("index build failure must be fatal")
	}
	if got := r.subcommands(); got[len(got)-1] != "createindex" {
		t.Errorf("no invocation may follow a failed createindex: %v", got)
	}
}
