// Package pipeline sequences the foldseek invocations that turn a directory
// of structure files into a top-k nearest-neighbor edge list: database
// build, index build, then search with output-schema negotiation.
package pipeline

import (
	"fmt"
	"os"
	"strconv"

	"github.com/structbio/foldmap/internal/config"
	"github.com/structbio/foldmap/internal/engine"
)

// Reporter receives progress lines as the pipeline advances. Any field may
// be nil; the pipeline then stays silent for that kind of event.
type Reporter struct {
	Info func(msg string)
	Done func(msg string)
	Skip func(msg string)
	Warn func(msg string)
}

func (r Reporter) info(msg string) {
	if r.Info != nil {
		r.Info(msg)
	}
}

func (r Reporter) done(msg string) {
	if r.Done != nil {
		r.Done(msg)
	}
}

func (r Reporter) skip(msg string) {
	if r.Skip != nil {
		r.Skip(msg)
	}
}

func (r Reporter) warn(msg string) {
	if r.Warn != nil {
		r.Warn(msg)
	}
}

// Result describes a completed run.
type Result struct {
	State   State
	Schema  Schema // the output schema the search ultimately used
	BuiltDB bool   // whether the database was (re)built this run
}

// Pipeline drives one run over a resolved configuration. It is strictly
// sequential: each engine invocation blocks until the process exits, and
// ownership of the on-disk artifacts passes step to step.
type Pipeline struct {
	cfg    *config.Config
	runner engine.Runner
	rep    Reporter

	state  State
	result Result
}

func New(cfg *config.Config, runner engine.Runner, rep Reporter) *Pipeline {
	return &Pipeline{cfg: cfg, runner: runner, rep: rep, state: StateInit}
}

// Run validates the input sets, then advances the state machine until the
// search is done or a step fails. No engine invocation happens before
// validation passes.
func (p *Pipeline) Run() (*Result, error) {
	if err := CheckInputs(p.cfg); err != nil {
		return nil, err
	}
	for p.state != StateSearchDone {
		if err := p.step(); err != nil {
			return nil, err
		}
	}
	p.result.State = p.state
	return &p.result, nil
}

// step performs exactly one state transition.
func (p *Pipeline) step() error {
	switch p.state {
	case StateInit:
		if err := p.ensureDB(); err != nil {
			return err
		}
		p.state = StateDbReady
	case StateDbReady:
		if err := p.buildIndex(); err != nil {
			return err
		}
		p.state = StateIndexReady
	case StateIndexReady:
		if err := p.search(); err != nil {
			return err
		}
		p.state = StateSearchDone
	default:
		return fmt.Errorf("no transition from state %s", p.state)
	}
	return nil
}

// CheckInputs verifies the input and query structure sets exist before any
// engine invocation or on-disk side effect.
func CheckInputs(cfg *config.Config) error {
	if err := requireDir(cfg.InputDir, "input"); err != nil {
		return err
	}
	if cfg.QueryDir != cfg.InputDir {
		return requireDir(cfg.QueryDir, "query")
	}
	return nil
}

func requireDir(path, role string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s directory does not exist: %s", role, path)
	}
	if err != nil {
		return fmt.Errorf("cannot stat %s directory %s: %w", role, path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s path is not a directory: %s", role, path)
	}
	return nil
}

// ensureDB brings the structure database to the Complete state: skip when
// it is already complete, refuse partial leftovers unless forced, wipe and
// rebuild when forced.
func (p *Pipeline) ensureDB() error {
	db := p.cfg.DBName
	st := InspectDB(db)

	switch {
	case st == DBComplete && !p.cfg.Force:
		p.rep.skip(fmt.Sprintf("database %s already built, skipping createdb (use --force to rebuild)", db))
		return nil
	case st == DBPartial && !p.cfg.Force:
		return fmt.Errorf("found leftovers of an interrupted database build at %s\n"+
			"   Rerun with --force to wipe the partial artifacts and rebuild.", db)
	}

	if st != DBAbsent {
		p.rep.info(fmt.Sprintf("wiping existing database artifacts at %s", db))
		if err := WipeDB(db); err != nil {
			return err
		}
	}

	p.rep.info(fmt.Sprintf("foldseek createdb %s %s", p.cfg.InputDir, db))
	if err := p.runner.Run("createdb", p.cfg.InputDir, db); err != nil {
		return fmt.Errorf("database build failed: %w", err)
	}
	p.result.BuiltDB = true
	p.rep.done(fmt.Sprintf("database built: %s", db))
	return nil
}

// buildIndex always runs: the search index is disposable and cheap next to
// database construction, so there is no skip-if-exists shortcut.
func (p *Pipeline) buildIndex() error {
	threads := strconv.Itoa(p.cfg.Threads)
	p.rep.info(fmt.Sprintf("foldseek createindex %s %s --threads %s", p.cfg.DBName, p.cfg.Scratch, threads))
	if err := p.runner.Run("createindex", p.cfg.DBName, p.cfg.Scratch, "--threads", threads); err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}
	p.rep.done("search index built")
	return nil
}

// search tries each output schema in order and stops at the first the
// engine accepts. All other parameters stay identical across attempts.
func (p *Pipeline) search() error {
	var lastErr error
	for i, s := range Schemas {
		p.rep.info(fmt.Sprintf("foldseek easy-search (%s schema, top-k %d)", s.Name, p.cfg.TopK))
		err := p.runner.Run(p.searchArgs(s)...)
		if err == nil {
			p.result.Schema = s
			p.rep.done(fmt.Sprintf("search finished using the %s output schema", s.Name))
			return nil
		}
		lastErr = err
		if i < len(Schemas)-1 {
			p.rep.warn(fmt.Sprintf("engine rejected the %s output schema, retrying with %s", s.Name, Schemas[i+1].Name))
		}
	}
	return fmt.Errorf("search failed for every output schema: %w", lastErr)
}

func (p *Pipeline) searchArgs(s Schema) []string {
	return []string{
		"easy-search",
		p.cfg.QueryDir,
		p.cfg.DBName,
		p.cfg.Output,
		p.cfg.Scratch,
		"--threads", strconv.Itoa(p.cfg.Threads),
		"--max-seqs", strconv.Itoa(p.cfg.TopK),
		"--alignment-type", "1",
		"--format-output", s.FormatOutput(),
	}
}
