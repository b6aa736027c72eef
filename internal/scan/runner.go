package scan

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"nanopatterns/internal/analysis"
	"nanopatterns/internal/bytecode"
	"nanopatterns/internal/classfile"
)

// MethodReport is the analysis of one method.
type MethodReport struct {
	Class        string          `json:"class"`
	Method       string          `json:"method"`
	Descriptor   string          `json:"descriptor"`
	Instructions int             `json:"instructions"`
	Result       analysis.Result `json:"patterns"`

	// Code is the decoded body, kept only with WithCode.
	Code bytecode.Stream `json:"-"`
}

// Failure records a class that could not be decoded.
type Failure struct {
	Path string
	Err  error
}

// Report is the outcome of a run. Methods are ordered by input root, then
// by position within the root, then by declaration order.
type Report struct {
	Methods  []MethodReport
	Classes  int       // classes decoded and matched by the target
	Bodiless int       // matched methods without code (abstract or native)
	Failed   []Failure // classes skipped because they did not decode
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers sets the number of classes analyzed concurrently.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the run logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithProgress registers a callback invoked after each class completes.
// It may be called from several goroutines.
func WithProgress(fn func(done, total int)) Option {
	return func(r *Runner) { r.progress = fn }
}

// WithCode keeps each method's decoded stream in its report.
func WithCode() Option {
	return func(r *Runner) { r.keepCode = true }
}

// Runner analyzes every method of a target on a worker pool.
type Runner struct {
	analyzer *analysis.Analyzer
	workers  int
	logger   *slog.Logger
	progress func(done, total int)
	keepCode bool
}

// NewRunner creates a runner around analyzer.
func NewRunner(analyzer *analysis.Analyzer, opts ...Option) *Runner {
	r := &Runner{
		analyzer: analyzer,
		workers:  runtime.NumCPU(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type classResult struct {
	methods  []MethodReport
	bodiless int
	matched  bool
	failure  *Failure
}

// Run loads every input root concurrently, then analyzes each class on the
// pool. Cancelling ctx stops scheduling; the partial report is returned
// with the context error.
func (r *Runner) Run(ctx context.Context, roots []string, target Target) (*Report, error) {
	raws, err := r.load(ctx, roots)
	if err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(r.workers)
	if err != nil {
		return nil, fmt.Errorf("worker pool: %w", err)
	}
	defer pool.Release()

	results, err := r.analyzeAll(ctx, pool, raws, target)
	if err != nil {
		return nil, err
	}
	report := r.collect(results, len(raws))
	return report, ctx.Err()
}

// ClassLookup resolves a class by dotted or internal name.
type ClassLookup interface {
	Lookup(name string) (*classfile.Class, error)
}

// RunClass resolves target.Class through lookup and analyzes that class
// alone. On a classpath the copy in the first entry holding it wins.
func (r *Runner) RunClass(ctx context.Context, lookup ClassLookup, target Target) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := lookup.Lookup(bytecode.InternalName(target.Class))
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", target.Class, err)
	}
	res := r.analyzeParsed(c, c.Name+".class", target)
	if r.progress != nil {
		r.progress(1, 1)
	}
	return r.collect([]classResult{res}, 1), nil
}

// submitter is the part of the worker pool the runner schedules on.
type submitter interface {
	Submit(task func()) error
}

// analyzeAll runs one task per class on pool. It never returns while a
// submitted task is still running.
func (r *Runner) analyzeAll(ctx context.Context, pool submitter, raws []classfile.RawClass, target Target) ([]classResult, error) {
	results := make([]classResult, len(raws))
	var (
		wg   sync.WaitGroup
		done atomic.Int64
	)
	for i, raw := range raws {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		task := func() {
			defer wg.Done()
			if ctx.Err() == nil {
				results[i] = r.analyzeClass(raw, target)
			}
			if r.progress != nil {
				r.progress(int(done.Add(1)), len(raws))
			}
		}
		if err := pool.Submit(task); err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("submit %s: %w", raw.Path, err)
		}
	}
	wg.Wait()
	return results, nil
}

func (r *Runner) collect(results []classResult, inputs int) *Report {
	report := &Report{}
	for _, res := range results {
		if res.failure != nil {
			report.Failed = append(report.Failed, *res.failure)
			continue
		}
		if res.matched {
			report.Classes++
		}
		report.Bodiless += res.bodiless
		report.Methods = append(report.Methods, res.methods...)
	}
	r.logger.Info("scan finished",
		"inputs", inputs, "classes", report.Classes,
		"methods", len(report.Methods), "failed", len(report.Failed))
	return report
}

// load reads all roots concurrently and concatenates them in root order.
func (r *Runner) load(ctx context.Context, roots []string) ([]classfile.RawClass, error) {
	perRoot := make([][]classfile.RawClass, len(roots))
	g, gctx := errgroup.WithContext(ctx)
	for i, root := range roots {
		g.Go(func() error {
			raws, err := classfile.Load(gctx, root)
			if err != nil {
				return fmt.Errorf("load %s: %w", root, err)
			}
			r.logger.Debug("loaded input", "path", root, "classes", len(raws))
			perRoot[i] = raws
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var all []classfile.RawClass
	for _, raws := range perRoot {
		all = append(all, raws...)
	}
	return all, nil
}

func (r *Runner) analyzeClass(raw classfile.RawClass, target Target) classResult {
	c, err := classfile.Parse(raw.Data)
	if err != nil {
		r.logger.Warn("skipping class", "path", raw.Path, "error", err)
		return classResult{failure: &Failure{Path: raw.Path, Err: err}}
	}
	return r.analyzeParsed(c, raw.Path, target)
}

// analyzeParsed analyzes the selected methods of c, read from path.
func (r *Runner) analyzeParsed(c *classfile.Class, path string, target Target) classResult {
	if !target.MatchClass(c.Name) {
		return classResult{}
	}

	res := classResult{matched: true}
	for _, m := range c.Methods {
		if !target.MatchMethod(m.Name, m.Desc) {
			continue
		}
		stream, err := m.Decode()
		if err != nil {
			r.logger.Warn("skipping class", "path", path, "error", err)
			return classResult{failure: &Failure{Path: path, Err: err}}
		}
		facts, err := analysis.FactsFor(c.Name, m.Name, m.Desc, len(m.Exceptions))
		if err != nil {
			r.logger.Warn("skipping class", "path", path, "error", err)
			return classResult{failure: &Failure{Path: path, Err: err}}
		}
		result, ok := r.analyzer.Analyze(stream, facts)
		if !ok {
			res.bodiless++
			continue
		}
		mr := MethodReport{
			Class:        c.Name,
			Method:       m.Name,
			Descriptor:   m.Desc,
			Instructions: stream.Len(),
			Result:       result,
		}
		if r.keepCode {
			mr.Code = stream
		}
		res.methods = append(res.methods, mr)
	}
	return res
}
