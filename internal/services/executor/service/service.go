// Package service runs catalog analyses as subprocesses
//
// Every run gets its own output directory created with os.MkdirTemp, so two runs of
// the same triple never share an output path even when started in the same millisecond.
// Runs are independent: there is no lock and no built-in timeout.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lasrouter/internal/adapters/runner"
	"lasrouter/internal/core/catalog"
	"lasrouter/internal/platform/logger"
	"lasrouter/internal/platform/metrics"
	pstrings "lasrouter/internal/platform/strings"
	ptime "lasrouter/internal/platform/time"
	"lasrouter/internal/services/executor/domain"
)

// Service implements domain.ExecutorPort and domain.ProberPort
type Service struct {
	opt     Options
	run     runner.Runner
	lookup  func(string) (string, error)
	now     func() time.Time
	metrics *metrics.Metrics
	log     *logger.Logger
}

// New builds an executor; run must be non nil
func New(opt Options, run runner.Runner, m *metrics.Metrics) *Service {
	if run == nil {
		panic("executor.Service requires a non nil Runner")
	}
	return &Service{
		opt:     opt,
		run:     run,
		lookup:  runner.Interpreter,
		now:     time.Now,
		metrics: m,
		log:     logger.Named("executor"),
	}
}

// Options returns the resolved locations
func (s *Service) Options() Options { return s.opt }

// Execute runs the triple's script against its LAS file
func (s *Service) Execute(ctx context.Context, t catalog.Triple) domain.Outcome {
	start := s.now()
	out := s.execute(ctx, t)
	out.DurationMs = ptime.Millis(s.now().Sub(start))
	s.metrics.Executed(t.ToolID, out.Success, out.DurationMs)

	ev := logger.C(ctx).Info()
	if !out.Success {
		ev = logger.C(ctx).Warn().Str("error", pstrings.Truncate(out.Error, 300))
	}
	ev.Str("tool", t.ToolID).Str("script", t.ScriptID).Str("output", out.OutputPath).
		Int64("duration_ms", out.DurationMs).Bool("success", out.Success).Msg("analysis finished")
	return out
}

func (s *Service) execute(ctx context.Context, t catalog.Triple) domain.Outcome {
	script := filepath.Join(s.opt.ScriptsDir, t.ScriptID)
	input := filepath.Join(s.opt.InputDir, t.InputFileID)
	for _, p := range []string{script, input} {
		if fi, err := os.Stat(p); err != nil || !fi.Mode().IsRegular() {
			return failed("file not found: " + p)
		}
	}

	interp, err := s.lookup(s.opt.Interpreter)
	if err != nil {
		return failed(err.Error())
	}

	dir, err := s.outputDir(t.ToolID)
	if err != nil {
		return failed(err.Error())
	}
	output := filepath.Join(dir, strings.TrimSuffix(t.ScriptID, filepath.Ext(t.ScriptID))+".png")

	cmd := runner.Command{Name: interp, Args: []string{script, input, output}, Dir: s.opt.Root}
	s.log.Debug().Str("cmd", cmd.String()).Msg("starting analysis")

	// detached from caller cancellation, the request reaches a terminal status either way
	res, err := s.run.Run(context.WithoutCancel(ctx), cmd)
	switch {
	case err != nil:
		return s.discard(dir, err.Error())
	case res.ExitCode != 0:
		msg := res.Stderr
		if strings.TrimSpace(msg) == "" {
			msg = fmt.Sprintf("exit status %d", res.ExitCode)
		}
		return s.discard(dir, msg)
	}
	return domain.Outcome{Success: true, OutputPath: output}
}

// discard removes the run directory of a failed run; a failed outcome carries no output path
func (s *Service) discard(dir, msg string) domain.Outcome {
	if err := os.RemoveAll(dir); err != nil {
		s.log.Warn().Err(err).Str("dir", dir).Msg("output dir not removed")
	}
	return failed(msg)
}

// outputDir creates <OutputRoot>/<tool>/<stamp>-<random>
func (s *Service) outputDir(tool string) (string, error) {
	parent := filepath.Join(s.opt.OutputRoot, tool)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	dir, err := os.MkdirTemp(parent, ptime.Stamp(s.now())+"-*")
	if err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return dir, nil
}

// Probe checks that the resource directories exist and an interpreter is on PATH
func (s *Service) Probe(_ context.Context) (bool, map[string]any) {
	detail := map[string]any{
		"scripts_dir": s.opt.ScriptsDir,
		"input_dir":   s.opt.InputDir,
		"output_root": s.opt.OutputRoot,
	}
	var problems []string
	for _, d := range []string{s.opt.ScriptsDir, s.opt.InputDir} {
		if fi, err := os.Stat(d); err != nil || !fi.IsDir() {
			problems = append(problems, "missing directory "+d)
		}
	}
	if interp, err := s.lookup(s.opt.Interpreter); err != nil {
		problems = append(problems, err.Error())
	} else {
		detail["interpreter"] = interp
	}
	if len(problems) > 0 {
		detail["error"] = strings.Join(problems, "; ")
		return false, detail
	}
	return true, detail
}

// LASFile describes one file in the input directory
type LASFile struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"sizeBytes"`
	Tool      string `json:"tool,omitempty"`
	Script    string `json:"script,omitempty"`
}

// ListInputs lists *.las files in the input directory with the analysis bound to each
func (s *Service) ListInputs(cat *catalog.Catalog) ([]LASFile, error) {
	entries, err := os.ReadDir(s.opt.InputDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []LASFile{}, nil
		}
		return nil, fmt.Errorf("list inputs: %w", err)
	}
	out := make([]LASFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".las") {
			continue
		}
		f := LASFile{Name: e.Name()}
		if fi, err := e.Info(); err == nil {
			f.SizeBytes = fi.Size()
		}
		if cat != nil {
			for _, t := range cat.Triples() {
				if t.InputFileID == e.Name() {
					f.Tool, f.Script = t.ToolID, t.ScriptID
					break
				}
			}
		}
		out = append(out, f)
	}
	return out, nil
}

func failed(msg string) domain.Outcome { return domain.Outcome{Error: msg} }
