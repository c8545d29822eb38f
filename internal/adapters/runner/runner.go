// Package runner starts analysis subprocesses
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Command is one subprocess invocation
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string // appended to the parent environment when set
}

// String renders the command line for logs
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result is what a finished process left behind
// a non-zero ExitCode is a result, not an error
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner is the seam the executor runs commands through
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// RunnerFunc adapts a function to Runner
type RunnerFunc func(ctx context.Context, cmd Command) (Result, error)

// Run calls f
func (f RunnerFunc) Run(ctx context.Context, cmd Command) (Result, error) { return f(ctx, cmd) }

// DefaultMaxOutput caps each captured stream
const DefaultMaxOutput = 1 << 20

// Exec runs commands with os/exec
type Exec struct {
	// MaxOutput caps captured stdout and stderr each, zero means DefaultMaxOutput
	MaxOutput int
}

// Run starts cmd and waits for it; err is set only when the process could not run
func (e Exec) Run(ctx context.Context, cmd Command) (Result, error) {
	if cmd.Name == "" {
		return Result{}, errors.New("runner: empty command name")
	}
	limit := e.MaxOutput
	if limit <= 0 {
		limit = DefaultMaxOutput
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(c.Environ(), cmd.Env...)
	}
	stdout := &capped{max: limit}
	stderr := &capped{max: limit}
	c.Stdout = stdout
	c.Stderr = stderr

	err := c.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		res.ExitCode = ee.ExitCode()
		if res.ExitCode < 0 {
			// killed by a signal
			return res, fmt.Errorf("runner: %s: %w", cmd.Name, err)
		}
		return res, nil
	}
	return res, fmt.Errorf("runner: start %s: %w", cmd.Name, err)
}

// Interpreter resolves the python interpreter: preferred when set, else python3 then python
func Interpreter(preferred string) (string, error) {
	candidates := []string{"python3", "python"}
	if p := strings.TrimSpace(preferred); p != "" {
		candidates = []string{p}
	}
	for _, name := range candidates {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("runner: no interpreter found (tried %s)", strings.Join(candidates, ", "))
}

// capped keeps the first max bytes written and silently drops the rest
type capped struct {
	buf bytes.Buffer
	max int
	cut bool
}

func (c *capped) Write(p []byte) (int, error) {
	if room := c.max - c.buf.Len(); room > 0 {
		if len(p) > room {
			c.buf.Write(p[:room])
			c.cut = true
		} else {
			c.buf.Write(p)
		}
	} else if len(p) > 0 {
		c.cut = true
	}
	return len(p), nil
}

func (c *capped) String() string {
	if c.cut {
		return c.buf.String() + "\n[output truncated]"
	}
	return c.buf.String()
}
