package service

import (
	"os"

	"lasrouter/internal/platform/config"
)

// Options locates the resources and the interpreter
// relative paths resolve against Root
type Options struct {
	Root        string
	ScriptsDir  string
	InputDir    string
	OutputRoot  string
	Interpreter string
}

// FromConfig reads EXECUTOR_* under cfg
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("EXECUTOR_")
	wd, _ := os.Getwd()
	root := c.MayPath("ROOT", "resources", wd)
	return Options{
		Root:        root,
		ScriptsDir:  c.MayPath("SCRIPTS_DIR", "scripts", root),
		InputDir:    c.MayPath("INPUT_DIR", "las", root),
		OutputRoot:  c.MayPath("OUTPUT_DIR", "output", root),
		Interpreter: c.MayString("INTERPRETER", ""),
	}
}
