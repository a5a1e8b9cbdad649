package gitexec

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// DefaultMaxOutput caps captured stdout/stderr per invocation. Output beyond
// the cap is dropped, not buffered. Override per call with $maxOutput.
const DefaultMaxOutput = 5 * 1024 * 1024

// Spec is the decoded form of a single git invocation: the command to run,
// ordered argv, effective repository locations, and executor controls.
type Spec struct {
	// Command is the binary to execute (normally "git").
	Command string
	// BaseArgs are arguments inserted before everything else, e.g. when the
	// configured command is "git --no-pager".
	BaseArgs []string
	// Subcommand is the first positional string of the call.
	Subcommand string
	// Argv holds positional arguments interleaved with encoded options, in
	// the order they appeared in the call.
	Argv []string

	GitDir    string
	WorkTree  string
	IndexFile string

	Cwd         string
	Spawn       bool
	Shell       bool
	NullOnError bool
	Passthrough bool
	Wait        bool
	PreserveEnv *bool
	Env         map[string]string
	MaxOutput   int64

	// OnStdout and OnStderr receive one complete line per call, without the
	// trailing newline. A non-empty partial line at process exit is delivered.
	OnStdout func(string)
	OnStderr func(string)
}

// controls is the mapstructure target for "$"-prefixed keys. The callback
// controls are extracted by hand since function values do not decode.
type controls struct {
	GitDir      string            `mapstructure:"gitDir"`
	WorkTree    string            `mapstructure:"workTree"`
	IndexFile   string            `mapstructure:"indexFile"`
	Cwd         string            `mapstructure:"cwd"`
	Spawn       bool              `mapstructure:"spawn"`
	Shell       bool              `mapstructure:"shell"`
	NullOnError bool              `mapstructure:"nullOnError"`
	Passthrough bool              `mapstructure:"passthrough"`
	Wait        bool              `mapstructure:"wait"`
	PreserveEnv *bool             `mapstructure:"preserveEnv"`
	Env         map[string]string `mapstructure:"env"`
	MaxOutput   int64             `mapstructure:"maxOutput"`
}

// ParseArgs decodes a heterogeneous argument list into a Spec. The first
// string is the git subcommand; later strings and integers are positional
// arguments; Options maps contribute encoded git options in place, so callers
// control argv order when it matters (e.g. "--" followed by a pathspec).
// "$"-prefixed keys inside any map route to the executor instead of git.
func ParseArgs(args ...any) (*Spec, error) {
	spec := &Spec{MaxOutput: DefaultMaxOutput}

	var ctrl map[string]any
	for _, arg := range args {
		switch v := arg.(type) {
		case string:
			spec.appendPositional(v)
		case int, int64:
			spec.appendPositional(scalarString(v))
		case Options:
			splitControls(v, &ctrl)
			spec.Argv = append(spec.Argv, Encode(v)...)
		case map[string]any:
			splitControls(v, &ctrl)
			spec.Argv = append(spec.Argv, Encode(v)...)
		case nil:
			// tolerated: callers sometimes pass a nil option map
		default:
			return nil, fmt.Errorf("%w: unsupported argument type %T", ErrBadArgument, arg)
		}
	}

	if err := spec.applyControls(ctrl); err != nil {
		return nil, err
	}
	return spec, nil
}

func (s *Spec) appendPositional(v string) {
	if s.Subcommand == "" && len(s.Argv) == 0 {
		s.Subcommand = v
		return
	}
	s.Argv = append(s.Argv, v)
}

// splitControls moves "$"-keys from an option map into the accumulated
// control map. Later maps win on conflicting keys.
func splitControls(opts map[string]any, ctrl *map[string]any) {
	for k, v := range opts {
		if !strings.HasPrefix(k, ControlPrefix) {
			continue
		}
		if *ctrl == nil {
			*ctrl = make(map[string]any)
		}
		(*ctrl)[strings.TrimPrefix(k, ControlPrefix)] = v
	}
}

func (s *Spec) applyControls(ctrl map[string]any) error {
	if len(ctrl) == 0 {
		return nil
	}

	// Callbacks first: function values cannot travel through mapstructure.
	if cb, ok := ctrl["onStdout"]; ok {
		fn, ok := cb.(func(string))
		if !ok {
			return fmt.Errorf("%w: $onStdout must be func(string)", ErrBadArgument)
		}
		s.OnStdout = fn
		delete(ctrl, "onStdout")
	}
	if cb, ok := ctrl["onStderr"]; ok {
		fn, ok := cb.(func(string))
		if !ok {
			return fmt.Errorf("%w: $onStderr must be func(string)", ErrBadArgument)
		}
		s.OnStderr = fn
		delete(ctrl, "onStderr")
	}

	var c controls
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &c,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(ctrl); err != nil {
		return fmt.Errorf("%w: %v", ErrBadArgument, err)
	}

	if c.GitDir != "" {
		s.GitDir = c.GitDir
	}
	if c.WorkTree != "" {
		s.WorkTree = c.WorkTree
	}
	if c.IndexFile != "" {
		s.IndexFile = c.IndexFile
	}
	if c.Cwd != "" {
		s.Cwd = c.Cwd
	}
	s.Spawn = s.Spawn || c.Spawn
	s.Shell = s.Shell || c.Shell
	s.NullOnError = s.NullOnError || c.NullOnError
	s.Passthrough = s.Passthrough || c.Passthrough
	s.Wait = s.Wait || c.Wait
	if c.PreserveEnv != nil {
		s.PreserveEnv = c.PreserveEnv
	}
	if len(c.Env) > 0 {
		if s.Env == nil {
			s.Env = make(map[string]string, len(c.Env))
		}
		for k, v := range c.Env {
			s.Env[k] = v
		}
	}
	if c.MaxOutput > 0 {
		s.MaxOutput = c.MaxOutput
	}
	return nil
}

// FullArgs assembles the final argv after the command name: global options
// first, then the subcommand, then positionals and encoded options in call
// order.
func (s *Spec) FullArgs() []string {
	argv := append([]string{}, s.BaseArgs...)
	if s.GitDir != "" {
		argv = append(argv, "--git-dir="+s.GitDir)
	}
	if s.WorkTree != "" {
		argv = append(argv, "--work-tree="+s.WorkTree)
	}
	if s.Subcommand != "" {
		argv = append(argv, s.Subcommand)
	}
	return append(argv, s.Argv...)
}

// Environ composes the child environment: the process environment as base
// unless $preserveEnv is explicitly false, GIT_INDEX_FILE from the effective
// index file, then per-call $env entries, which win.
func (s *Spec) Environ() []string {
	var env []string
	if s.PreserveEnv == nil || *s.PreserveEnv {
		env = os.Environ()
	}
	if s.IndexFile != "" {
		env = append(env, "GIT_INDEX_FILE="+s.IndexFile)
	}
	if len(s.Env) > 0 {
		keys := make([]string, 0, len(s.Env))
		for k := range s.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			env = append(env, k+"="+s.Env[k])
		}
	}
	return env
}
