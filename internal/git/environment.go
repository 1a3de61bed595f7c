package git

import (
	"fmt"
	"sort"
)

// EnvironmentMode selects which environment a spawned git process receives.
type EnvironmentMode int

const (
	// EnvironmentInherit passes the current process environment as-is.
	EnvironmentInherit EnvironmentMode = iota
	// EnvironmentEmpty starts git with no environment variables at all.
	EnvironmentEmpty
	// EnvironmentExplicit starts git with exactly the configured variables.
	EnvironmentExplicit
)

var environmentModeNames = map[EnvironmentMode]string{
	EnvironmentInherit:  "inherit",
	EnvironmentEmpty:    "empty",
	EnvironmentExplicit: "explicit",
}

// String returns the configuration name of the mode.
func (m EnvironmentMode) String() string {
	if name, ok := environmentModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("EnvironmentMode(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m EnvironmentMode) MarshalText() ([]byte, error) {
	name, ok := environmentModeNames[m]
	if !ok {
		return nil, fmt.Errorf("unknown environment mode %d", int(m))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// An empty value decodes to EnvironmentInherit.
func (m *EnvironmentMode) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*m = EnvironmentInherit
		return nil
	}
	for mode, name := range environmentModeNames {
		if name == string(text) {
			*m = mode
			return nil
		}
	}
	return fmt.Errorf("unknown environment mode %q (want inherit, empty or explicit)", string(text))
}

// Environment is the environment policy of a repository handle.
// The zero value inherits the current process environment.
type Environment struct {
	mode EnvironmentMode
	vars map[string]string
}

// InheritEnvironment returns a policy that passes the current process environment.
func InheritEnvironment() Environment {
	return Environment{mode: EnvironmentInherit}
}

// EmptyEnvironment returns a policy that runs git with no environment variables.
func EmptyEnvironment() Environment {
	return Environment{mode: EnvironmentEmpty}
}

// ExplicitEnvironment returns a policy that runs git with exactly vars.
// The map is copied; later changes to vars are not observed.
func ExplicitEnvironment(vars map[string]string) Environment {
	return Environment{mode: EnvironmentExplicit, vars: copyVars(vars)}
}

// Mode returns the policy mode.
func (e Environment) Mode() EnvironmentMode {
	return e.mode
}

// Vars returns a copy of the explicit variables. It is nil unless the mode is explicit.
func (e Environment) Vars() map[string]string {
	if e.mode != EnvironmentExplicit {
		return nil
	}
	return copyVars(e.vars)
}

// Slice renders the policy in the form expected by exec.Cmd.Env.
// A nil result means "inherit"; a non-nil empty slice means "no variables".
func (e Environment) Slice() []string {
	switch e.mode {
	case EnvironmentEmpty:
		return []string{}
	case EnvironmentExplicit:
		keys := make([]string, 0, len(e.vars))
		for k := range e.vars {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		env := make([]string, 0, len(keys))
		for _, k := range keys {
			env = append(env, k+"="+e.vars[k])
		}
		return env
	default:
		return nil
	}
}

func copyVars(vars map[string]string) map[string]string {
	copied := make(map[string]string, len(vars))
	for k, v := range vars {
		copied[k] = v
	}
	return copied
}
