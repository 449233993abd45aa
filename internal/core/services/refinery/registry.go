package refinery

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds a refinery from config overrides
type Factory func(overrides map[string]interface{}) Refinery

type registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	aliases   map[string]string
}

var refineries = &registry{
	factories: make(map[string]Factory),
	aliases:   make(map[string]string),
}

// Register makes a refinery available under its version and any aliases.
// A name that is already taken panics; registration happens at init.
func Register(version string, factory Factory, aliases ...string) {
	refineries.mu.Lock()
	defer refineries.mu.Unlock()

	for _, name := range append([]string{version}, aliases...) {
		if _, taken := refineries.factories[name]; taken {
			panic(fmt.Sprintf("refinery: %q registered twice", name))
		}
		if _, taken := refineries.aliases[name]; taken {
			panic(fmt.Sprintf("refinery: %q registered twice", name))
		}
	}

	refineries.factories[version] = factory
	for _, alias := range aliases {
		refineries.aliases[alias] = version
	}
}

// Create builds the refinery named by version or alias
func Create(name string, overrides map[string]interface{}) (Refinery, error) {
	refineries.mu.RLock()
	version := name
	if v, ok := refineries.aliases[name]; ok {
		version = v
	}
	factory, ok := refineries.factories[version]
	refineries.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown refinery %q", name)
	}
	return factory(overrides), nil
}

// Versions lists registered versions, sorted
func Versions() []string {
	refineries.mu.RLock()
	defer refineries.mu.RUnlock()

	out := make([]string, 0, len(refineries.factories))
	for v := range refineries.factories {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func init() {
	Register(VersionLine, func(o map[string]interface{}) Refinery { return NewLineRefinery(o) }, "line", "standard")
	Register(VersionMultiline, func(o map[string]interface{}) Refinery { return NewMultilineRefinery(o) }, "multiline", "notes")
	Register(VersionEmail, func(o map[string]interface{}) Refinery { return NewEmailRefinery(o) }, "email")
}
