package cmd

import (
	"slices"
	"strings"
	"sync"
)

// Registry stores commands by name and alias. It does not dispatch; each
// adapter looks commands up and runs them with its own context.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
	names    map[string]Command
}

func NewRegistry() *Registry {
	return &Registry{commands: map[string]Command{}, names: map[string]Command{}}
}

// Register adds c under its name and every alias of its root command.
func (r *Registry) Register(c Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[c.Name()] = c
	r.names[strings.ToLower(c.Name())] = c
	if a, ok := Root(c).(Aliased); ok {
		for _, alias := range a.Aliases() {
			r.names[strings.ToLower(alias)] = c
		}
	}
}

// Get resolves a name or alias, case-insensitively. It returns nil when
// nothing matches.
func (r *Registry) Get(name string) Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names[strings.ToLower(name)]
}

// GetAll returns every command once, sorted by name.
func (r *Registry) GetAll() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		list = append(list, c)
	}
	slices.SortFunc(list, func(a, b Command) int { return strings.Compare(a.Name(), b.Name()) })
	return list
}
