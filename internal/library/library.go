// Package library loads the command library: the static lookup tables that
// map spoken phrases to URLs, app launch commands, and workflows.
package library

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/kballard/go-shellquote"
	"gopkg.in/yaml.v3"
)

// Tables is one immutable snapshot of the three lookup tables. Commands
// are normalized to token lists at load time.
type Tables struct {
	// Aliases maps a phrase to a URL to open.
	Aliases map[string]string
	// Apps maps a phrase to a single launch command.
	Apps map[string][]string
	// Workflows maps a phrase to an ordered list of commands.
	Workflows map[string][][]string
}

// Empty returns true when no table has any entry.
func (t Tables) Empty() bool {
	return len(t.Aliases) == 0 && len(t.Apps) == 0 && len(t.Workflows) == 0
}

// command accepts either a shell string or a pre-tokenized list in YAML.
type command []string

func (c *command) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		tokens, err := shellquote.Split(s)
		if err != nil {
			return fmt.Errorf("tokenize command %q: %w", s, err)
		}
		*c = tokens
		return nil
	case yaml.SequenceNode:
		var tokens []string
		if err := value.Decode(&tokens); err != nil {
			return err
		}
		*c = tokens
		return nil
	default:
		return fmt.Errorf("command must be a string or a list, got yaml kind %d", value.Kind)
	}
}

// libraryFile is the on-disk YAML structure.
type libraryFile struct {
	Aliases   map[string]string    `yaml:"aliases"`
	Apps      map[string]command   `yaml:"apps"`
	Workflows map[string][]command `yaml:"workflows"`
}

// Library holds the current tables and supports atomic reload.
type Library struct {
	path string

	mu     sync.RWMutex
	tables Tables

	watcher watcher
	done    chan struct{}
	once    sync.Once
}

// Load reads the library file at path. A missing file is not an error: the
// library starts with empty tables. A malformed file returns an error
// alongside an empty, usable library.
func Load(path string) (*Library, error) {
	l := &Library{
		path: path,
		done: make(chan struct{}),
	}
	l.tables = emptyTables()

	if path == "" {
		return l, nil
	}

	tables, err := readTables(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return l, err
	}
	l.tables = tables
	return l, nil
}

// Tables returns the current snapshot. Safe for concurrent use.
func (l *Library) Tables() Tables {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tables
}

// Reload re-reads the library file and swaps the tables. The previous
// snapshot stays in place when the read fails.
func (l *Library) Reload() error {
	tables, err := readTables(l.path)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.tables = tables
	l.mu.Unlock()

	log.Printf("[library] reloaded %s (%d aliases, %d apps, %d workflows)",
		l.path, len(tables.Aliases), len(tables.Apps), len(tables.Workflows))
	return nil
}

// Close stops the watcher, if one is running.
func (l *Library) Close() {
	l.once.Do(func() {
		close(l.done)
	})
	if l.watcher != nil {
		l.watcher.Close()
	}
}

func emptyTables() Tables {
	return Tables{
		Aliases:   map[string]string{},
		Apps:      map[string][]string{},
		Workflows: map[string][][]string{},
	}
}

func readTables(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return emptyTables(), err
	}

	var file libraryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return emptyTables(), fmt.Errorf("parse command library: %w", err)
	}

	tables := emptyTables()
	for phrase, url := range file.Aliases {
		tables.Aliases[phrase] = url
	}
	for phrase, cmd := range file.Apps {
		tables.Apps[phrase] = cmd
	}
	for phrase, cmds := range file.Workflows {
		list := make([][]string, len(cmds))
		for i, cmd := range cmds {
			list[i] = cmd
		}
		tables.Workflows[phrase] = list
	}
	return tables, nil
}
