package commands

import (
	"errors"
	"fmt"
	"iter"
	"regexp"
	"strings"

	"github.com/uthef/QrBot/core/telegram"
)

var (
	// ErrDuplicateCommand is returned when a name is defined twice in one table.
	ErrDuplicateCommand = errors.New("commands: duplicate command")
	// ErrInvalidCommand is returned for malformed names or missing handlers.
	ErrInvalidCommand = errors.New("commands: invalid command")
)

const maxNameLen = 32

var nameRe = regexp.MustCompile(`^\w+$`)

// Command represents a bot command with its handler and description key.
type Command struct {
	Name string
	// Description is a localization key resolved when the command list is rendered.
	Description string
	Handler     telegram.HandlerFunc
}

// Table maps command names to commands. It is write-once: populate it during
// construction, then share it read-only between goroutines.
type Table struct {
	order []string
	byKey map[string]Command
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{byKey: make(map[string]Command)}
}

// Normalize strips a leading slash and case-folds name.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
}

// Define adds a command. The name is matched case-insensitively.
func (t *Table) Define(name, description string, handler telegram.HandlerFunc) error {
	key := Normalize(name)
	if key == "" || len(key) > maxNameLen || !nameRe.MatchString(key) {
		return fmt.Errorf("%w: name %q", ErrInvalidCommand, name)
	}
	if handler == nil {
		return fmt.Errorf("%w: %s has no handler", ErrInvalidCommand, key)
	}
	if _, exists := t.byKey[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, key)
	}
	t.byKey[key] = Command{Name: key, Description: description, Handler: handler}
	t.order = append(t.order, key)
	return nil
}

// Lookup finds a command by name, ignoring case and an optional leading slash.
func (t *Table) Lookup(name string) (Command, bool) {
	cmd, ok := t.byKey[Normalize(name)]
	return cmd, ok
}

// List yields (name, description) pairs in definition order. Descriptions are
// passed through localize when it is non-nil.
func (t *Table) List(localize func(key string) string) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, name := range t.order {
			desc := t.byKey[name].Description
			if localize != nil {
				desc = localize(desc)
			}
			if !yield(name, desc) {
				return
			}
		}
	}
}

// Len returns the number of defined commands.
func (t *Table) Len() int { return len(t.order) }
