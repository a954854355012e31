package dialog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/parleykit/parley/pkg/domain"
)

// Dialog is anything the registry can hold: a *Waterfall or a *Prompt.
type Dialog interface {
	Name() string
}

// Registry maps dialog names to definitions. It is populated at startup and
// read-only afterwards; registration collisions fail instead of overwriting.
type Registry struct {
	mu      sync.RWMutex
	dialogs map[string]Dialog
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		dialogs: make(map[string]Dialog),
	}
}

// Register adds a dialog under its name.
// Fails with domain.ErrDuplicateDialog if the name is already taken.
func (r *Registry) Register(d Dialog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.dialogs[d.Name()]; exists {
		return fmt.Errorf("%w: %q", domain.ErrDuplicateDialog, d.Name())
	}
	r.dialogs[d.Name()] = d
	return nil
}

// MustRegister registers each dialog and panics on collision. Intended for
// startup wiring where a duplicate name is a programming error.
func (r *Registry) MustRegister(dialogs ...Dialog) {
	for _, d := range dialogs {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the dialog registered under name.
// Fails with domain.ErrUnknownDialog when absent.
func (r *Registry) Lookup(name string) (Dialog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.dialogs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownDialog, name)
	}
	return d, nil
}

// Names returns the registered dialog names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.dialogs))
	for name := range r.dialogs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// lookupPrompt resolves name to a *Prompt, failing if the name is unknown
// or registered as a non-prompt dialog.
func (r *Registry) lookupPrompt(name string) (*Prompt, error) {
	d, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	p, ok := d.(*Prompt)
	if !ok {
		return nil, fmt.Errorf("dialog %q is not a prompt", name)
	}
	return p, nil
}
