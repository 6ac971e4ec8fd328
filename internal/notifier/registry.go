package notifier

import (
	"context"
	"fmt"
	"sync"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

// Registry holds the enabled notifiers in registration order. Names are
// unique: one notifier per type.
type Registry struct {
	mu        sync.RWMutex
	notifiers []Notifier
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) find(name string) (Notifier, bool) {
	for _, n := range r.notifiers {
		if n.Name() == name {
			return n, true
		}
	}
	return nil, false
}

// Register adds n, refusing a second notifier with the same name.
func (r *Registry) Register(n Notifier) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.find(n.Name()); dup {
		return fmt.Errorf("notifier %s already registered", n.Name())
	}
	r.notifiers = append(r.notifiers, n)
	return nil
}

func (r *Registry) Get(name string) (Notifier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n, ok := r.find(name); ok {
		return n, nil
	}
	return nil, fmt.Errorf("notifier %s not found", name)
}

// GetAll returns a snapshot of the registered notifiers.
func (r *Registry) GetAll() []Notifier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Notifier(nil), r.notifiers...)
}

// each calls send for every notifier and collects failures by name.
// One notifier failing never stops the others.
func (r *Registry) each(send func(Notifier) error) map[string]error {
	errs := make(map[string]error)
	for _, n := range r.GetAll() {
		if err := send(n); err != nil {
			errs[n.Name()] = core.WrapError(core.ErrNotifierFailed, err)
		}
	}
	return errs
}

// NotifyScan pushes a completed scan to every notifier.
func (r *Registry) NotifyScan(ctx context.Context, res *core.ScanResult) map[string]error {
	return r.each(func(n Notifier) error { return n.NotifyScan(ctx, res) })
}

// NotifyFailure reports a failed scan to every notifier.
func (r *Registry) NotifyFailure(ctx context.Context, f Failure) map[string]error {
	return r.each(func(n Notifier) error { return n.NotifyFailure(ctx, f) })
}
