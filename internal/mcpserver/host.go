// Package mcpserver exposes a running set of ipystate namespaces as Model
// Context Protocol tools: commit drives one namespace's incremental commit
// cycle, inspect_components reports its current component partition, and
// get_change looks up a previously transferred change's envelope by id.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nsstate/ipystate/internal/change"
	"github.com/nsstate/ipystate/pkg/ipystate"
)

// DefaultMaxConcurrentNamespaces bounds how many Commit() calls run at once
// across all hosted namespaces when a Host is built with zero value (spec
// §9: errgroup "bounds how many of those independent Commit() calls run
// concurrently").
const DefaultMaxConcurrentNamespaces = 16

// ErrUnknownNamespace is returned for a namespace id the Host has never
// hosted.
var ErrUnknownNamespace = errors.New("mcpserver: unknown namespace")

// namespaceEntry pairs one hosted namespace's Engine with its own change
// store, so two namespaces' get_change lookups never collide.
type namespaceEntry struct {
	engine *ipystate.Engine
	store  *ChangeStore
}

// Host owns every namespace an MCP server session has been asked to manage.
// Each namespace's own Commit stays single-threaded (spec §9); the Host's
// errgroup only bounds how many different namespaces' Commit calls may be
// in flight at the same instant.
type Host struct {
	mu         sync.Mutex
	namespaces map[string]*namespaceEntry
	persistor  ipystate.PersistablePredicate
	logger     *slog.Logger

	limiter *errgroup.Group
}

// NewHost returns a Host admitting up to maxConcurrent simultaneous
// Commit calls across all namespaces it hosts. maxConcurrent <= 0 uses
// DefaultMaxConcurrentNamespaces.
func NewHost(maxConcurrent int, persistor ipystate.PersistablePredicate, logger *slog.Logger) *Host {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentNamespaces
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	limiter := &errgroup.Group{}
	limiter.SetLimit(maxConcurrent)

	return &Host{
		namespaces: make(map[string]*namespaceEntry),
		persistor:  persistor,
		logger:     logger,
		limiter:    limiter,
	}
}

// entry returns the namespace's entry, creating a fresh Engine+ChangeStore
// for an id the Host has not seen before.
func (h *Host) entry(namespaceID string) *namespaceEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.namespaces[namespaceID]
	if !ok {
		e = &namespaceEntry{
			engine: ipystate.New(h.persistor, h.logger),
			store:  NewChangeStore(),
		}
		h.namespaces[namespaceID] = e
	}

	return e
}

// lookup returns an existing namespace's entry, or ErrUnknownNamespace.
func (h *Host) lookup(namespaceID string) (*namespaceEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.namespaces[namespaceID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNamespace, namespaceID)
	}

	return e, nil
}

// runLimited admits fn through the Host's errgroup-bounded concurrency gate
// and blocks the caller until fn completes, turning errgroup's fire-and-
// forget Go() into a synchronous call a tool handler can await.
func (h *Host) runLimited(fn func() error) error {
	done := make(chan error, 1)

	h.limiter.Go(func() error {
		done <- fn()

		return nil
	})

	return <-done
}

// Commit runs one commit cycle for namespaceID, creating the namespace if
// this Host hasn't hosted it before, and returns the schema-validated
// envelope for every atomic change produced, recording each in that
// namespace's ChangeStore for later get_change lookups.
func (h *Host) Commit(_ context.Context, namespaceID string, fullWalk bool) ([]Envelope, error) {
	e := h.entry(namespaceID)

	var envelopes []Envelope

	err := h.runLimited(func() error {
		e.engine.SetFullWalk(fullWalk)

		sink := &envelopeSink{}

		for ac := range e.engine.Commit() {
			if transferErr := ac.Transfer(sink); transferErr != nil {
				return fmt.Errorf("transfer change: %w", transferErr)
			}
		}

		envelopes = sink.envelopes

		for _, env := range envelopes {
			e.store.Put(env)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return envelopes, nil
}

// Components reports namespaceID's current component partition (a list of
// disjoint name groups) as of its most recent commit.
func (h *Host) Components(namespaceID string) ([][]string, error) {
	e, err := h.lookup(namespaceID)
	if err != nil {
		return nil, err
	}

	parts := e.engine.Components()

	out := make([][]string, len(parts))
	for i, c := range parts {
		out[i] = append([]string(nil), c...)
	}

	return out, nil
}

// GetChange looks up a previously transferred change's envelope by id
// within namespaceID's change history.
func (h *Host) GetChange(namespaceID, changeID string) (Envelope, error) {
	e, err := h.lookup(namespaceID)
	if err != nil {
		return Envelope{}, err
	}

	env, ok := e.store.Get(changeID)
	if !ok {
		return Envelope{}, fmt.Errorf("mcpserver: unknown change %q in namespace %q", changeID, namespaceID)
	}

	return env, nil
}
