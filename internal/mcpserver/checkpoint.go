package mcpserver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nsstate/ipystate/internal/walker"
	"github.com/nsstate/ipystate/pkg/checkpoint"
)

const (
	digestsFileName   = "digests.json"
	envelopesFileName = "change_log.json"
	checkpointFilePerm = 0o600
)

// checkpointableEntry adapts one hosted namespace's change detector digest
// table and change log onto checkpoint.Checkpointable, so a Host can resume
// a namespace across a process restart without reclassifying every name as
// NEW and without losing previously issued change ids.
type checkpointableEntry struct {
	entry    *namespaceEntry
	lastSize int64
}

func (c *checkpointableEntry) SaveCheckpoint(dir string) error {
	digestData, err := json.Marshal(c.entry.engine.DetectorSnapshot())
	if err != nil {
		return fmt.Errorf("marshal digest table: %w", err)
	}

	if writeErr := os.WriteFile(filepath.Join(dir, digestsFileName), digestData, checkpointFilePerm); writeErr != nil {
		return fmt.Errorf("write digest table: %w", writeErr)
	}

	envelopeData, err := json.Marshal(c.entry.store.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal change log: %w", err)
	}

	if writeErr := os.WriteFile(filepath.Join(dir, envelopesFileName), envelopeData, checkpointFilePerm); writeErr != nil {
		return fmt.Errorf("write change log: %w", writeErr)
	}

	c.lastSize = int64(len(digestData) + len(envelopeData))

	return nil
}

func (c *checkpointableEntry) LoadCheckpoint(dir string) error {
	digestData, err := os.ReadFile(filepath.Join(dir, digestsFileName))
	if err != nil {
		return fmt.Errorf("read digest table: %w", err)
	}

	var digests map[string]uint64

	if unmarshalErr := json.Unmarshal(digestData, &digests); unmarshalErr != nil {
		return fmt.Errorf("unmarshal digest table: %w", unmarshalErr)
	}

	c.entry.engine.RestoreDetector(digests)

	envelopeData, err := os.ReadFile(filepath.Join(dir, envelopesFileName))
	if err != nil {
		return fmt.Errorf("read change log: %w", err)
	}

	var envelopes []Envelope

	if unmarshalErr := json.Unmarshal(envelopeData, &envelopes); unmarshalErr != nil {
		return fmt.Errorf("unmarshal change log: %w", unmarshalErr)
	}

	c.entry.store.Restore(envelopes)

	c.lastSize = int64(len(digestData) + len(envelopeData))

	return nil
}

func (c *checkpointableEntry) CheckpointSize() int64 { return c.lastSize }

// SaveCheckpoint persists namespaceID's digest table and change log through
// mgr, recording its current engine progress as the checkpoint's
// NamespaceState.
func (h *Host) SaveCheckpoint(mgr *checkpoint.Manager, namespaceID string, codecNames []string) error {
	e, err := h.lookup(namespaceID)
	if err != nil {
		return err
	}

	components := e.engine.Components()

	state := checkpoint.NamespaceState{
		TotalVariables:  totalVars(components),
		TotalComponents: len(components),
	}

	envelopes := e.store.Snapshot()
	if len(envelopes) > 0 {
		last := envelopes[len(envelopes)-1]
		state.LastChangeID = last.ID
		state.LastCommitSeq = len(envelopes)
	}

	cp := &checkpointableEntry{entry: e}

	return mgr.Save([]checkpoint.Checkpointable{cp}, state, namespaceID, codecNames)
}

// LoadCheckpoint restores namespaceID's digest table and change log from
// mgr, creating the namespace's Engine first if this Host hasn't hosted it
// before.
func (h *Host) LoadCheckpoint(mgr *checkpoint.Manager, namespaceID string) error {
	e := h.entry(namespaceID)
	cp := &checkpointableEntry{entry: e}

	_, err := mgr.Load([]checkpoint.Checkpointable{cp})

	return err
}

func totalVars(components []walker.Component) int {
	total := 0
	for _, c := range components {
		total += len(c)
	}

	return total
}
