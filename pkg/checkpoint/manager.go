package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// MetadataVersion is the current checkpoint metadata format version.
const MetadataVersion = 1

// Sentinel errors for checkpoint validation.
var (
	ErrNamespaceMismatch = errors.New("namespace id mismatch")
	ErrCodecMismatch     = errors.New("codec set mismatch")
)

// DefaultDir returns the default checkpoint directory (~/.ipystate/checkpoints).
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	return filepath.Join(home, ".ipystate", "checkpoints")
}

// NamespaceHash computes a short hash of a namespace id for use as a
// directory name, so a single checkpoint.Manager can host checkpoints for
// many namespaces side by side.
func NamespaceHash(namespaceID string) string {
	h := sha256.Sum256([]byte(namespaceID))

	return hex.EncodeToString(h[:8]) // First 8 bytes = 16 hex chars.
}

// Default retention values.
const (
	DefaultMaxAge  = 7 * 24 * time.Hour // 7 days.
	DefaultMaxSize = 1 << 30            // 1GB.
)

// Directory permissions for checkpoints.
const dirPerm = 0o750

// Manager coordinates checkpoints for a single hosted namespace.
type Manager struct {
	BaseDir       string
	NamespaceHash string
	MaxAge        time.Duration
	MaxSize       int64
}

// NewManager creates a new checkpoint manager.
func NewManager(baseDir, namespaceHash string) *Manager {
	return &Manager{
		BaseDir:       baseDir,
		NamespaceHash: namespaceHash,
		MaxAge:        DefaultMaxAge,
		MaxSize:       DefaultMaxSize,
	}
}

// CheckpointDir returns the directory for this namespace's checkpoint.
func (m *Manager) CheckpointDir() string {
	return filepath.Join(m.BaseDir, m.NamespaceHash)
}

// MetadataPath returns the path to the metadata file.
func (m *Manager) MetadataPath() string {
	return filepath.Join(m.CheckpointDir(), "checkpoint.json")
}

// Exists returns true if a valid checkpoint exists.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.MetadataPath())

	return err == nil
}

// Clear removes the checkpoint for the current namespace.
func (m *Manager) Clear() error {
	cpDir := m.CheckpointDir()

	_, statErr := os.Stat(cpDir)
	if os.IsNotExist(statErr) {
		return nil
	}

	err := os.RemoveAll(cpDir)
	if err != nil {
		return fmt.Errorf("remove checkpoint dir: %w", err)
	}

	return nil
}

// Save persists every Checkpointable alongside the namespace's progress
// metadata.
func (m *Manager) Save(
	checkpointables []Checkpointable,
	state NamespaceState,
	namespaceID string,
	codecNames []string,
) error {
	cpDir := m.CheckpointDir()

	err := os.MkdirAll(cpDir, dirPerm)
	if err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	checksums := make(map[string]string)

	for i, cp := range checkpointables {
		stateDir := filepath.Join(cpDir, fmt.Sprintf("state_%d", i))

		mkdirErr := os.MkdirAll(stateDir, dirPerm)
		if mkdirErr != nil {
			return fmt.Errorf("create state dir: %w", mkdirErr)
		}

		saveErr := cp.SaveCheckpoint(stateDir)
		if saveErr != nil {
			return fmt.Errorf("save checkpoint for state %d: %w", i, saveErr)
		}
	}

	meta := Metadata{
		Version:        MetadataVersion,
		NamespaceID:    namespaceID,
		NamespaceHash:  m.NamespaceHash,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
		Codecs:         codecNames,
		NamespaceState: state,
		Checksums:      checksums,
	}

	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	writeErr := os.WriteFile(m.MetadataPath(), metaData, 0o600)
	if writeErr != nil {
		return fmt.Errorf("write metadata: %w", writeErr)
	}

	return nil
}

// LoadMetadata loads the checkpoint metadata.
func (m *Manager) LoadMetadata() (*Metadata, error) {
	data, err := os.ReadFile(m.MetadataPath())
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	var meta Metadata

	unmarshalErr := json.Unmarshal(data, &meta)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", unmarshalErr)
	}

	return &meta, nil
}

// Load restores state for every Checkpointable.
func (m *Manager) Load(checkpointables []Checkpointable) (*NamespaceState, error) {
	meta, err := m.LoadMetadata()
	if err != nil {
		return nil, err
	}

	cpDir := m.CheckpointDir()

	for i, cp := range checkpointables {
		stateDir := filepath.Join(cpDir, fmt.Sprintf("state_%d", i))

		loadErr := cp.LoadCheckpoint(stateDir)
		if loadErr != nil {
			return nil, fmt.Errorf("load checkpoint for state %d: %w", i, loadErr)
		}
	}

	return &meta.NamespaceState, nil
}

// Validate checks if the checkpoint is valid for the given parameters.
func (m *Manager) Validate(namespaceID string, codecNames []string) error {
	meta, err := m.LoadMetadata()
	if err != nil {
		return err
	}

	if meta.NamespaceID != namespaceID {
		return fmt.Errorf("%w: checkpoint has %q, got %q", ErrNamespaceMismatch, meta.NamespaceID, namespaceID)
	}

	if !stringSlicesEqual(meta.Codecs, codecNames) {
		return fmt.Errorf("%w: checkpoint has %v, got %v", ErrCodecMismatch, meta.Codecs, codecNames)
	}

	return nil
}

// stringSlicesEqual compares two string slices for equality.
func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
