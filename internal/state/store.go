package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/renameio/v2"
)

// DefaultPath is used when no state path is configured.
const DefaultPath = "./state.json"

var (
	// ErrNoState is returned by Load when the state file does not exist.
	ErrNoState = errors.New("state file does not exist")
	// ErrCorruptState is returned by Load when the file cannot be decoded.
	ErrCorruptState = errors.New("state file is corrupt")
)

// Load reads the state at path. It always returns a usable state: on a
// missing or undecodable file it returns New() together with ErrNoState or
// ErrCorruptState so the caller can log and carry on.
func Load(path string) (*RunState, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), fmt.Errorf("%w: %s", ErrNoState, path)
	}
	if err != nil {
		return New(), fmt.Errorf("%w: read %s: %v", ErrCorruptState, path, err)
	}

	st := New()
	if err := json.Unmarshal(data, st); err != nil {
		return New(), fmt.Errorf("%w: decode %s: %v", ErrCorruptState, path, err)
	}
	if st.Outputs == nil {
		st.Outputs = map[string]Outcome{}
	}
	return st, nil
}

// Marshal renders the state as indented JSON with a trailing newline.
func Marshal(st *RunState) ([]byte, error) {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Save writes the state to path atomically: a crash mid-write leaves the
// previous file intact.
func Save(path string, st *RunState) error {
	data, err := Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending state file: %w", err)
	}
	defer pendingFile.Cleanup()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
