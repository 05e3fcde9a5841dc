package geocache

import (
	"encoding/json"
	"os"
	"path/filepath"

	"survey-analyzer/internal/models"
)

// SaveStatus is the outcome of a cache flush.
type SaveStatus int

const (
	SaveOK SaveStatus = iota
	SaveIgnored
)

func (s SaveStatus) String() string {
	if s == SaveOK {
		return "saved"
	}
	return "ignored"
}

// SaveResult describes a flush. Err is set only when Status is SaveIgnored.
type SaveResult struct {
	Status  SaveStatus
	Entries int
	Err     *SaveError
}

// Saved reports whether the file was written.
func (r SaveResult) Saved() bool {
	return r.Status == SaveOK
}

// Save writes every entry to path. The file is written to a temporary sibling and
// renamed over path, so readers see either the old or the new contents. Write
// failures are returned in the result rather than as an error; the in-memory cache
// stays usable either way.
func (c *Cache) Save(path string) SaveResult {
	c.mu.RLock()
	out := make(map[string]models.Coordinate, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	c.mu.RUnlock()

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return SaveResult{Status: SaveIgnored, Entries: len(out), Err: &SaveError{Path: path, Err: err}}
	}

	if err := writeFileAtomic(path, append(data, '\n')); err != nil {
		return SaveResult{Status: SaveIgnored, Entries: len(out), Err: &SaveError{Path: path, Err: err}}
	}

	return SaveResult{Status: SaveOK, Entries: len(out)}
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
