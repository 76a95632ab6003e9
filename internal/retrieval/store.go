package retrieval

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonathan/interview-screener/internal/schemas"
)

// IndexVersion is the on-disk format written by Builder.
const IndexVersion = 1

// ErrIndexNotFound is returned when no index was built for a candidate and role.
var ErrIndexNotFound = errors.New("retrieval index not found")

// Chunk is one embedded piece of resume text.
type Chunk struct {
	Text   string    `json:"text"`
	Vector []float32 `json:"vector"`
}

// Index is the persisted form of a candidate's resume embeddings.
type Index struct {
	Version     int       `json:"version"`
	CandidateID string    `json:"candidate_id"`
	Role        string    `json:"role"`
	Model       string    `json:"model,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Chunks      []Chunk   `json:"chunks"`
}

// FileStore keeps one index file per candidate under Dir/{role}/{candidate}/index.json.
type FileStore struct {
	Dir string
}

func pathSegment(kind, s string) error {
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
		return fmt.Errorf("invalid %s %q", kind, s)
	}
	return nil
}

// Path returns the index file location.
func (s *FileStore) Path(role, candidateID string) (string, error) {
	if err := pathSegment("role", role); err != nil {
		return "", err
	}
	if err := pathSegment("candidate id", candidateID); err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, role, candidateID, "index.json"), nil
}

// Save writes idx atomically, replacing any previous index.
func (s *FileStore) Save(idx *Index) error {
	path, err := s.Path(idx.Role, idx.CandidateID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create index dir: %w", err)
	}

	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to install index: %w", err)
	}
	return nil
}

// Load reads and validates the index for candidateID.
func (s *FileStore) Load(role, candidateID string) (*Index, error) {
	path, err := s.Path(role, candidateID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w for candidate %s (role %s)", ErrIndexNotFound, candidateID, role)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	if err := schemas.Validate(schemas.RetrievalIndex, data); err != nil {
		return nil, fmt.Errorf("corrupt index %s: %w", path, err)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to decode index: %w", err)
	}
	return &idx, nil
}
