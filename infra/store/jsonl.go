package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	corestore "github.com/kilianp07/rehearsal/core/store"
)

// JSONLStore appends solutions to a JSON lines file.
type JSONLStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONLStore creates the file when missing.
func NewJSONLStore(path string) (*JSONLStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if cerr := f.Close(); cerr != nil {
		return nil, cerr
	}
	return &JSONLStore{path: path}, nil
}

func (s *JSONLStore) Save(_ context.Context, sol corestore.Solution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return json.NewEncoder(f).Encode(sol)
}

// Get returns the last line saved with id.
func (s *JSONLStore) Get(ctx context.Context, id string) (corestore.Solution, error) {
	var found *corestore.Solution
	err := s.scan(ctx, func(sol corestore.Solution) {
		if sol.ID == id {
			found = &sol
		}
	})
	if err != nil {
		return corestore.Solution{}, err
	}
	if found == nil {
		return corestore.Solution{}, corestore.ErrNotFound
	}
	return *found, nil
}

func (s *JSONLStore) Latest(ctx context.Context) (corestore.Solution, error) {
	var last *corestore.Solution
	if err := s.scan(ctx, func(sol corestore.Solution) { last = &sol }); err != nil {
		return corestore.Solution{}, err
	}
	if last == nil {
		return corestore.Solution{}, corestore.ErrNotFound
	}
	return *last, nil
}

// scan decodes every line in file order. Malformed lines are skipped.
func (s *JSONLStore) scan(ctx context.Context, fn func(corestore.Solution)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var sol corestore.Solution
		if err := json.Unmarshal(scanner.Bytes(), &sol); err != nil {
			continue
		}
		fn(sol)
	}
	return scanner.Err()
}

func (s *JSONLStore) Close() error { return nil }
