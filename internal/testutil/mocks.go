// Package testutil provides test utilities and fakes for sync
// operations. This package is internal and should only be used for
// testing within the module.
package testutil

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/syncwell/treesync/synctypes"
)

// MockStore is a mock implementation of the Store interface.
// It allows customization of each operation through function fields;
// unset fields succeed with empty results.
type MockStore struct {
	ListRecordsFunc func(ctx context.Context, storeID, pathPrefix string) ([]synctypes.FileRecord, error)
	UploadFunc      func(ctx context.Context, storeID string, content io.Reader, req synctypes.UploadRequest) error
	DeleteFunc      func(ctx context.Context, storeID, externalID string) error
}

// ListRecords mocks the store listing operation.
func (m *MockStore) ListRecords(ctx context.Context, storeID, pathPrefix string) ([]synctypes.FileRecord, error) {
	if m.ListRecordsFunc != nil {
		return m.ListRecordsFunc(ctx, storeID, pathPrefix)
	}
	return nil, nil
}

// Upload mocks the store upload operation.
func (m *MockStore) Upload(ctx context.Context, storeID string, content io.Reader, req synctypes.UploadRequest) error {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, storeID, content, req)
	}
	return nil
}

// Delete mocks the store delete operation.
func (m *MockStore) Delete(ctx context.Context, storeID, externalID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, storeID, externalID)
	}
	return nil
}

// MemoryStore is a fully functional in-memory Store. It retains
// uploaded records and content, scopes listings by path prefix the way
// a real backend does, and counts calls so tests can assert both
// outcomes and traffic.
type MemoryStore struct {
	mu       sync.Mutex
	records  map[string]map[string]synctypes.FileRecord
	contents map[string]map[string][]byte

	listCalls   int
	uploadCalls int
	deleteCalls int

	// ListErr, when set, fails every listing.
	ListErr error

	// UploadErr, when set, can fail individual uploads.
	UploadErr func(req synctypes.UploadRequest) error

	// DeleteErr, when set, can fail individual deletes.
	DeleteErr func(externalID string) error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  make(map[string]map[string]synctypes.FileRecord),
		contents: make(map[string]map[string][]byte),
	}
}

// Seed inserts records without counting as store traffic.
func (s *MemoryStore) Seed(storeID string, records ...synctypes.FileRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		s.ensure(storeID)
		s.records[storeID][rec.ExternalID] = rec
	}
}

// ListRecords returns the records under pathPrefix, sorted by ID.
// An empty prefix returns everything in the store collection.
func (s *MemoryStore) ListRecords(_ context.Context, storeID, pathPrefix string) ([]synctypes.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listCalls++
	if s.ListErr != nil {
		return nil, s.ListErr
	}

	var out []synctypes.FileRecord
	for id, rec := range s.records[storeID] {
		if pathPrefix != "" && id != pathPrefix && !strings.HasPrefix(id, strings.TrimSuffix(pathPrefix, "/")+"/") {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	return out, nil
}

// Upload stores the content and its record.
func (s *MemoryStore) Upload(_ context.Context, storeID string, content io.Reader, req synctypes.UploadRequest) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploadCalls++
	if s.UploadErr != nil {
		if err := s.UploadErr(req); err != nil {
			return err
		}
	}

	s.ensure(storeID)
	if _, exists := s.records[storeID][req.ExternalID]; exists && !req.Overwrite {
		return fmt.Errorf("record %q already exists", req.ExternalID)
	}

	s.records[storeID][req.ExternalID] = synctypes.FileRecord{
		ExternalID: req.ExternalID,
		Metadata:   req.Metadata,
	}
	s.contents[storeID][req.ExternalID] = data
	return nil
}

// Delete removes a record. Deleting an absent record succeeds, matching
// the idempotent behavior of object stores.
func (s *MemoryStore) Delete(_ context.Context, storeID, externalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteCalls++
	if s.DeleteErr != nil {
		if err := s.DeleteErr(externalID); err != nil {
			return err
		}
	}

	delete(s.records[storeID], externalID)
	delete(s.contents[storeID], externalID)
	return nil
}

// Records returns a sorted snapshot of the collection.
func (s *MemoryStore) Records(storeID string) []synctypes.FileRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []synctypes.FileRecord
	for _, rec := range s.records[storeID] {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	return out
}

// Content returns the stored bytes for a record, nil when absent.
func (s *MemoryStore) Content(storeID, externalID string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contents[storeID][externalID]
}

// Calls reports how many list, upload, and delete calls were made.
func (s *MemoryStore) Calls() (listCalls, uploadCalls, deleteCalls int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls, s.uploadCalls, s.deleteCalls
}

func (s *MemoryStore) ensure(storeID string) {
	if s.records[storeID] == nil {
		s.records[storeID] = make(map[string]synctypes.FileRecord)
	}
	if s.contents[storeID] == nil {
		s.contents[storeID] = make(map[string][]byte)
	}
}

var (
	_ synctypes.Store = (*MockStore)(nil)
	_ synctypes.Store = (*MemoryStore)(nil)
)
