package service

import (
	"context"
	"fmt"
	"sync"

	"magickd/internal/modules/imagehome/domain"
	imagehomeout "magickd/internal/modules/imagehome/port/out"
	"magickd/internal/platform/future"
)

// HomeService is a caller-owned registry of named input files. Each entry is
// a state-tagged future: Pending while coercion runs, Resolved afterwards.
// The name-keyed store is mutex-guarded; goroutines mutate it concurrently.
type HomeService struct {
	coercer  imagehomeout.InputCoercer
	builtIns imagehomeout.BuiltInSource

	mu             sync.Mutex
	names          []string
	entries        map[string]*future.Future[domain.InputFile]
	builtInsLoaded bool
}

func NewHomeService(coercer imagehomeout.InputCoercer, builtIns imagehomeout.BuiltInSource) *HomeService {
	return &HomeService{
		coercer:  coercer,
		builtIns: builtIns,
		entries:  map[string]*future.Future[domain.InputFile]{},
	}
}

// Register begins asynchronous coercion of file and immediately records a
// pending future under name (file.Name when name is empty). Registering an
// existing name overwrites the slot; a future already handed to a caller is
// unaffected but no longer reachable through the registry.
func (s *HomeService) Register(ctx context.Context, file domain.RawFile, name string) (*future.Future[domain.InputFile], error) {
	if name == "" {
		name = file.Name
	}
	if file.Name == "" {
		file.Name = name
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	fut := future.New[domain.InputFile]()
	s.mu.Lock()
	if _, ok := s.entries[name]; !ok {
		s.names = append(s.names, name)
	}
	s.entries[name] = fut
	s.mu.Unlock()

	go func() {
		input, err := s.coercer.Coerce(ctx, file)
		if err != nil {
			fut.Resolve(domain.InputFile{}, fmt.Errorf("coerce file %q: %w", name, err))
			return
		}
		input.Name = name
		fut.Resolve(input, nil)
	}()
	return fut, nil
}

// Get returns the future tracked under name, pending or resolved, or nil
// when the name was never registered. A miss is data, not an error.
func (s *HomeService) Get(name string) *future.Future[domain.InputFile] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[name]
}

// IsRegistered reports whether an entry exists for name. With andReady it
// additionally requires the entry's coercion to have completed, so an
// in-flight registration reports false.
func (s *HomeService) IsRegistered(name string, andReady bool) bool {
	s.mu.Lock()
	fut, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return false
	}
	if andReady {
		return fut.Resolved()
	}
	return true
}

// GetAll awaits every entry tracked at call time and returns them in
// insertion order. Entries registered after the snapshot are not included.
func (s *HomeService) GetAll(ctx context.Context) ([]domain.InputFile, error) {
	s.mu.Lock()
	names := make([]string, len(s.names))
	copy(names, s.names)
	futures := make([]*future.Future[domain.InputFile], 0, len(names))
	for _, name := range names {
		futures = append(futures, s.entries[name])
	}
	s.mu.Unlock()

	files := make([]domain.InputFile, 0, len(futures))
	for i, fut := range futures {
		file, err := fut.Await(ctx)
		if err != nil {
			return nil, fmt.Errorf("await file %q: %w", names[i], err)
		}
		files = append(files, file)
	}
	return files, nil
}

// List reports the tracked names and their readiness in insertion order.
func (s *HomeService) List() []domain.FileStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.FileStatus, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, domain.FileStatus{Name: name, Ready: s.entries[name].Resolved()})
	}
	return out
}

// Remove deletes matching entries and returns the removed futures. Futures
// obtained before removal stay awaitable.
func (s *HomeService) Remove(names []string) []*future.Future[domain.InputFile] {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := []*future.Future[domain.InputFile]{}
	drop := map[string]struct{}{}
	for _, name := range names {
		if fut, ok := s.entries[name]; ok {
			removed = append(removed, fut)
			delete(s.entries, name)
			drop[name] = struct{}{}
		}
	}
	if len(drop) > 0 {
		kept := s.names[:0]
		for _, name := range s.names {
			if _, ok := drop[name]; !ok {
				kept = append(kept, name)
			}
		}
		s.names = kept
	}
	return removed
}

// AddBuiltInImages bulk-registers the fixed built-in image set exactly once
// per registry instance; repeated calls are no-ops.
func (s *HomeService) AddBuiltInImages(ctx context.Context) error {
	s.mu.Lock()
	if s.builtInsLoaded {
		s.mu.Unlock()
		return nil
	}
	s.builtInsLoaded = true
	s.mu.Unlock()

	files, err := s.builtIns.Fetch(ctx)
	if err != nil {
		s.mu.Lock()
		s.builtInsLoaded = false
		s.mu.Unlock()
		return fmt.Errorf("fetch built-in images: %w", err)
	}
	futures := make([]*future.Future[domain.InputFile], 0, len(files))
	for _, file := range files {
		fut, err := s.Register(ctx, file, file.Name)
		if err != nil {
			return err
		}
		futures = append(futures, fut)
	}
	for i, fut := range futures {
		if _, err := fut.Await(ctx); err != nil {
			return fmt.Errorf("register built-in image %q: %w", files[i].Name, err)
		}
	}
	return nil
}
