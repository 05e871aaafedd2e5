package toc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/phax/godiver/storage"
	"github.com/phax/godiver/storagekey"
)

// Service is the injected top-ToC service of §4.G. Two implementations
// are in scope: NoopService (for tests, or backends with ToC updates
// disabled) and the repo-backed XMLService.
type Service interface {
	RegisterGroupAndArtifact(ctx context.Context, groupID, artifactID string) error
	UnregisterArtifact(ctx context.Context, groupID, artifactID string) error
	ContainsGroupAndArtifact(ctx context.Context, groupID, artifactID string) (bool, error)
	IterateAllTopLevelGroupNames(ctx context.Context, consumer func(name string)) error
	IterateAllSubGroups(ctx context.Context, groupID string, consumer func(relativeName, absoluteName string), recursive bool) error
	IterateAllArtifacts(ctx context.Context, groupID string, consumer func(artifactID string)) error
	// InitForRepo loads any persisted state from repo. Called once per
	// backend before the service is used.
	InitForRepo(ctx context.Context, repo storage.Backend) error
}

// NoopService implements Service with no persistence: every mutation
// is discarded and every query reports empty. It covers the top-ToC
// only: a Backend built with it still maintains per-artifact ToC
// documents.
type NoopService struct{}

func (NoopService) RegisterGroupAndArtifact(context.Context, string, string) error   { return nil }
func (NoopService) UnregisterArtifact(context.Context, string, string) error         { return nil }
func (NoopService) ContainsGroupAndArtifact(context.Context, string, string) (bool, error) {
	return false, nil
}
func (NoopService) IterateAllTopLevelGroupNames(context.Context, func(string)) error { return nil }
func (NoopService) IterateAllSubGroups(context.Context, string, func(string, string), bool) error {
	return nil
}
func (NoopService) IterateAllArtifacts(context.Context, string, func(string)) error { return nil }
func (NoopService) InitForRepo(context.Context, storage.Backend) error              { return nil }

var _ Service = NoopService{}

// XMLService persists the group/artifact tree as a single document at
// the backend's root (§4.G), serialising mutations with a repo-wide
// mutex per §5.
type XMLService struct {
	mu   sync.Mutex
	repo storage.Backend
	tree *TopToc
}

// NewXMLService constructs an XMLService with an empty tree; call
// InitForRepo before use to load persisted state.
func NewXMLService() *XMLService {
	return &XMLService{tree: NewTopToc()}
}

func (s *XMLService) InitForRepo(ctx context.Context, repo storage.Backend) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repo = repo
	item, err := repo.Read(ctx, storagekey.ForTopToc())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.tree = NewTopToc()
			return nil
		}
		return fmt.Errorf("toc: load top toc: %w", err)
	}
	tree, err := ParseTopToc(item.Content)
	if err != nil {
		return err
	}
	s.tree = tree
	return nil
}

func (s *XMLService) persistLocked(ctx context.Context) error {
	content, err := s.tree.MarshalXML()
	if err != nil {
		return err
	}
	if err := s.repo.Write(ctx, storagekey.ForTopToc(), content); err != nil {
		return fmt.Errorf("toc: persist top toc: %w", err)
	}
	return nil
}

func (s *XMLService) RegisterGroupAndArtifact(ctx context.Context, groupID, artifactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.RegisterGroupAndArtifact(groupID, artifactID)
	return s.persistLocked(ctx)
}

func (s *XMLService) UnregisterArtifact(ctx context.Context, groupID, artifactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.UnregisterArtifact(groupID, artifactID)
	return s.persistLocked(ctx)
}

func (s *XMLService) ContainsGroupAndArtifact(_ context.Context, groupID, artifactID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.ContainsGroupAndArtifact(groupID, artifactID), nil
}

func (s *XMLService) IterateAllTopLevelGroupNames(_ context.Context, consumer func(name string)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.IterateAllTopLevelGroupNames(consumer)
	return nil
}

func (s *XMLService) IterateAllSubGroups(_ context.Context, groupID string, consumer func(relativeName, absoluteName string), recursive bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.IterateAllSubGroups(groupID, consumer, recursive)
	return nil
}

func (s *XMLService) IterateAllArtifacts(_ context.Context, groupID string, consumer func(artifactID string)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.IterateAllArtifacts(groupID, consumer)
	return nil
}

var _ Service = (*XMLService)(nil)
