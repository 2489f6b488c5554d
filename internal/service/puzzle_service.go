package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"reelplay/internal/models"
)

// ErrPuzzleNotFound is returned when no puzzle is published for a
// (game, date).
var ErrPuzzleNotFound = errors.New("puzzle not found")

// PuzzleStore is the puzzle persistence surface.
type PuzzleStore interface {
	Get(game models.Variant, puzzleDate string) (*models.PuzzleDescriptor, error)
	Put(descriptor *models.PuzzleDescriptor) error
}

// PuzzleService serves published puzzle descriptors. Descriptors live
// in the database; SeedFromDir imports a directory of JSON bundles laid
// out as {dir}/{variant}/{date}.json, the same shape clients ship.
type PuzzleService struct {
	store PuzzleStore
	log   *logrus.Logger
}

// NewPuzzleService creates a new puzzle service.
func NewPuzzleService(store PuzzleStore, log *logrus.Logger) *PuzzleService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PuzzleService{store: store, log: log}
}

// Get returns the descriptor for a (game, date).
func (s *PuzzleService) Get(game models.Variant, puzzleDate string) (*models.PuzzleDescriptor, error) {
	if !game.Valid() || puzzleDate == "" {
		return nil, ErrPuzzleNotFound
	}
	descriptor, err := s.store.Get(game, puzzleDate)
	if err != nil {
		return nil, err
	}
	if descriptor == nil {
		return nil, ErrPuzzleNotFound
	}
	return descriptor, nil
}

// Publish stores or replaces a descriptor after validating it.
func (s *PuzzleService) Publish(descriptor *models.PuzzleDescriptor) error {
	if err := validateDescriptor(descriptor); err != nil {
		return err
	}
	return s.store.Put(descriptor)
}

// SeedFromDir imports every bundle file under dir. A missing directory
// is fine; malformed files are skipped with a warning so one bad bundle
// cannot block startup.
func (s *PuzzleService) SeedFromDir(dir string) error {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read puzzle dir: %w", err)
	}

	seeded := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		game := models.Variant(entry.Name())
		if !game.Valid() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read puzzle dir: %w", err)
		}
		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
				continue
			}
			path := filepath.Join(dir, entry.Name(), file.Name())
			descriptor, err := readBundle(path, game)
			if err != nil {
				s.log.WithError(err).WithField("file", path).Warn("skipping puzzle bundle")
				continue
			}
			if err := s.store.Put(descriptor); err != nil {
				return fmt.Errorf("failed to seed puzzle %s: %w", path, err)
			}
			seeded++
		}
	}
	if seeded > 0 {
		s.log.WithField("count", seeded).Info("seeded puzzles from bundle dir")
	}
	return nil
}

func readBundle(path string, game models.Variant) (*models.PuzzleDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	descriptor := &models.PuzzleDescriptor{}
	if err := json.Unmarshal(data, descriptor); err != nil {
		return nil, err
	}
	if descriptor.Variant == "" {
		descriptor.Variant = game
	}
	if descriptor.Date == "" {
		descriptor.Date = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	if err := validateDescriptor(descriptor); err != nil {
		return nil, err
	}
	return descriptor, nil
}

func validateDescriptor(descriptor *models.PuzzleDescriptor) error {
	if descriptor == nil || !descriptor.Variant.Valid() || descriptor.Date == "" {
		return fmt.Errorf("puzzle descriptor missing variant or date")
	}
	if descriptor.Variant == models.VariantGrouping {
		if len(descriptor.Groups) == 0 {
			return fmt.Errorf("grouping puzzle has no groups")
		}
		return nil
	}
	if len(descriptor.Slots) == 0 {
		return fmt.Errorf("puzzle has no slots")
	}
	return nil
}
