package file

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bnema/drawloop/internal/ports"
	"github.com/fogleman/gg"
	"github.com/google/uuid"
)

const (
	storeDirMode   = 0o755
	imageExtension = ".png"
	timestampStamp = "20060102_150405.000"
)

var kindPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Store writes rendered images under root with timestamped, uuid-suffixed names.
type Store struct {
	root  string
	clock ports.Clock
	mu    sync.Mutex
}

var _ ports.ArtifactStore = (*Store)(nil)

func NewStore(root string, clock ports.Clock) *Store {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Store{root: filepath.Clean(root), clock: clock}
}

func (s *Store) Root() string {
	return s.root
}

func (s *Store) Save(ctx context.Context, kind string, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if img == nil {
		return "", errors.New("artifact image is nil")
	}

	name, err := s.nameFor(kind)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.root, storeDirMode); err != nil {
		return "", fmt.Errorf("create artifact directory: %w", err)
	}

	path := filepath.Join(s.root, name)
	tempPath := path + ".tmp"
	if err := gg.SavePNG(tempPath, img); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("write artifact %q: %w", name, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("replace artifact %q: %w", name, err)
	}

	return path, nil
}

// Prune removes images last modified before olderThan and returns their
// paths in name order. With dryRun nothing is removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Time, dryRun bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read artifact directory: %w", err)
	}

	var pruned []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), imageExtension) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return pruned, fmt.Errorf("stat artifact %q: %w", entry.Name(), err)
		}
		if !info.ModTime().Before(olderThan) {
			continue
		}

		path := filepath.Join(s.root, entry.Name())
		if !dryRun {
			if err := ctx.Err(); err != nil {
				return pruned, err
			}
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return pruned, fmt.Errorf("delete artifact %q: %w", entry.Name(), err)
			}
		}
		pruned = append(pruned, path)
	}
	slices.Sort(pruned)

	return pruned, nil
}

func (s *Store) nameFor(kind string) (string, error) {
	trimmed := strings.TrimSpace(kind)
	if !kindPattern.MatchString(trimmed) {
		return "", fmt.Errorf("invalid artifact kind %q", kind)
	}

	stamp := strings.Replace(s.clock.Now().Format(timestampStamp), ".", "_", 1)
	return fmt.Sprintf("%s_%s_%s%s", trimmed, stamp, uuid.NewString(), imageExtension), nil
}
