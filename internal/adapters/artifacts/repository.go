package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
	"github.com/trebuchet-org/treb-deploy/internal/domain/models"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

const maxSuggestions = 3

// Repository indexes compiled artifacts under the artifacts directory
type Repository struct {
	projectRoot  string
	artifactsDir string
	artifacts    map[string]*models.Artifact   // key: "source:Name", or "Name" when the source is unknown
	byName       map[string][]*models.Artifact // key: contract name
	log          *slog.Logger
	mu           sync.RWMutex
	indexed      bool
}

// NewRepository creates a new artifact repository
func NewRepository(cfg *config.RuntimeConfig, log *slog.Logger) *Repository {
	return &Repository{
		projectRoot:  cfg.ProjectRoot,
		artifactsDir: cfg.ArtifactsDir,
		log:          log,
		artifacts:    make(map[string]*models.Artifact),
		byName:       make(map[string][]*models.Artifact),
	}
}

// Index walks the artifacts directory once
func (r *Repository) Index() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexed {
		return nil
	}

	r.artifacts = make(map[string]*models.Artifact)
	r.byName = make(map[string][]*models.Artifact)

	info, err := os.Stat(r.artifactsDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("artifacts directory %s not found (compile the contracts first)", r.displayPath(r.artifactsDir))
	}

	err = filepath.WalkDir(r.artifactsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".json" || strings.HasSuffix(path, ".dbg.json") {
			return nil
		}
		return r.processArtifact(path)
	})
	if err != nil {
		return fmt.Errorf("failed to index artifacts: %w", err)
	}

	r.indexed = true
	r.log.Debug("indexed artifacts", "dir", r.artifactsDir, "count", len(r.artifacts))
	return nil
}

// processArtifact adds a single artifact file to the index
func (r *Repository) processArtifact(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var artifact models.Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		r.log.Debug("skipping unreadable artifact", "path", path, "error", err)
		return nil
	}

	// Interfaces and abstract contracts cannot be deployed
	if artifact.Bytecode.IsEmpty() {
		return nil
	}

	if source, name, ok := artifact.CompilationTarget(); ok {
		if artifact.ContractName == "" {
			artifact.ContractName = name
		}
		if artifact.SourceName == "" {
			artifact.SourceName = source
		}
	}
	if artifact.ContractName == "" {
		artifact.ContractName = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	artifact.Path = path

	key := artifact.Key()
	if existing, ok := r.artifacts[key]; ok {
		// Same contract built by more than one compiler version
		r.log.Debug("duplicate artifact", "key", key, "kept", existing.Path, "skipped", path)
		return nil
	}

	r.artifacts[key] = &artifact
	r.byName[artifact.ContractName] = append(r.byName[artifact.ContractName], &artifact)
	return nil
}

// GetArtifact returns the artifact for a contract name or a "path/File.sol:Name" key
func (r *Repository) GetArtifact(ctx context.Context, contractName string) (*models.Artifact, error) {
	if err := r.Index(); err != nil {
		return nil, notFound(err.Error(), nil)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if strings.Contains(contractName, ":") {
		if artifact, ok := r.artifacts[contractName]; ok {
			return artifact, nil
		}
		return nil, notFound(r.missingMessage(contractName), nil)
	}

	matches := r.byName[contractName]
	switch len(matches) {
	case 0:
		return nil, notFound(r.missingMessage(contractName), nil)
	case 1:
		return matches[0], nil
	default:
		keys := lo.Map(matches, func(a *models.Artifact, _ int) string { return a.Key() })
		slices.Sort(keys)
		return nil, notFound("", domain.AmbiguousArtifactErr{Name: contractName, Matches: keys})
	}
}

func (r *Repository) missingMessage(contractName string) string {
	msg := fmt.Sprintf("no artifact for contract %s in %s", contractName, r.displayPath(r.artifactsDir))

	names := lo.Keys(r.byName)
	slices.Sort(names)
	target := contractName
	if i := strings.LastIndex(target, ":"); i >= 0 {
		target = target[i+1:]
	}

	matches := fuzzy.Find(target, names)
	if len(matches) == 0 {
		return msg
	}
	suggestions := lo.Map(lo.Slice(matches, 0, maxSuggestions), func(m fuzzy.Match, _ int) string {
		return m.Str
	})
	return fmt.Sprintf("%s (did you mean %s?)", msg, strings.Join(suggestions, ", "))
}

func (r *Repository) displayPath(path string) string {
	if r.projectRoot == "" {
		return path
	}
	rel, err := filepath.Rel(r.projectRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func notFound(msg string, err error) error {
	var ambiguous domain.AmbiguousArtifactErr
	if errors.As(err, &ambiguous) && msg == "" {
		msg = fmt.Sprintf("contract name %s is ambiguous", ambiguous.Name)
	}
	return domain.NewDeploymentError(domain.KindArtifactNotFound, domain.StageSignerResolved, msg, err)
}

// Ensure the adapter implements the interface
var _ usecase.ArtifactRepository = (*Repository)(nil)
