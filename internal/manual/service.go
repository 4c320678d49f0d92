// Package manual stores game manuals and extracts compact strategy
// summaries from them with the LLM. Extraction results are cached on disk
// keyed by manual hash and extraction version, so editing the manual or
// bumping the prompt invalidates stale summaries automatically.
package manual

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"gridscout/internal/llm"
	"gridscout/internal/logging"
	"gridscout/internal/store"
)

// ExtractionVersion invalidates cached summaries when the extraction prompt
// changes. Bump it alongside any prompt edit.
const ExtractionVersion = "3"

const maxManualChars = 120000

// Extraction is a strategy summary of one season's manual.
type Extraction struct {
	Year    int    `json:"year"`
	Summary string `json:"summary"`
	// Source is "llm" for an extracted summary or "manual_text" when
	// extraction failed and the raw manual is returned instead.
	Source            string    `json:"source"`
	ManualHash        string    `json:"manual_hash"`
	ExtractionVersion string    `json:"extraction_version"`
	ExtractedAt       time.Time `json:"extracted_at"`
}

// Service manages manual storage and extraction.
type Service struct {
	store    *store.Store
	client   llm.Client
	cacheDir string
	logger   *zap.Logger
}

// NewService creates a manual service caching extractions under cacheDir.
func NewService(st *store.Store, client llm.Client, cacheDir string) *Service {
	return &Service{
		store:    st,
		client:   client,
		cacheDir: cacheDir,
		logger:   logging.Get(logging.CategoryLLM),
	}
}

// Get returns the stored manual for a season.
func (s *Service) Get(ctx context.Context, year int) (*store.GameManual, error) {
	return s.store.GetManual(ctx, year)
}

// Save stores or replaces a season's manual.
func (s *Service) Save(ctx context.Context, m store.GameManual) error {
	return s.store.UpsertManual(ctx, m)
}

// Extract returns the strategy summary for a season's manual, serving from
// the disk cache when the manual and prompt are unchanged. If the LLM call
// fails the full manual text is returned instead of an error.
func (s *Service) Extract(ctx context.Context, year int) (*Extraction, error) {
	m, err := s.store.GetManual(ctx, year)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256([]byte(m.Content))
	hash := hex.EncodeToString(sum[:])
	if cached, ok := s.readCache(year, hash); ok {
		s.logger.Debug("manual extraction cache hit", zap.Int("year", year))
		return cached, nil
	}

	content := m.Content
	if len(content) > maxManualChars {
		content = content[:maxManualChars]
	}
	summary, err := s.client.Complete(ctx, extractionSystemPrompt, content)
	if err != nil {
		s.logger.Warn("manual extraction failed, returning full text",
			zap.Int("year", year),
			zap.Error(err))
		return &Extraction{
			Year:              year,
			Summary:           m.Content,
			Source:            "manual_text",
			ManualHash:        hash,
			ExtractionVersion: ExtractionVersion,
			ExtractedAt:       time.Now().UTC(),
		}, nil
	}

	extraction := &Extraction{
		Year:              year,
		Summary:           summary,
		Source:            "llm",
		ManualHash:        hash,
		ExtractionVersion: ExtractionVersion,
		ExtractedAt:       time.Now().UTC(),
	}
	s.writeCache(year, hash, extraction)
	return extraction, nil
}

const extractionSystemPrompt = `You are an FRC strategy analyst. Extract from this game manual only what matters for scouting and alliance selection: scoring values per game piece and location, ranking point conditions, endgame actions and their points, penalties worth avoiding, and any rule that shapes robot roles. Be concise; use short bullet points grouped by match phase.`

func (s *Service) cachePath(year int, hash string) string {
	name := fmt.Sprintf("manual_%d_%s_v%s.json", year, hash[:12], ExtractionVersion)
	return filepath.Join(s.cacheDir, name)
}

func (s *Service) readCache(year int, hash string) (*Extraction, bool) {
	data, err := os.ReadFile(s.cachePath(year, hash))
	if err != nil {
		return nil, false
	}
	var extraction Extraction
	if err := json.Unmarshal(data, &extraction); err != nil {
		return nil, false
	}
	return &extraction, true
}

func (s *Service) writeCache(year int, hash string, extraction *Extraction) {
	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		s.logger.Warn("failed to create extraction cache dir", zap.Error(err))
		return
	}
	data, err := json.MarshalIndent(extraction, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(s.cachePath(year, hash), data, 0o644); err != nil {
		s.logger.Warn("failed to write extraction cache", zap.Error(err))
	}
}
