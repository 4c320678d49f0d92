package dataset

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gridscout/internal/logging"
	"gridscout/internal/sheets"
	"gridscout/internal/statbotics"
	"gridscout/internal/tba"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TBASource is the slice of the TBA client the builder needs.
type TBASource interface {
	EventTeams(ctx context.Context, eventKey string) ([]tba.Team, error)
	EventMatches(ctx context.Context, eventKey string) ([]tba.Match, error)
	EventRankings(ctx context.Context, eventKey string) ([]tba.Ranking, error)
}

// EPASource is the slice of the Statbotics client the builder needs.
type EPASource interface {
	GetTeamYear(ctx context.Context, teamNumber, year int) (*statbotics.TeamYear, error)
}

// ScoutingSource supplies scouting rows for the event, from Google Sheets or
// a local workbook. A nil source builds a TBA/Statbotics-only dataset.
type ScoutingSource interface {
	MatchRecords(ctx context.Context) ([]sheets.Record, error)
	SuperRecords(ctx context.Context) ([]sheets.Record, error)
}

// Builder assembles unified datasets from the upstream sources.
type Builder struct {
	repo *Repository
	tba  TBASource
	epa  EPASource
	// epaConcurrency bounds parallel Statbotics fetches.
	epaConcurrency int
}

// NewBuilder creates a dataset builder.
func NewBuilder(repo *Repository, tbaClient TBASource, epaClient EPASource) *Builder {
	return &Builder{
		repo:           repo,
		tba:            tbaClient,
		epa:            epaClient,
		epaConcurrency: 8,
	}
}

// Build fetches all sources for an event, merges them into a unified
// dataset, and persists it. TBA is authoritative for the team list; scouting
// rows for unknown teams are attached as bare entries rather than dropped.
func (b *Builder) Build(ctx context.Context, eventKey string, year int, scout ScoutingSource) (*Dataset, error) {
	log := logging.Get(logging.CategoryDataset)
	start := time.Now()

	var (
		teams     []tba.Team
		matches   []tba.Match
		rankings  []tba.Ranking
		matchRecs []sheets.Record
		superRecs []sheets.Record
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		teams, err = b.tba.EventTeams(gctx, eventKey)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = b.tba.EventMatches(gctx, eventKey)
		if errors.Is(err, tba.ErrNotFound) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		var err error
		rankings, err = b.tba.EventRankings(gctx, eventKey)
		if errors.Is(err, tba.ErrNotFound) {
			return nil
		}
		return err
	})
	if scout != nil {
		g.Go(func() error {
			var err error
			matchRecs, err = scout.MatchRecords(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			superRecs, err = scout.SuperRecords(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch event data for %s: %w", eventKey, err)
	}

	ds := &Dataset{
		EventKey: eventKey,
		Year:     year,
		Teams:    make(map[string]*TeamEntry, len(teams)),
		Metadata: Metadata{
			BuiltAt:       time.Now().UTC(),
			Sources:       []string{"tba", "statbotics"},
			SchemaVersion: SchemaVersion,
		},
	}
	if scout != nil {
		ds.Metadata.Sources = append(ds.Metadata.Sources, "scouting")
	}

	for _, t := range teams {
		ds.Teams[strconv.Itoa(t.TeamNumber)] = &TeamEntry{
			TeamNumber: t.TeamNumber,
			Nickname:   t.Nickname,
		}
	}
	for _, m := range matches {
		ds.Matches = append(ds.Matches, convertMatch(m))
	}
	for _, r := range rankings {
		if entry := ds.Teams[teamKeyNumber(r.TeamKey)]; entry != nil {
			entry.Ranking = &RankingInfo{
				Rank:          r.Rank,
				Wins:          r.Record.Wins,
				Losses:        r.Record.Losses,
				Ties:          r.Record.Ties,
				MatchesPlayed: r.MatchesPlayed,
			}
		}
	}

	b.attachScouting(ds, matchRecs, superRecs)

	if err := b.attachEPA(ctx, ds, year); err != nil {
		return nil, err
	}

	if err := b.repo.Save(ds); err != nil {
		return nil, err
	}

	log.Info("dataset built",
		zap.String("event", eventKey),
		zap.Int("teams", len(ds.Teams)),
		zap.Int("matches", len(ds.Matches)),
		zap.Int("scouting_rows", len(matchRecs)),
		zap.Duration("elapsed", time.Since(start)))
	return ds, nil
}

// Rescout replaces the scouting rows of an existing dataset without
// re-fetching TBA or Statbotics, for local workbook imports after the event
// data is already built.
func (b *Builder) Rescout(ctx context.Context, eventKey string, scout ScoutingSource) (*Dataset, error) {
	ds, err := b.repo.Load(eventKey)
	if err != nil {
		return nil, err
	}

	matchRecs, err := scout.MatchRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read scouting rows: %w", err)
	}
	superRecs, err := scout.SuperRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read superscouting rows: %w", err)
	}

	for _, entry := range ds.Teams {
		entry.ScoutingData = nil
		entry.SuperNotes = nil
	}
	b.attachScouting(ds, matchRecs, superRecs)

	ds.Metadata.BuiltAt = time.Now().UTC()
	hasScouting := false
	for _, src := range ds.Metadata.Sources {
		if src == "scouting" {
			hasScouting = true
		}
	}
	if !hasScouting {
		ds.Metadata.Sources = append(ds.Metadata.Sources, "scouting")
	}

	if err := b.repo.Save(ds); err != nil {
		return nil, err
	}
	logging.Get(logging.CategoryDataset).Info("scouting data reimported",
		zap.String("event", eventKey),
		zap.Int("rows", len(matchRecs)))
	return ds, nil
}

// attachScouting distributes scouting rows onto team entries.
func (b *Builder) attachScouting(ds *Dataset, matchRecs, superRecs []sheets.Record) {
	log := logging.Get(logging.CategoryDataset)

	for _, rec := range matchRecs {
		num, ok := rec.TeamNumber()
		if !ok {
			log.Warn("scouting row without team number skipped")
			continue
		}
		key := strconv.Itoa(num)
		entry := ds.Teams[key]
		if entry == nil {
			// Scouted a team TBA does not list (off-season, data-entry typo).
			entry = &TeamEntry{TeamNumber: num}
			ds.Teams[key] = entry
		}
		entry.ScoutingData = append(entry.ScoutingData, rec)
	}

	for _, rec := range superRecs {
		num, ok := rec.TeamNumber()
		if !ok {
			continue
		}
		entry := ds.Teams[strconv.Itoa(num)]
		if entry == nil {
			continue
		}
		if note := superNote(rec); note != "" {
			entry.SuperNotes = append(entry.SuperNotes, note)
		}
	}
}

// attachEPA fetches Statbotics records with bounded concurrency. Teams
// missing from Statbotics are left without EPA rather than failing the build.
func (b *Builder) attachEPA(ctx context.Context, ds *Dataset, year int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.epaConcurrency)

	var mu sync.Mutex
	for key, entry := range ds.Teams {
		key, entry := key, entry
		g.Go(func() error {
			ty, err := b.epa.GetTeamYear(gctx, entry.TeamNumber, year)
			if err != nil {
				if errors.Is(err, statbotics.ErrNotFound) {
					return nil
				}
				return fmt.Errorf("statbotics fetch for team %s: %w", key, err)
			}
			mu.Lock()
			entry.Statbotics = &StatboticsInfo{
				EPATotal:   ty.EPA.Total,
				EPAAuto:    ty.EPA.Breakdown.Auto,
				EPATeleop:  ty.EPA.Breakdown.Teleop,
				EPAEndgame: ty.EPA.Breakdown.Endgame,
				EPARank:    ty.EPA.Rank,
			}
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

// superNote flattens the qualitative columns of a superscouting row into a
// single note line.
func superNote(rec sheets.Record) string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		if s, ok := rec[k].(string); ok && s != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", k, s))
		}
	}
	return strings.Join(parts, "; ")
}

func convertMatch(m tba.Match) Match {
	return Match{
		Key:         m.Key,
		CompLevel:   m.CompLevel,
		MatchNumber: m.MatchNumber,
		RedTeams:    teamKeyNumbers(m.Alliances.Red.TeamKeys),
		BlueTeams:   teamKeyNumbers(m.Alliances.Blue.TeamKeys),
		RedScore:    m.Alliances.Red.Score,
		BlueScore:   m.Alliances.Blue.Score,
		Winner:      m.WinningAlliance,
	}
}

// teamKeyNumber converts a "frc254" key into its dataset map key.
func teamKeyNumber(teamKey string) string {
	return strings.TrimPrefix(teamKey, "frc")
}

func teamKeyNumbers(keys []string) []int {
	nums := make([]int, 0, len(keys))
	for _, k := range keys {
		if n, err := strconv.Atoi(teamKeyNumber(k)); err == nil {
			nums = append(nums, n)
		}
	}
	return nums
}
