// Package storage persists experiment reports. Each run gets a directory
// holding metadata.json and signals.csv; a SQLite index (index.db) in the
// base directory lists the runs.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/san-kum/condensim/internal/experiment"
	"github.com/san-kum/condensim/internal/physics"
	"github.com/san-kum/condensim/internal/signal"
)

var (
	ErrNotFound  = errors.New("storage: run not found")
	ErrAmbiguous = errors.New("storage: run id prefix is ambiguous")
)

const (
	metadataFile = "metadata.json"
	signalsFile  = "signals.csv"
	indexFile    = "index.db"
	timeColumn   = "chi"
)

type RunMetadata struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Timestamp  time.Time         `json:"timestamp"`
	Variant    string            `json:"variant"`
	Sign       string            `json:"sign,omitempty"`
	Integrator string            `json:"integrator"`
	SpanStart  float64           `json:"span_start"`
	SpanEnd    float64           `json:"span_end"`
	Points     int               `json:"points"`
	Params     map[string]Number `json:"params"`
	Initial    []float64         `json:"initial"`
	Reached    bool              `json:"reached"`
	StoppedAt  float64           `json:"stopped_at"`
	Reason     string            `json:"reason,omitempty"`
	Scalars    map[string]Number `json:"scalars"`
	Degraded   map[string]string `json:"degraded,omitempty"`
	Signals    []string          `json:"signals"`
}

// RunSummary is one row of the index.
type RunSummary struct {
	ID         string  `db:"id"`
	Name       string  `db:"name"`
	CreatedAt  int64   `db:"created_at"`
	Variant    string  `db:"variant"`
	Integrator string  `db:"integrator"`
	Samples    int     `db:"samples"`
	Reached    bool    `db:"reached"`
	StoppedAt  float64 `db:"stopped_at"`
}

func (r RunSummary) Time() time.Time { return time.Unix(0, r.CreatedAt) }

type Store struct {
	baseDir string
	db      *sqlx.DB
}

// Open creates baseDir if needed and opens its run index.
func Open(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	db, err := sqlx.Open("sqlite", filepath.Join(baseDir, indexFile)+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	s := &Store{baseDir: baseDir, db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		variant TEXT NOT NULL,
		integrator TEXT NOT NULL,
		samples INTEGER NOT NULL,
		reached INTEGER NOT NULL,
		stopped_at REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save writes a report under a fresh run id and indexes it.
func (s *Store) Save(cfg experiment.Config, rep *experiment.Report) (string, error) {
	id := uuid.NewString()
	runDir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	names, n := csvColumns(rep)
	meta := RunMetadata{
		ID:         id,
		Name:       rep.Name,
		Timestamp:  time.Now().UTC(),
		Variant:    string(cfg.Params.Variant),
		Integrator: cfg.Method,
		SpanStart:  cfg.Span.Start,
		SpanEnd:    cfg.Span.End,
		Points:     cfg.Points,
		Params:     toNumbers(cfg.Params.Values()),
		Initial:    append([]float64(nil), cfg.Initial...),
		Reached:    rep.Termination.Reached,
		StoppedAt:  rep.Termination.Time,
		Scalars:    toNumbers(rep.Scalars),
		Signals:    names,
	}
	if cfg.Params.Variant == physics.VariantDamped {
		meta.Sign = cfg.Params.Sign.String()
	}
	if meta.Integrator == "" {
		meta.Integrator = "rk45"
	}
	if rep.Termination.Reason != nil {
		meta.Reason = rep.Termination.Reason.Error()
	}
	if len(rep.Degraded) > 0 {
		meta.Degraded = make(map[string]string, len(rep.Degraded))
		for k, err := range rep.Degraded {
			meta.Degraded[k] = err.Error()
		}
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeSignals(filepath.Join(runDir, signalsFile), rep, names, n); err != nil {
		return "", err
	}

	_, err := s.db.NamedExec(`INSERT INTO runs
		(id, name, created_at, variant, integrator, samples, reached, stopped_at)
		VALUES (:id, :name, :created_at, :variant, :integrator, :samples, :reached, :stopped_at)`,
		RunSummary{
			ID:         id,
			Name:       meta.Name,
			CreatedAt:  meta.Timestamp.UnixNano(),
			Variant:    meta.Variant,
			Integrator: meta.Integrator,
			Samples:    n,
			Reached:    meta.Reached,
			StoppedAt:  meta.StoppedAt,
		})
	if err != nil {
		return "", fmt.Errorf("index run: %w", err)
	}
	return id, nil
}

// csvColumns picks the signals that share the time grid, time first and
// the rest sorted by name.
func csvColumns(rep *experiment.Report) ([]string, int) {
	t, ok := rep.Signals[timeColumn]
	if !ok {
		return nil, 0
	}
	n := t.Len()
	names := []string{timeColumn}
	for _, name := range rep.SignalNames() {
		if name != timeColumn && rep.Signals[name].Len() == n {
			names = append(names, name)
		}
	}
	return names, n
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSignals(path string, rep *experiment.Report, names []string, n int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(names); err != nil {
		return err
	}
	row := make([]string, len(names))
	for i := 0; i < n; i++ {
		for j, name := range names {
			row[j] = strconv.FormatFloat(rep.Signals[name].At(i), 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// List returns the indexed runs, newest first.
func (s *Store) List() ([]RunSummary, error) {
	var runs []RunSummary
	err := s.db.Select(&runs, `SELECT id, name, created_at, variant, integrator, samples, reached, stopped_at
		FROM runs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// Resolve expands a unique id prefix to the full run id.
func (s *Store) Resolve(prefix string) (string, error) {
	var ids []string
	if err := s.db.Select(&ids, `SELECT id FROM runs WHERE id LIKE ? || '%' LIMIT 2`, prefix); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, prefix)
	case 1:
		return ids[0], nil
	}
	return "", fmt.Errorf("%w: %s", ErrAmbiguous, prefix)
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSignals reads the stored signals of a run, in column order. Loaded
// signals are raw: provenance is not persisted.
func (s *Store) LoadSignals(runID string) ([]signal.Signal, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, signalsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	header := records[0]
	cols := make([][]float64, len(header))
	for i := range cols {
		cols[i] = make([]float64, 0, len(records)-1)
	}
	for r, record := range records[1:] {
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: row %d column %s: %w", r+1, header[j], err)
			}
			cols[j] = append(cols[j], v)
		}
	}
	out := make([]signal.Signal, len(header))
	for j, name := range header {
		out[j] = signal.New(name, cols[j])
	}
	return out, nil
}

// SortedScalarNames lists the scalar names of a run.
func (m *RunMetadata) SortedScalarNames() []string {
	names := make([]string, 0, len(m.Scalars))
	for k := range m.Scalars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
