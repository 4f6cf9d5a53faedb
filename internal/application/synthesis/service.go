package synthesis

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/turtacn/ibocheck/internal/config"
	"github.com/turtacn/ibocheck/internal/domain/basis"
	"github.com/turtacn/ibocheck/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ibocheck/pkg/errors"
)

// Observer receives one call per heavy-element action.  The Prometheus
// collector implements it; nil disables observation.
type Observer interface {
	ObserveSynthesis(action string)
}

// Molecule names a closed-shell molecule by its atoms.
type Molecule struct {
	Name  string   `yaml:"name" json:"name"`
	Atoms []string `yaml:"atoms" json:"atoms"`
}

// Request describes one synthesis run.  Empty paths fall back to the
// configured ones.
type Request struct {
	MinaoPath    string
	ExtendedPath string
	// DryRun computes the report without touching the filesystem.
	DryRun bool
	// Molecules are budget-checked against the rebuilt file.
	Molecules []Molecule
}

// Report is the YAML-serialisable summary of a run.
type Report struct {
	RunID        string    `yaml:"run_id" json:"run_id"`
	StartedAt    time.Time `yaml:"started_at" json:"started_at"`
	MinaoPath    string    `yaml:"minao_path" json:"minao_path"`
	ExtendedPath string    `yaml:"extended_path" json:"extended_path"`
	BackupPath   string    `yaml:"backup_path,omitempty" json:"backup_path,omitempty"`
	Threshold    int       `yaml:"threshold" json:"threshold"`
	Written      bool      `yaml:"written" json:"written"`
	Entries      []Entry   `yaml:"entries" json:"entries"`
	Replaced     []string  `yaml:"replaced,omitempty" json:"replaced,omitempty"`
	Added        []string  `yaml:"added,omitempty" json:"added,omitempty"`
	Skipped      []string  `yaml:"skipped,omitempty" json:"skipped,omitempty"`
	Failed       []string  `yaml:"failed,omitempty" json:"failed,omitempty"`
	Budgets      []Budget  `yaml:"budgets,omitempty" json:"budgets,omitempty"`
}

// YAML renders the report.
func (r *Report) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to encode synthesis report")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to encode synthesis report")
	}
	return buf.Bytes(), nil
}

// Service rebuilds minimal-basis files on disk.
type Service interface {
	// Run rebuilds the heavy elements of the minimal-basis file.  Unless
	// DryRun is set the original bytes are first copied to the backup path
	// and the new file then replaces the old one atomically.
	Run(ctx context.Context, req Request) (*Report, error)
	// Budget checks molecules against the minimal-basis file as it is now.
	Budget(ctx context.Context, minaoPath string, molecules []Molecule) ([]Budget, error)
}

type serviceImpl struct {
	cfg      config.BasisConfig
	observer Observer
	logger   logging.Logger
}

// NewService constructs a synthesis Service.
func NewService(cfg config.BasisConfig, observer Observer, logger logging.Logger) Service {
	return &serviceImpl{cfg: cfg, observer: observer, logger: logger}
}

func (s *serviceImpl) Run(ctx context.Context, req Request) (*Report, error) {
	minaoPath := firstNonEmpty(req.MinaoPath, s.cfg.MinaoPath)
	extPath := firstNonEmpty(req.ExtendedPath, s.cfg.ExtendedPath)

	report := &Report{
		RunID:        uuid.New().String(),
		StartedAt:    time.Now().UTC(),
		MinaoPath:    minaoPath,
		ExtendedPath: extPath,
		Threshold:    s.cfg.HeavyThreshold,
	}
	log := s.logger.With(logging.RunID(report.RunID), logging.Path(minaoPath))

	extRaw, err := os.ReadFile(extPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "failed to read extended basis").WithDetail(extPath)
	}
	ext, err := basis.ParseExtended(bytes.NewReader(extRaw), s.cfg.ExtendedMarker)
	if err != nil {
		return nil, err
	}

	original, err := os.ReadFile(minaoPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "failed to read minimal basis").WithDetail(minaoPath)
	}
	minao, err := basis.Parse(bytes.NewReader(original), s.cfg.MinaoMarker)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := Rebuild(minao, ext, Options{Threshold: s.cfg.HeavyThreshold, Marker: s.cfg.MinaoMarker})
	report.Entries = out.Entries
	report.Replaced = out.ByAction(ActionReplace)
	report.Added = out.ByAction(ActionAdd)
	report.Skipped = out.ByAction(ActionSkip)
	report.Failed = out.ByAction(ActionError)

	for _, e := range out.Entries {
		if s.observer != nil {
			s.observer.ObserveSynthesis(string(e.Action))
		}
		if e.Action == ActionError {
			log.Warn("heavy element not synthesized",
				logging.Element(e.Symbol), logging.Int("z", e.Z), logging.Err(e.Err))
		}
	}

	for _, m := range req.Molecules {
		b, err := MoleculeBudget(m.Name, m.Atoms, out.File, s.cfg.HeavyThreshold)
		if err != nil {
			return nil, err
		}
		report.Budgets = append(report.Budgets, b)
	}

	if req.DryRun {
		log.Info("synthesis dry run complete",
			logging.Int("replaced", len(report.Replaced)),
			logging.Int("added", len(report.Added)))
		return report, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report.BackupPath = minaoPath + s.cfg.BackupSuffix
	info, err := os.Stat(minaoPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "failed to stat minimal basis").WithDetail(minaoPath)
	}
	if err := os.WriteFile(report.BackupPath, original, info.Mode().Perm()); err != nil {
		return nil, errors.Wrap(err, errors.CodeSynthesisWriteFailed, "failed to write backup").WithDetail(report.BackupPath)
	}
	if err := writeAtomic(minaoPath, out.File.Bytes(), info.Mode().Perm()); err != nil {
		return nil, err
	}
	report.Written = true

	log.Info("minimal basis rebuilt",
		logging.String("backup", report.BackupPath),
		logging.Int("replaced", len(report.Replaced)),
		logging.Int("added", len(report.Added)),
		logging.Int("skipped", len(report.Skipped)),
		logging.Int("failed", len(report.Failed)))
	return report, nil
}

func (s *serviceImpl) Budget(ctx context.Context, minaoPath string, molecules []Molecule) ([]Budget, error) {
	path := firstNonEmpty(minaoPath, s.cfg.MinaoPath)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "failed to open minimal basis").WithDetail(path)
	}
	defer f.Close()

	minao, err := basis.Parse(f, s.cfg.MinaoMarker)
	if err != nil {
		return nil, err
	}

	out := make([]Budget, 0, len(molecules))
	for _, m := range molecules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := MoleculeBudget(m.Name, m.Atoms, minao, s.cfg.HeavyThreshold)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("molecule budget",
			logging.Molecule(b.Name), logging.Int("n_minao", b.NMINAO),
			logging.Int("n_occ", b.NOccupied), logging.String("status", b.Status))
		out = append(out, b)
	}
	return out, nil
}

// writeAtomic replaces path with data through a temporary file in the same
// directory, so readers see either the old or the new content.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, errors.CodeSynthesisWriteFailed, "failed to create temp file").WithDetail(path)
	}
	name := tmp.Name()
	fail := func(err error, msg string) error {
		_ = tmp.Close()
		_ = os.Remove(name)
		return errors.Wrap(err, errors.CodeSynthesisWriteFailed, msg).WithDetail(path)
	}

	if _, err := tmp.Write(data); err != nil {
		return fail(err, "failed to write rebuilt basis")
	}
	if err := tmp.Sync(); err != nil {
		return fail(err, "failed to sync rebuilt basis")
	}
	if err := tmp.Chmod(perm); err != nil {
		return fail(err, "failed to set permissions")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return errors.Wrap(err, errors.CodeSynthesisWriteFailed, "failed to close rebuilt basis").WithDetail(path)
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return errors.Wrap(err, errors.CodeSynthesisWriteFailed, "failed to replace minimal basis").WithDetail(path)
	}
	return nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
