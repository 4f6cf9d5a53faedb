// Package analysis runs the orbital classifier over one molecule or a batch
// of orbital dumps: it resolves the minimal-basis size, classifies, logs a
// summary, records diagnostics rows and updates metrics.
package analysis

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/ibocheck/internal/application/diagnostics"
	"github.com/turtacn/ibocheck/internal/config"
	"github.com/turtacn/ibocheck/internal/domain/basis"
	"github.com/turtacn/ibocheck/internal/domain/element"
	"github.com/turtacn/ibocheck/internal/domain/orbital"
	"github.com/turtacn/ibocheck/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ibocheck/internal/infrastructure/orbitalio"
	"github.com/turtacn/ibocheck/pkg/errors"
)

// Metrics is the subset of the Prometheus collector used here; nil disables
// it.
type Metrics interface {
	ObserveClassification(identifier string, r *orbital.Result, d time.Duration)
	ObserveBatchFile(status string)
	RecordError(component, code string)
}

// Sizing fixes how the minimal-basis size of a molecule is obtained.  The
// first non-zero of TotalMINAO, MinaoPerAtom and an element lookup wins.
type Sizing struct {
	Element      string
	MinaoPerAtom int
	Atoms        int
	TotalMINAO   int
}

// Input is one in-memory molecule.
type Input struct {
	ID  string
	Set orbital.Set
	Sizing
}

// BatchRequest is a list of orbital dumps sharing one Sizing.  Per-file
// element and atom hints fill what Sizing leaves empty; otherwise the
// element is detected from the file name.
type BatchRequest struct {
	Paths  []string
	Sizing Sizing
	// Record appends one diagnostics row per successful molecule.
	Record bool
}

// Outcome is one classified molecule.
type Outcome struct {
	Path         string                 `json:"path,omitempty"`
	ID           string                 `json:"id"`
	Element      string                 `json:"element,omitempty"`
	MinaoPerAtom int                    `json:"minao_per_atom"`
	Atoms        int                    `json:"atoms"`
	TotalMINAO   int                    `json:"minao_total"`
	Result       *orbital.Result        `json:"-"`
	Proposal     orbital.CutoffProposal `json:"-"`
	Err          error                  `json:"-"`
}

// Identifier names the molecule in the diagnostics table: the element
// symbol when known, the input id otherwise.
func (o *Outcome) Identifier() string {
	if o.Element != "" {
		if z, err := element.AtomicNumber(o.Element); err == nil {
			sym, _ := element.Symbol(z)
			return sym
		}
	}
	return o.ID
}

// Summary is the result of a batch.
type Summary struct {
	RunID    string
	Outcomes []Outcome
	Failed   int
}

// Service classifies molecules.
type Service interface {
	Classify(ctx context.Context, in Input) (*Outcome, error)
	Run(ctx context.Context, req BatchRequest) (*Summary, error)
}

type serviceImpl struct {
	cfg        config.Config
	aggregator *diagnostics.Aggregator
	metrics    Metrics
	logger     logging.Logger

	mu    sync.Mutex
	sizes map[string]int
}

// NewService constructs the analysis Service.  aggregator and metrics may be
// nil.
func NewService(cfg config.Config, aggregator *diagnostics.Aggregator, metrics Metrics, logger logging.Logger) Service {
	return &serviceImpl{
		cfg:        cfg,
		aggregator: aggregator,
		metrics:    metrics,
		logger:     logger,
		sizes:      make(map[string]int),
	}
}

// Classify resolves the sizing of in and classifies it.  Nothing is
// recorded.
func (s *serviceImpl) Classify(ctx context.Context, in Input) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o := &Outcome{ID: in.ID}
	if err := s.resolve(o, in.Sizing); err != nil {
		s.recordError(err)
		return nil, err
	}
	s.classify(o, in.Set)
	s.logOutcome(s.logger, o)
	return o, nil
}

// Run loads and classifies the files concurrently, bounded by the batch
// concurrency, then logs and records the outcomes in input order from the
// calling goroutine.  A failing file is reported and skipped; only context
// cancellation or a diagnostics write failure aborts the batch.
func (s *serviceImpl) Run(ctx context.Context, req BatchRequest) (*Summary, error) {
	sum := &Summary{RunID: uuid.New().String(), Outcomes: make([]Outcome, len(req.Paths))}
	log := s.logger.With(logging.RunID(sum.RunID))
	log.Info("batch started", logging.Int("files", len(req.Paths)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.cfg.Batch.Concurrency))
	for i, path := range req.Paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sum.Outcomes[i] = s.processFile(path, req.Sizing)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range sum.Outcomes {
		o := &sum.Outcomes[i]
		if o.Err != nil {
			sum.Failed++
			s.observeFile("failed")
			s.recordError(o.Err)
			log.Warn("molecule skipped", logging.Molecule(o.ID), logging.Path(o.Path), logging.Err(o.Err))
			continue
		}
		s.observeFile("ok")
		s.logOutcome(log, o)

		if req.Record && s.aggregator != nil {
			if err := s.aggregator.Record(ctx, o.Identifier(), o.MinaoPerAtom, o.Result); err != nil {
				return sum, err
			}
		}
	}

	log.Info("batch finished",
		logging.Int("files", len(req.Paths)),
		logging.Int("failed", sum.Failed))
	return sum, nil
}

func (s *serviceImpl) processFile(path string, sizing Sizing) Outcome {
	m, err := orbitalio.Load(path)
	if err != nil {
		return Outcome{Path: path, ID: path, Err: err}
	}

	o := Outcome{Path: path, ID: m.ID}
	if sizing.Element == "" {
		sizing.Element = m.Element
	}
	if sizing.Element == "" {
		sizing.Element, _ = element.DetectFromFilename(path)
	}
	if sizing.Atoms == 0 {
		sizing.Atoms = m.Atoms
	}
	if err := s.resolve(&o, sizing); err != nil {
		o.Err = err
		return o
	}
	s.classify(&o, m.Set)
	return o
}

// resolve fills the sizing fields of o.
func (s *serviceImpl) resolve(o *Outcome, sz Sizing) error {
	o.Element = strings.ToLower(sz.Element)
	o.Atoms = sz.Atoms
	if o.Atoms <= 0 {
		o.Atoms = s.cfg.Classifier.Atoms
	}

	switch {
	case sz.TotalMINAO > 0:
		// A total that does not split evenly has no per-atom count; it is
		// recorded as given with MinaoPerAtom left at zero.
		o.TotalMINAO = sz.TotalMINAO
		if n := max(1, o.Atoms); sz.TotalMINAO%n == 0 {
			o.MinaoPerAtom = sz.TotalMINAO / n
		}
		return nil
	case sz.MinaoPerAtom > 0:
		o.MinaoPerAtom = sz.MinaoPerAtom
	case o.Element != "":
		n, err := s.lookup(o.Element)
		if err != nil {
			return err
		}
		o.MinaoPerAtom = n
	default:
		return errors.New(errors.CodeInvalidParam,
			"minimal-basis size unknown: give an element, a per-atom count or a total").
			WithDetail("molecule=" + o.ID)
	}
	o.TotalMINAO = orbital.TotalMINAOFor(o.MinaoPerAtom, o.Atoms)
	return nil
}

// lookup counts an element's functions in the configured minimal basis,
// once per element.
func (s *serviceImpl) lookup(sym string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.sizes[sym]; ok {
		return n, nil
	}
	n, err := basis.LookupFile(s.cfg.Basis.MinaoPath, sym, s.cfg.Basis.MinaoMarker)
	if err != nil {
		return 0, err
	}
	s.sizes[sym] = n
	return n, nil
}

func (s *serviceImpl) classify(o *Outcome, set orbital.Set) {
	start := time.Now()
	o.Result = orbital.Classify(set, orbital.Options{
		CoreCutoff:          s.cfg.Classifier.CoreCutoff,
		TotalMINAO:          o.TotalMINAO,
		OccupationThreshold: s.cfg.Classifier.OccupationThreshold,
	})
	o.Proposal = orbital.ProposeEnergyCutoff(o.Result, s.cfg.Classifier.RydbergEnergyCutoff)
	if s.metrics != nil {
		s.metrics.ObserveClassification(o.Identifier(), o.Result, time.Since(start))
	}
}

func (s *serviceImpl) logOutcome(log logging.Logger, o *Outcome) {
	r := o.Result
	fields := []logging.Field{
		logging.Molecule(o.Identifier()),
		logging.Int("n_mo", r.NMO),
		logging.Int("n_basis", r.NBasis),
		logging.Int("minao_total", r.TotalMINAO),
		logging.Int("n_occupied", r.NOccupied),
		logging.Int("n_virtual", r.NVirtual),
		logging.Int("n_rydberg_calc", r.NRydbergFaithful),
		logging.Int("overflow", r.Overflow),
		logging.String("verdict", r.Verdict()),
	}
	switch {
	case r.PhysicallyUnbound:
		log.Warn("SCF solution is unbound (HOMO > 0); spectrum reporting should be skipped",
			append(fields, logging.Float64("homo", r.HOMO))...)
	case r.WillCrash:
		log.Warn("Rydberg budget exceeds the virtual space; the localizer will fail", fields...)
	case r.ImpossibleInput:
		log.Warn("minimal basis is larger than the basis set", fields...)
	default:
		log.Info("molecule classified", fields...)
	}
}

func (s *serviceImpl) observeFile(status string) {
	if s.metrics != nil {
		s.metrics.ObserveBatchFile(status)
	}
}

func (s *serviceImpl) recordError(err error) {
	if s.metrics != nil {
		s.metrics.RecordError("analysis", errors.GetCode(err).String())
	}
}
