package scenario

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/triadsim/internal/analysis"
	"github.com/san-kum/triadsim/internal/dynamo"
	"github.com/san-kum/triadsim/internal/integrators"
	"github.com/san-kum/triadsim/internal/metrics"
	"github.com/san-kum/triadsim/internal/power"
	"github.com/san-kum/triadsim/internal/triad"
)

// Runner executes scenarios against a shared Setup. A Runner is safe for
// concurrent use; each run builds its own model, integrator and metrics.
type Runner struct {
	setup   Setup
	logger  *zap.Logger
	workers int
	metrics func() []dynamo.Metric
}

type Option func(*Runner)

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithWorkers bounds how many scenarios integrate at once. n <= 0 means
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(r *Runner) { r.workers = n }
}

// WithMetrics replaces the per-run metric set. fn is called once per
// scenario so metrics are never shared between goroutines.
func WithMetrics(fn func() []dynamo.Metric) Option {
	return func(r *Runner) {
		if fn != nil {
			r.metrics = fn
		}
	}
}

func NewRunner(setup Setup, opts ...Option) (*Runner, error) {
	if err := setup.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		setup:   setup,
		logger:  zap.NewNop(),
		metrics: metrics.Standard,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.workers <= 0 {
		r.workers = runtime.GOMAXPROCS(0)
	}
	return r, nil
}

func (r *Runner) Setup() Setup { return r.setup }

// Run executes every scenario concurrently and returns a report ordered as
// scenarios was. A failing scenario is recorded in Report.Failed without
// affecting the others. Run returns an error only for duplicate names or
// when ctx is done, in which case the partial report is still returned.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) (*Report, error) {
	seen := make(map[string]bool, len(scenarios))
	for _, s := range scenarios {
		if seen[s.Name] {
			return nil, fmt.Errorf("%w: duplicate scenario %q", dynamo.ErrInvalidParameter, s.Name)
		}
		seen[s.Name] = true
	}

	outcomes := make([]*Outcome, len(scenarios))
	errs := make([]error, len(scenarios))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, s := range scenarios {
		i, s := i, s
		g.Go(func() error {
			outcomes[i], errs[i] = r.RunOne(gctx, s)
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{
		Setup:    r.setup,
		Outcomes: make([]*Outcome, 0, len(scenarios)),
	}
	for i, s := range scenarios {
		if errs[i] != nil {
			report.Failed = append(report.Failed, Failure{Scenario: s.Name, Err: errs[i]})
			continue
		}
		report.Outcomes = append(report.Outcomes, outcomes[i])
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// RunOne integrates a single scenario and derives its power curve and
// summaries.
func (r *Runner) RunOne(ctx context.Context, s Scenario) (*Outcome, error) {
	log := r.logger.With(zap.String("scenario", s.Name))

	var sched triad.Schedule
	err := CheckName(s.Name)
	if err == nil {
		sched, err = s.Schedule()
	}
	if err != nil {
		log.Error("scenario rejected", zap.Error(err))
		return nil, err
	}
	integ, err := integrators.New(r.setup.Method)
	if err != nil {
		return nil, err
	}

	sim := dynamo.New(triad.NewModel(r.setup.Params, sched), integ, r.setup.Sim)
	for _, m := range r.metrics() {
		sim.AddMetric(m)
	}
	sim.AddObserver(newCrossingLogger(log, metrics.DefaultCoherenceThreshold))

	log.Debug("scenario started",
		zap.Int("nudges", sched.Len()),
		zap.Stringer("power", s.Mode),
		zap.String("method", r.setup.Method),
		zap.Int("samples", len(r.setup.Times)),
	)

	start := time.Now()
	res, err := sim.Run(ctx, r.setup.Initial, r.setup.Times)
	if err != nil {
		err = fmt.Errorf("scenario %s: %w", s.Name, err)
		log.Error("scenario failed", zap.Error(err))
		return nil, err
	}

	out := &Outcome{
		Scenario:   s,
		Trajectory: res.Trajectory,
		Power:      power.Transform(res.Trajectory, r.setup.Params.Power, s.Mode),
		Final:      res.Final().Clone(),
		Metrics:    res.Metrics,
		Steps:      res.StepsTaken,
		Rejected:   res.Rejected,
		Elapsed:    time.Since(start),
	}
	out.Coherence = triad.Coherence(out.Final)
	out.Dwelling = triad.Dwelling(out.Final)
	if len(out.Power) > 0 {
		out.FinalPower = out.Power[len(out.Power)-1]
	}
	out.Late = analysis.LateAverage(res.Trajectory, r.setup.LateWindow)
	out.Drift = analysis.Drift(out.Final, out.Late)
	out.Regime = analysis.Classify(out.Final)

	log.Info("scenario completed",
		zap.Float64("coherence", out.Coherence),
		zap.Float64("dwelling", out.Dwelling),
		zap.String("power", power.Format(out.FinalPower)),
		zap.Stringer("regime", out.Regime),
		zap.Float64("drift", out.Drift),
		zap.Int("steps", out.Steps),
		zap.Int("rejected", out.Rejected),
		zap.Duration("elapsed", out.Elapsed),
	)
	return out, nil
}
