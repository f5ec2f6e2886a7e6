package scenario_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/triadsim/internal/analysis"
	"github.com/san-kum/triadsim/internal/dynamo"
	"github.com/san-kum/triadsim/internal/power"
	"github.com/san-kum/triadsim/internal/scenario"
	"github.com/san-kum/triadsim/internal/triad"
)

var _ = Describe("Reference scenarios", Ordered, func() {
	var report *scenario.Report

	BeforeAll(func() {
		runner, err := scenario.NewRunner(scenario.DefaultSetup())
		Expect(err).NotTo(HaveOccurred())

		report, err = runner.Run(context.Background(), scenario.Defaults())
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Failed).To(BeEmpty())
	})

	It("keeps declaration order", func() {
		names := make([]string, 0, len(report.Outcomes))
		for _, o := range report.Outcomes {
			names = append(names, o.Name())
		}
		Expect(names).To(Equal([]string{scenario.None, scenario.Phase1, scenario.Both}))
	})

	It("samples every scenario on the shared grid", func() {
		times := report.Setup.Times
		for _, o := range report.Outcomes {
			Expect(o.Trajectory.Times).To(Equal(times))
			Expect(o.Power).To(HaveLen(len(times)))
		}
	})

	Context("without intervention", func() {
		It("stays in the dwelling trap and deploys nothing", func() {
			o, ok := report.Outcome(scenario.None)
			Expect(ok).To(BeTrue())
			Expect(o.Coherence).To(BeNumerically("<", 0.05))
			Expect(o.Dwelling).To(BeNumerically(">", 0.9))
			Expect(o.FinalPower).To(BeZero())
			Expect(o.Regime).To(Equal(analysis.Stuck))
			Expect(o.Metrics["time_to_coherence"]).To(Equal(-1.0))
		})
	})

	Context("with the phase-1 push", func() {
		It("reaches coherence at megawatt scale", func() {
			o, ok := report.Outcome(scenario.Phase1)
			Expect(ok).To(BeTrue())
			Expect(o.Coherence).To(BeNumerically(">", 0.95))
			Expect(o.Dwelling).To(BeNumerically("<", 0.1))
			Expect(o.FinalPower).To(BeNumerically("~", 9.5e6, 0.5e6))
			Expect(o.Regime).To(Equal(analysis.Coherent))
		})

		It("crosses the coherence threshold after the nudge starts", func() {
			o, _ := report.Outcome(scenario.Phase1)
			Expect(o.Metrics["time_to_coherence"]).To(BeNumerically(">", 10))
			Expect(o.Metrics["coherence_peak"]).To(BeNumerically(">=", o.Coherence))
		})
	})

	Context("with both pushes", func() {
		It("reaches gigawatt scale through synergy", func() {
			o, ok := report.Outcome(scenario.Both)
			Expect(ok).To(BeTrue())
			Expect(o.Coherence).To(BeNumerically(">", 0.95))
			Expect(o.FinalPower).To(BeNumerically(">=", 0.8e9))
			Expect(o.FinalPower).To(BeNumerically("<=", 1.0e9))
			Expect(o.LateSynergy()).To(BeNumerically(">", 0.9))
		})

		It("outperforms phase 1 by the synergy factor", func() {
			boost, ok := report.BoostFactor(scenario.Both, scenario.Phase1)
			Expect(ok).To(BeTrue())
			Expect(boost).To(BeNumerically(">", 80))
			Expect(boost).To(BeNumerically("<=", 100))
		})
	})

	It("orders power none < phase1 < both", func() {
		none, _ := report.Outcome(scenario.None)
		p1, _ := report.Outcome(scenario.Phase1)
		both, _ := report.Outcome(scenario.Both)
		Expect(none.FinalPower).To(BeNumerically("<", p1.FinalPower))
		Expect(p1.FinalPower).To(BeNumerically("<", both.FinalPower))
	})
})

var _ = Describe("Failure isolation", func() {
	It("omits a diverging scenario and keeps the rest", func() {
		setup := scenario.DefaultSetup()
		setup.Times = dynamo.Linspace(0, 5, 51)

		scenarios := []scenario.Scenario{
			{Name: "calm", Mode: power.Baseline},
			{
				Name: "blowup",
				Mode: power.Baseline,
				Nudges: []triad.Nudge{
					{Target: triad.Baseline, Start: 1, End: 2, Magnitude: 1e308},
					{Target: triad.Baseline, Start: 1, End: 2, Magnitude: 1e308},
				},
			},
			{Name: "late", Mode: power.Synergy},
		}

		runner, err := scenario.NewRunner(setup)
		Expect(err).NotTo(HaveOccurred())
		report, err := runner.Run(context.Background(), scenarios)
		Expect(err).NotTo(HaveOccurred())

		Expect(report.Outcomes).To(HaveLen(2))
		Expect(report.Outcomes[0].Name()).To(Equal("calm"))
		Expect(report.Outcomes[1].Name()).To(Equal("late"))

		Expect(report.Failed).To(HaveLen(1))
		Expect(report.Failed[0].Scenario).To(Equal("blowup"))
		Expect(report.Failed[0].Err).To(MatchError(dynamo.ErrNumericalDivergence))

		_, ok := report.Outcome("blowup")
		Expect(ok).To(BeFalse())
	})
})
