package ledger_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/leaklab/internal/ledger"
)

func reading(t, theta0, thetaT float64) ledger.Reading {
	return ledger.Reading{ID: 1, TimeSeconds: t, InitialDeflection: theta0, FinalDeflection: thetaT}
}

var _ = Describe("Calculate", func() {
	It("derives R = t / (C ln(θ0/θt))", func() {
		out, err := ledger.Calculate(reading(10, 100, 50), 1)

		Expect(err).NotTo(HaveOccurred())
		r, ok := out.Resistance()
		Expect(ok).To(BeTrue())
		Expect(r).To(BeNumerically("~", 10/math.Ln2, 1e-12))

		rounded, _ := out.RoundedR()
		Expect(rounded).To(Equal(14.43))
	})

	It("scales with capacitance", func() {
		out, err := ledger.Calculate(reading(10, 100, 50), 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(*out.CalculatedR).To(BeNumerically("~", 5/math.Ln2, 1e-12))
	})

	It("does not mutate its input", func() {
		in := reading(10, 100, 50)
		_, _ = ledger.Calculate(in, 1)
		Expect(in.CalculatedR).To(BeNil())
	})

	DescribeTable("rejects out-of-domain input",
		func(r ledger.Reading, c float64, field string) {
			out, err := ledger.Calculate(r, c)

			Expect(err).To(MatchError(ledger.ErrInvalidInput))
			var ie *ledger.InvalidInputError
			Expect(errors.As(err, &ie)).To(BeTrue())
			Expect(ie.Field).To(Equal(field))
			Expect(out).To(Equal(r))
		},
		Entry("final deflection below threshold", reading(5, 100, 0.05), 1.0, "final_deflection"),
		Entry("final deflection at threshold", reading(5, 100, 0.1), 1.0, "final_deflection"),
		Entry("zero initial deflection", reading(5, 0, 50), 1.0, "initial_deflection"),
		Entry("negative time", reading(-1, 100, 50), 1.0, "time_seconds"),
		Entry("zero capacitance", reading(5, 100, 50), 0.0, "capacitance"),
		Entry("NaN final deflection", reading(5, 100, math.NaN()), 1.0, "final_deflection"),
	)

	It("defers when no measurable leakage happened yet", func() {
		in := reading(1, 100, 99.95)
		out, err := ledger.Calculate(in, 1)

		Expect(err).NotTo(HaveOccurred())
		Expect(out.CalculatedR).To(BeNil())
		Expect(ledger.IsDeferred(in)).To(BeTrue())
	})

	It("overwrites a previous result and is idempotent", func() {
		stale := 1.0
		in := reading(10, 100, 50)
		in.CalculatedR = &stale

		first, err := ledger.Calculate(in, 1)
		Expect(err).NotTo(HaveOccurred())
		second, err := ledger.Calculate(first, 1)
		Expect(err).NotTo(HaveOccurred())

		Expect(*first.CalculatedR).To(BeNumerically("~", 14.4269, 1e-4))
		Expect(*second.CalculatedR).To(Equal(*first.CalculatedR))
		Expect(stale).To(Equal(1.0))
	})

	It("renders a dash before calculation", func() {
		Expect(reading(1, 100, 50).DisplayR()).To(Equal("-"))
	})
})

var _ = Describe("ParseID", func() {
	It("round-trips ids", func() {
		id, err := ledger.ParseID(ledger.ID(17).String())
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(ledger.ID(17)))
	})

	It("rejects malformed ids without claiming they are missing", func() {
		_, err := ledger.ParseID("abc")
		Expect(err).To(MatchError(ledger.ErrBadID))
		Expect(err).NotTo(MatchError(ledger.ErrNotFound))
	})
})
