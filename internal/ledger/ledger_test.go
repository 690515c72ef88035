package ledger_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/leaklab/internal/circuit"
	"github.com/san-kum/leaklab/internal/clock"
	"github.com/san-kum/leaklab/internal/ledger"
)

func charged(v float64) circuit.State {
	x, err := circuit.New(circuit.Constants{MaxVoltage: 100, Capacitance: 1, Resistance: 5, ChargeRate: 15})
	Expect(err).NotTo(HaveOccurred())
	x.Voltage = v
	return x
}

func ids(rs []ledger.Reading) []ledger.ID {
	out := make([]ledger.ID, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

var _ = Describe("Ledger", func() {
	var (
		l   *ledger.Ledger
		clk *clock.Manual
	)

	BeforeEach(func() {
		clk = clock.NewManual(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
		l = ledger.New(ledger.Resolution{}, clk)
	})

	Describe("Record", func() {
		It("snapshots the live circuit", func() {
			r := l.Record(charged(61.3), 2.5)

			Expect(r.TimeSeconds).To(Equal(2.5))
			Expect(r.InitialDeflection).To(Equal(100.0))
			Expect(r.FinalDeflection).To(Equal(61.3))
			Expect(r.CalculatedR).To(BeNil())
			Expect(r.RecordedAt).To(Equal(clk.Now()))
			Expect(l.List()).To(HaveLen(1))
		})

		It("assigns unique increasing ids that are never reused", func() {
			a := l.Record(charged(50), 1)
			b := l.Record(charged(40), 2)
			l.Delete(b.ID)
			l.Clear()
			c := l.Record(charged(30), 3)

			Expect(b.ID).To(BeNumerically(">", a.ID))
			Expect(c.ID).To(BeNumerically(">", b.ID))
		})

		It("quantizes to the instrument resolution", func() {
			l = ledger.New(ledger.Resolution{Time: 0.01, Deflection: 0.1}, clk)
			r := l.Record(charged(36.7879), 5.004)

			Expect(r.TimeSeconds).To(Equal(5.0))
			Expect(r.FinalDeflection).To(Equal(36.8))
		})

		It("clamps a negative stopwatch reading to zero", func() {
			r := l.Record(charged(50), -1)
			Expect(r.TimeSeconds).To(BeZero())
		})
	})

	Describe("Delete", func() {
		It("leaves the ledger empty after recording then deleting", func() {
			r := l.Record(charged(50), 1)
			Expect(l.Delete(r.ID)).To(BeTrue())
			Expect(l.List()).To(BeEmpty())
		})

		It("keeps the other readings and their order", func() {
			var recorded []ledger.Reading
			for i := 0; i < 5; i++ {
				recorded = append(recorded, l.Record(charged(float64(90-10*i)), float64(i)))
			}

			l.Delete(recorded[2].ID)

			Expect(l.Len()).To(Equal(4))
			Expect(ids(l.List())).To(Equal([]ledger.ID{
				recorded[0].ID, recorded[1].ID, recorded[3].ID, recorded[4].ID,
			}))
		})

		It("is a no-op for unknown ids", func() {
			l.Record(charged(50), 1)
			Expect(l.Delete(999)).To(BeFalse())
			Expect(l.Len()).To(Equal(1))
		})
	})

	Describe("List", func() {
		It("hands out copies", func() {
			r := l.Record(charged(50), 10)
			_, err := l.Calculate(r.ID, 1)
			Expect(err).NotTo(HaveOccurred())

			list := l.List()
			*list[0].CalculatedR = 0
			list[0].FinalDeflection = 1

			stored, ok := l.Get(r.ID)
			Expect(ok).To(BeTrue())
			Expect(stored.FinalDeflection).To(Equal(50.0))
			Expect(*stored.CalculatedR).To(BeNumerically("~", 14.43, 0.005))
		})
	})

	Describe("Calculate", func() {
		It("stores the resistance on the reading", func() {
			r := l.Record(charged(50), 10)
			out, err := l.Calculate(r.ID, 1)

			Expect(err).NotTo(HaveOccurred())
			Expect(out.DisplayR()).To(Equal("14.43"))

			stored, _ := l.Get(r.ID)
			Expect(stored.CalculatedR).NotTo(BeNil())
		})

		It("leaves the ledger untouched on invalid input", func() {
			r := l.Record(charged(0.05), 5)
			_, err := l.Calculate(r.ID, 1)

			Expect(err).To(MatchError(ledger.ErrInvalidInput))
			stored, _ := l.Get(r.ID)
			Expect(stored).To(Equal(r))
		})

		It("reports unknown ids", func() {
			_, err := l.Calculate(42, 1)
			Expect(err).To(MatchError(ledger.ErrNotFound))
		})
	})
})
