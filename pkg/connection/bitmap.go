package connection

import "sercos3.io/softmaster/pkg/sercoserr"

// ProducerCycle is one distinct producer-cycle-time bucket: every
// connection whose ProducerCycleNS resolves to this value shares one bit
// in the per-cycle "who produces this TSref" bitmap.
type ProducerCycle struct {
	CycleNS int64
	Bit     uint32
}

// Bitmap is the producer-cycle bitmap / TSref law output (spec §4.3's
// "producer cycle bitmap" design note): a list of distinct producer
// cycles, each one bit, TSrefMax = lcm(cycle multiples)-1, and the
// per-TSref-value bitmask of which cycles produce on that TSref.
type Bitmap struct {
	Cycles    []ProducerCycle
	TSrefMax  uint32
	TSrefList []uint32 // TSrefList[i] = bitmask of cycles that produce when TSref == i
}

// BuildBitmap collects the distinct ProducerCycleNS values referenced by
// cat's connections, assigns each a bit (Tscyc always bit 0, with
// ProducerCycleNS == 0 folded into the Tscyc bucket per design decision
// #3 in DESIGN.md), and derives the TSref table.
func BuildBitmap(cat *Catalog, tscycNS int64) (*Bitmap, error) {
	order := []int64{tscycNS}
	seen := map[int64]bool{tscycNS: true}

	for _, c := range cat.Connections {
		cyc := c.ProducerCycleNS
		if cyc == 0 {
			cyc = tscycNS
		}
		if !seen[cyc] {
			seen[cyc] = true
			order = append(order, cyc)
		}
	}

	if len(order) > MaxProducerCycles {
		return nil, sercoserr.New(sercoserr.Configuration, sercoserr.TooManyProducerCycletimes,
			"distinct producer cycle times exceed the bitmap width")
	}

	cycles := make([]ProducerCycle, len(order))
	multiple := make([]int64, len(order))
	for i, ns := range order {
		cycles[i] = ProducerCycle{CycleNS: ns, Bit: uint32(i)}
		multiple[i] = ns / tscycNS
	}

	lcmAll := multiple[0]
	for _, m := range multiple[1:] {
		lcmAll = lcm(lcmAll, m)
	}
	tsrefMax := uint32(lcmAll - 1)

	tsrefList := make([]uint32, lcmAll)
	for tsref := int64(0); tsref < lcmAll; tsref++ {
		var mask uint32
		for i, m := range multiple {
			if tsref%m == 0 {
				mask |= 1 << cycles[i].Bit
			}
		}
		tsrefList[tsref] = mask
	}

	return &Bitmap{Cycles: cycles, TSrefMax: tsrefMax, TSrefList: tsrefList}, nil
}

// BitFor returns the bit assigned to a connection's producer cycle, and
// whether that cycle was found (it always is, for a bitmap built from the
// same catalog).
func (b *Bitmap) BitFor(cycleNS, tscycNS int64) (uint32, bool) {
	if cycleNS == 0 {
		cycleNS = tscycNS
	}
	for _, c := range b.Cycles {
		if c.CycleNS == cycleNS {
			return c.Bit, true
		}
	}
	return 0, false
}

// ProducesOn reports whether a connection with the given producer cycle
// time produces on the given TSref value.
func (b *Bitmap) ProducesOn(cycleNS, tscycNS int64, tsref uint32) bool {
	bit, ok := b.BitFor(cycleNS, tscycNS)
	if !ok || int(tsref) >= len(b.TSrefList) {
		return false
	}
	return b.TSrefList[tsref]&(1<<bit) != 0
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

func lcm(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	return a / gcd(a, b) * b
}
