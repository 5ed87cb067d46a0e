package connection

import "sercos3.io/softmaster/pkg/sercoserr"

// PlausibilityConfig carries the knobs that change what counts as a
// plausibility violation: the communication cycle time (producer-cycle
// multiples are checked against it) and whether the master is allowed to
// produce AT connections at all (spec §9 Open Question #2: master-produces-
// in-AT is compile-time optional upstream; here it's a runtime flag).
type PlausibilityConfig struct {
	TscycNS            int64
	MasterProducesInAT bool
}

// Check runs every plausibility rule from spec §4.3 before packing.
// Errors are returned as soon as the first violation is found, localized
// to the offending (slave, connection) pair where one exists.
func Check(cat *Catalog, cfg PlausibilityConfig) error {
	if len(cat.Master.Connections) > cat.Limits.MaxConnectionsPerSlave {
		return sercoserr.New(sercoserr.Configuration, sercoserr.TooManyMasterConnections,
			"master connection list exceeds MaxConnectionsPerSlave")
	}

	if err := checkIndexRanges(cat); err != nil {
		return err
	}
	if err := checkUniqueProducerNumbers(cat); err != nil {
		return err
	}
	if err := checkProducedAndConsumed(cat); err != nil {
		return err
	}
	if err := checkDirectionRules(cat, cfg); err != nil {
		return err
	}
	if err := checkPayloadAndCycle(cat, cfg); err != nil {
		return err
	}
	return nil
}

func checkIndexRanges(cat *Catalog) error {
	check := func(refs []ConnRef, slaveIdx int) error {
		for _, r := range refs {
			if r.ConnIdx == EmptyIndex {
				continue
			}
			if int(r.ConnIdx) >= len(cat.Connections) {
				return sercoserr.NewAt(sercoserr.Configuration, sercoserr.WrongConnectionIndex, slaveIdx, int(r.ConnIdx), "ConnIdx out of range")
			}
			if int(r.ConfigIdx) >= len(cat.Configurations) {
				return sercoserr.NewAt(sercoserr.Configuration, sercoserr.WrongConnectionIndex, slaveIdx, int(r.ConnIdx), "ConfigIdx out of range")
			}
			if cat.Limits.MaxRTBits > 0 && r.RTBitsIdx != EmptyIndex && int(r.RTBitsIdx) >= cat.Limits.MaxRTBits {
				return sercoserr.NewAt(sercoserr.Configuration, sercoserr.WrongConnectionIndex, slaveIdx, int(r.ConnIdx), "RTBitsIdx out of range")
			}
			cfg := cat.Configurations[r.ConfigIdx]
			if cfg.Role > Consumer {
				return sercoserr.NewAt(sercoserr.Configuration, sercoserr.ConfigurationNotConfigured, slaveIdx, int(r.ConnIdx), "unknown role")
			}
			if cat.Limits.MaxCapabilities > 0 && int(cfg.CapabilityIdx) >= cat.Limits.MaxCapabilities {
				return sercoserr.NewAt(sercoserr.Configuration, sercoserr.WrongScpCapConfiguration, slaveIdx, int(r.ConnIdx), "CapabilityIdx out of range")
			}
		}
		return nil
	}

	if err := check(cat.Master.Connections, -1); err != nil {
		return err
	}
	for _, s := range cat.Slaves {
		if err := check(s.Connections, int(s.Index)); err != nil {
			return err
		}
	}
	return nil
}

// checkUniqueProducerNumbers enforces that connection Numbers are unique
// across all producers — a slave configuring itself twice as a producer
// of the same Number is as much a violation as two different slaves
// doing it.
func checkUniqueProducerNumbers(cat *Catalog) error {
	seen := make(map[uint32]bool)
	visit := func(refs []ConnRef, slaveIdx int) error {
		for _, r := range refs {
			if r.ConnIdx == EmptyIndex {
				continue
			}
			cfg := cat.Configurations[r.ConfigIdx]
			if cfg.Role != Producer {
				continue
			}
			num := cat.Connections[r.ConnIdx].Number
			if seen[num] {
				return sercoserr.NewAt(sercoserr.Configuration, sercoserr.NoUniqueConnNbr, slaveIdx, int(r.ConnIdx), "duplicate producer connection number")
			}
			seen[num] = true
		}
		return nil
	}
	if err := visit(cat.Master.Connections, -1); err != nil {
		return err
	}
	for _, s := range cat.Slaves {
		if err := visit(s.Connections, int(s.Index)); err != nil {
			return err
		}
	}
	return nil
}

// checkProducedAndConsumed enforces: every connection referenced at all
// is produced exactly once, and has at least one consumer.
func checkProducedAndConsumed(cat *Catalog) error {
	producers := make(map[uint16]int)
	consumers := make(map[uint16]int)
	referenced := make(map[uint16]bool)

	tally := func(refs []ConnRef) {
		for _, r := range refs {
			if r.ConnIdx == EmptyIndex {
				continue
			}
			referenced[r.ConnIdx] = true
			switch cat.Configurations[r.ConfigIdx].Role {
			case Producer:
				producers[r.ConnIdx]++
			case Consumer:
				consumers[r.ConnIdx]++
			}
		}
	}
	tally(cat.Master.Connections)
	for _, s := range cat.Slaves {
		tally(s.Connections)
	}

	for idx := range referenced {
		if producers[idx] == 0 {
			return sercoserr.NewAt(sercoserr.Configuration, sercoserr.ConnectionNotProduced, -1, int(idx), "connection has no producer")
		}
		if consumers[idx] == 0 {
			return sercoserr.NewAt(sercoserr.Configuration, sercoserr.ConnectionNotConsumed, -1, int(idx), "connection has no consumer")
		}
	}
	return nil
}

// checkDirectionRules enforces: slaves never produce in MDT, and (absent
// the MasterProducesInAT opt-in) the master never produces in AT.
func checkDirectionRules(cat *Catalog, cfg PlausibilityConfig) error {
	for _, s := range cat.Slaves {
		for _, r := range s.Connections {
			if r.ConnIdx == EmptyIndex {
				continue
			}
			if cat.Configurations[r.ConfigIdx].Role != Producer {
				continue
			}
			if cat.Connections[r.ConnIdx].Direction == MDT {
				return sercoserr.NewAt(sercoserr.Configuration, sercoserr.SlaveProduceInMdt, int(s.Index), int(r.ConnIdx), "slave configured to produce an MDT connection")
			}
		}
	}
	if !cfg.MasterProducesInAT {
		for _, r := range cat.Master.Connections {
			if r.ConnIdx == EmptyIndex {
				continue
			}
			if cat.Configurations[r.ConfigIdx].Role != Producer {
				continue
			}
			if cat.Connections[r.ConnIdx].Direction == AT {
				return sercoserr.NewAt(sercoserr.Configuration, sercoserr.ConfigurationNotConfigured, -1, int(r.ConnIdx), "master configured to produce an AT connection without MasterProducesInAT enabled")
			}
		}
	}
	return nil
}

func checkPayloadAndCycle(cat *Catalog, cfg PlausibilityConfig) error {
	for i, c := range cat.Connections {
		if c.PayloadLen < 2 {
			return sercoserr.NewAt(sercoserr.Configuration, sercoserr.ConnectionLength0, -1, i, "payload length below minimum of 2 bytes")
		}
		if c.ProducerCycleNS != 0 {
			if cfg.TscycNS <= 0 || c.ProducerCycleNS < 0 || c.ProducerCycleNS%cfg.TscycNS != 0 {
				return sercoserr.NewAt(sercoserr.Configuration, sercoserr.ProdCycTimeInvalid, -1, i, "producer cycle time is not a positive multiple of Tscyc")
			}
		}
	}
	return nil
}
