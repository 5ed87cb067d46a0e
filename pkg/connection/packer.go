package connection

import "sercos3.io/softmaster/pkg/sercoserr"

// PackConfig carries the packer's configuration knobs.
type PackConfig struct {
	// CompatExtendedEF grows the extended-function field from
	// EFLenDefault to EFLenCompat wherever the MDT pass reserves one
	// (MDT0 and every telegram created by an SVC-slot wrap); AT
	// telegrams carry no EF field. Legacy compatibility flag.
	CompatExtendedEF bool
}

func (cfg PackConfig) efLen() int {
	if cfg.CompatExtendedEF {
		return EFLenCompat
	}
	return EFLenDefault
}

// packCursor walks telegrams 0..MaxTel-1, tracking how many bytes are
// used in the telegram currently being filled and wrapping to a new one
// when a region doesn't fit. reserveHPOnWrap controls whether a new
// telegram gets an HP (and EF) reservation automatically, which differs
// between the MDT pass (yes) and the AT pass (HP lives in AT0 only).
type packCursor struct {
	telegrams      []TelegramLayout
	cur            int
	maxTel         int
	efLen          int
	reserveHPOnWrap bool
	exhaustedCode  sercoserr.Code
}

func newPackCursor(maxTel, efLen int, reserveHPOnWrap bool, exhaustedCode sercoserr.Code) *packCursor {
	c := &packCursor{
		telegrams:       make([]TelegramLayout, 1),
		maxTel:          maxTel,
		efLen:           efLen,
		reserveHPOnWrap: reserveHPOnWrap,
		exhaustedCode:   exhaustedCode,
	}
	c.reserveHP(0, efLen > 0)
	return c
}

func (c *packCursor) reserveHP(tel int, withEF bool) {
	c.telegrams[tel].HP += HPLen
	c.telegrams[tel].Tel += HPLen
	if withEF {
		c.telegrams[tel].EF += c.efLen
		c.telegrams[tel].Tel += c.efLen
	}
}

// newTelegram appends telegram index len(telegrams), erroring if doing so
// would exceed maxTel.
func (c *packCursor) newTelegram() error {
	if len(c.telegrams) >= c.maxTel {
		return sercoserr.New(sercoserr.Configuration, c.exhaustedCode, "ran out of telegrams to pack into")
	}
	c.telegrams = append(c.telegrams, TelegramLayout{})
	c.cur = len(c.telegrams) - 1
	if c.reserveHPOnWrap {
		c.reserveHP(c.cur, c.efLen > 0)
	}
	return nil
}

// place reserves n bytes, wrapping to a new telegram first if the current
// one has no room, and returns (telegramNo, byteOffset) of the placed
// region's start.
func (c *packCursor) place(n int) (int, int, error) {
	if c.telegrams[c.cur].Tel+n > MaxTelegramPayload {
		if err := c.newTelegram(); err != nil {
			return 0, 0, err
		}
	}
	offset := c.telegrams[c.cur].Tel
	return c.cur, offset, nil
}

func (c *packCursor) addSVC(n int) (int, int, error) {
	tel, offset, err := c.place(n)
	if err != nil {
		return 0, 0, err
	}
	c.telegrams[tel].SVC += n
	c.telegrams[tel].Tel += n
	return tel, offset, nil
}

func (c *packCursor) addRTD(n int) (int, int, error) {
	tel, offset, err := c.place(n)
	if err != nil {
		return 0, 0, err
	}
	c.telegrams[tel].RTD += n
	c.telegrams[tel].Tel += n
	return tel, offset, nil
}

func (c *packCursor) addCC(n int, consumedByMaster bool) (int, int, error) {
	tel, offset, err := c.place(n)
	if err != nil {
		return 0, 0, err
	}
	c.telegrams[tel].CC += n
	c.telegrams[tel].RTD += n
	c.telegrams[tel].Tel += n
	if consumedByMaster {
		c.telegrams[tel].CCM += n
	}
	return tel, offset, nil
}

// padToMinimum raises every telegram's Tel/RTD up to MinTelegramLen,
// matching the wire minimum Ethernet frame length.
func (c *packCursor) padToMinimum() {
	for i := range c.telegrams {
		if c.telegrams[i].Tel < MinTelegramLen {
			pad := MinTelegramLen - c.telegrams[i].Tel
			c.telegrams[i].RTD += pad
			c.telegrams[i].Tel += pad
		}
	}
}

// PackMDT assigns MDT connections and per-slave housekeeping slots
// (SVC, C-DEV) to telegrams, per spec §4.3's MDT pass:
//  1. HP+EF reserved in telegram 0 (and again on every SVC-slot wrap).
//  2. Per-slave SVC slot, recorded into Slave.Offsets.MDTSVC (S-0-1013).
//  3. Per-slave C-DEV slot, recorded into Slave.Offsets.CDEV (S-0-1009).
//  4. Master-produced MDT connection bodies.
//  5. Pad every telegram up to the Ethernet minimum.
// Running out of telegrams surfaces as TelNbrMdtRtd.
func PackMDT(cat *Catalog, cfg PackConfig) ([]TelegramLayout, error) {
	c := newPackCursor(MaxTel, cfg.efLen(), true, sercoserr.TelNbrMdtRtd)

	for i := range cat.Slaves {
		tel, offset, err := c.addSVC(SVCSlotLen)
		if err != nil {
			return nil, err
		}
		cat.Slaves[i].Offsets.MDTSVC = Assignment{TelegramNo: tel, ByteOffset: offset}
	}
	for i := range cat.Slaves {
		tel, offset, err := c.addRTD(CDEVLen)
		if err != nil {
			return nil, err
		}
		cat.Slaves[i].Offsets.CDEV = Assignment{TelegramNo: tel, ByteOffset: offset}
	}

	for i := range cat.Master.Connections {
		ref := cat.Master.Connections[i]
		if ref.ConnIdx == EmptyIndex {
			continue
		}
		conn := &cat.Connections[ref.ConnIdx]
		if conn.Direction != MDT {
			continue
		}
		if cat.Configurations[ref.ConfigIdx].Role != Producer {
			continue
		}
		tel, offset, err := c.addRTD(conn.PayloadLen)
		if err != nil {
			return nil, err
		}
		conn.Assigned = Assignment{TelegramNo: tel, ByteOffset: offset}
	}

	c.padToMinimum()
	return c.telegrams, nil
}

// PackAT assigns AT connections and per-slave housekeeping slots to
// telegrams, per spec §4.3's AT pass:
//  1. HP reserved in AT0 only (no re-reservation on wrap).
//  2. Per-slave SVC slot, recorded into Slave.Offsets.ATSVC (S-0-1014).
//  3. CC connections consumed by the master.
//  4. CC connections not consumed by the master.
//  5. Master-produced (non-CC) AT connections.
//  6. Per-slave S-DEV, recorded into Slave.Offsets.SDEV (S-0-1011).
//  7. Remaining slave-produced (non-CC) connections.
//  8. Pad every telegram up to the Ethernet minimum.
// Running out of telegrams surfaces as TelNbrAtRtd. See DESIGN.md Open
// Question #5 for why step 6 precedes step 7 here.
func PackAT(cat *Catalog, cfg PackConfig) ([]TelegramLayout, error) {
	c := newPackCursor(MaxTel, 0, false, sercoserr.TelNbrAtRtd)

	for i := range cat.Slaves {
		tel, offset, err := c.addSVC(SVCSlotLen)
		if err != nil {
			return nil, err
		}
		cat.Slaves[i].Offsets.ATSVC = Assignment{TelegramNo: tel, ByteOffset: offset}
	}

	assignProducers := func(want func(conn *Connection, isMaster bool) bool, consumedByMaster func(conn *Connection) bool, useCC bool) error {
		assign := func(ref ConnRef, isMaster bool) error {
			if ref.ConnIdx == EmptyIndex {
				return nil
			}
			conn := &cat.Connections[ref.ConnIdx]
			if conn.Direction != AT {
				return nil
			}
			if cat.Configurations[ref.ConfigIdx].Role != Producer {
				return nil
			}
			if !want(conn, isMaster) {
				return nil
			}
			var tel, offset int
			var err error
			if useCC {
				tel, offset, err = c.addCC(conn.PayloadLen, consumedByMaster(conn))
			} else {
				tel, offset, err = c.addRTD(conn.PayloadLen)
			}
			if err != nil {
				return err
			}
			conn.Assigned = Assignment{TelegramNo: tel, ByteOffset: offset}
			return nil
		}
		for _, ref := range cat.Master.Connections {
			if err := assign(ref, true); err != nil {
				return err
			}
		}
		for _, s := range cat.Slaves {
			for _, ref := range s.Connections {
				if err := assign(ref, false); err != nil {
					return err
				}
			}
		}
		return nil
	}

	// Step 3: CC consumed by the master.
	if err := assignProducers(
		func(conn *Connection, isMaster bool) bool { return conn.IsCC && conn.ConsumedByMaster },
		func(conn *Connection) bool { return true },
		true,
	); err != nil {
		return nil, err
	}
	// Step 4: CC not consumed by the master.
	if err := assignProducers(
		func(conn *Connection, isMaster bool) bool { return conn.IsCC && !conn.ConsumedByMaster },
		func(conn *Connection) bool { return false },
		true,
	); err != nil {
		return nil, err
	}
	// Step 5: master-produced, non-CC.
	if err := assignProducers(
		func(conn *Connection, isMaster bool) bool { return isMaster && !conn.IsCC },
		nil,
		false,
	); err != nil {
		return nil, err
	}

	// Step 6: per-slave S-DEV.
	for i := range cat.Slaves {
		tel, offset, err := c.addRTD(SDEVLen)
		if err != nil {
			return nil, err
		}
		cat.Slaves[i].Offsets.SDEV = Assignment{TelegramNo: tel, ByteOffset: offset}
	}

	// Step 7: remaining slave-produced, non-CC.
	if err := assignProducers(
		func(conn *Connection, isMaster bool) bool { return !isMaster && !conn.IsCC },
		nil,
		false,
	); err != nil {
		return nil, err
	}

	c.padToMinimum()
	return c.telegrams, nil
}
