package connection

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func requireLayoutInvariant(t *testing.T, layouts []TelegramLayout) {
	for i, l := range layouts {
		require.Equal(t, l.HP+l.EF+l.SVC+l.RTD, l.Tel, "telegram %d: HP+EF+SVC+RTD must equal Tel", i)
		require.GreaterOrEqual(t, l.Tel, MinTelegramLen, "telegram %d below Ethernet minimum", i)
	}
}

func oneSlaveOneMDTConn() *Catalog {
	return &Catalog{
		Connections: []Connection{
			{Index: 0, Number: 1, Direction: MDT, PayloadLen: 8},
		},
		Configurations: []Configuration{
			{Role: Producer},
			{Role: Consumer},
		},
		Master: MasterConfig{
			Connections: []ConnRef{{ConnIdx: 0, ConfigIdx: 0, RTBitsIdx: EmptyIndex}},
		},
		Slaves: []Slave{
			{Index: 0, Connections: []ConnRef{{ConnIdx: 0, ConfigIdx: 1, RTBitsIdx: EmptyIndex}}},
		},
	}
}

func TestPackMDTSingleSlaveSingleConnection(t *testing.T) {
	cat := oneSlaveOneMDTConn()
	layouts, err := PackMDT(cat, PackConfig{})
	require.NoError(t, err)
	requireLayoutInvariant(t, layouts)

	require.Equal(t, 0, cat.Connections[0].Assigned.TelegramNo)
	require.GreaterOrEqual(t, cat.Connections[0].Assigned.ByteOffset, 0)
	require.Equal(t, 1, len(layouts))
	require.Equal(t, HPLen, layouts[0].HP)
	require.Equal(t, EFLenDefault, layouts[0].EF)
	require.Equal(t, SVCSlotLen, layouts[0].SVC)
}

func TestPackMDTRecordsPerSlaveHousekeepingOffsets(t *testing.T) {
	cat := oneSlaveOneMDTConn()
	_, err := PackMDT(cat, PackConfig{})
	require.NoError(t, err)

	svc := cat.Slaves[0].Offsets.MDTSVC
	cdev := cat.Slaves[0].Offsets.CDEV
	require.Equal(t, 0, svc.TelegramNo)
	require.GreaterOrEqual(t, svc.ByteOffset, 0)
	require.Equal(t, 0, cdev.TelegramNo)
	require.Greater(t, cdev.ByteOffset, svc.ByteOffset, "C-DEV slot must follow the SVC slot")
}

func TestPackATRecordsPerSlaveHousekeepingOffsets(t *testing.T) {
	cat := oneSlaveOneMDTConn()
	cat.Connections[0].Direction = AT
	_, err := PackAT(cat, PackConfig{})
	require.NoError(t, err)

	svc := cat.Slaves[0].Offsets.ATSVC
	sdev := cat.Slaves[0].Offsets.SDEV
	require.Equal(t, 0, svc.TelegramNo)
	require.GreaterOrEqual(t, svc.ByteOffset, 0)
	require.Equal(t, 0, sdev.TelegramNo)
	require.Greater(t, sdev.ByteOffset, svc.ByteOffset, "S-DEV slot must follow the SVC slot")
}

func TestPackMDTWrapsToNewTelegramOnOverflow(t *testing.T) {
	cat := &Catalog{}
	// Enough slaves that SVC slots alone overflow one telegram's payload.
	nSlaves := (MaxTelegramPayload / SVCSlotLen) + 2
	for i := 0; i < nSlaves; i++ {
		cat.Slaves = append(cat.Slaves, Slave{Index: uint16(i)})
	}
	layouts, err := PackMDT(cat, PackConfig{})
	require.NoError(t, err)
	require.Greater(t, len(layouts), 1)
	requireLayoutInvariant(t, layouts)
	// Every telegram after the first must carry its own HP reservation.
	for _, l := range layouts {
		require.Equal(t, HPLen, l.HP)
	}
}

func TestPackMDTExhaustsTelegramsReturnsError(t *testing.T) {
	cat := &Catalog{}
	nSlaves := (MaxTelegramPayload/SVCSlotLen + 1) * (MaxTel + 2)
	for i := 0; i < nSlaves; i++ {
		cat.Slaves = append(cat.Slaves, Slave{Index: uint16(i)})
	}
	_, err := PackMDT(cat, PackConfig{})
	require.Error(t, err)
}

func TestPackATHPOnlyInFirstTelegram(t *testing.T) {
	cat := &Catalog{}
	nSlaves := (MaxTelegramPayload / SVCSlotLen) + 2
	for i := 0; i < nSlaves; i++ {
		cat.Slaves = append(cat.Slaves, Slave{Index: uint16(i)})
	}
	layouts, err := PackAT(cat, PackConfig{})
	require.NoError(t, err)
	require.Greater(t, len(layouts), 1)
	requireLayoutInvariant(t, layouts)
	require.Equal(t, HPLen, layouts[0].HP)
	for _, l := range layouts[1:] {
		require.Equal(t, 0, l.HP)
	}
}

func TestPackATOrdersCCBeforeMasterBeforeSDEVBeforeRemaining(t *testing.T) {
	cat := &Catalog{
		Connections: []Connection{
			{Index: 0, Number: 1, Direction: AT, PayloadLen: 4, IsCC: true, ConsumedByMaster: true},  // CC, consumed by master
			{Index: 1, Number: 2, Direction: AT, PayloadLen: 4, IsCC: true, ConsumedByMaster: false}, // CC, slave-to-slave only
			{Index: 2, Number: 3, Direction: AT, PayloadLen: 4},                                      // master-produced
			{Index: 3, Number: 4, Direction: AT, PayloadLen: 4},                                      // remaining slave-produced
		},
		Configurations: []Configuration{
			{Role: Producer}, // 0: slave0 produces conn0
			{Role: Consumer}, // 1: master consumes conn0
			{Role: Producer}, // 2: slave1 produces conn1
			{Role: Consumer}, // 3: slave2 consumes conn1
			{Role: Producer}, // 4: master produces conn2
			{Role: Consumer}, // 5: slave0 consumes conn2
			{Role: Producer}, // 6: slave2 produces conn3
			{Role: Consumer}, // 7: slave1 consumes conn3
		},
		Slaves: []Slave{
			{Index: 0, Connections: []ConnRef{
				{ConnIdx: 0, ConfigIdx: 0, RTBitsIdx: EmptyIndex},
				{ConnIdx: 2, ConfigIdx: 5, RTBitsIdx: EmptyIndex},
			}},
			{Index: 1, Connections: []ConnRef{
				{ConnIdx: 1, ConfigIdx: 2, RTBitsIdx: EmptyIndex},
				{ConnIdx: 3, ConfigIdx: 7, RTBitsIdx: EmptyIndex},
			}},
			{Index: 2, Connections: []ConnRef{
				{ConnIdx: 1, ConfigIdx: 3, RTBitsIdx: EmptyIndex},
				{ConnIdx: 3, ConfigIdx: 6, RTBitsIdx: EmptyIndex},
			}},
		},
		Master: MasterConfig{
			Connections: []ConnRef{
				{ConnIdx: 0, ConfigIdx: 1, RTBitsIdx: EmptyIndex},
				{ConnIdx: 2, ConfigIdx: 4, RTBitsIdx: EmptyIndex},
			},
		},
	}

	layouts, err := PackAT(cat, PackConfig{})
	require.NoError(t, err)
	requireLayoutInvariant(t, layouts)

	ccConsumed := cat.Connections[0].Assigned
	ccNotConsumed := cat.Connections[1].Assigned
	masterProduced := cat.Connections[2].Assigned
	remaining := cat.Connections[3].Assigned

	require.LessOrEqual(t, offsetKey(ccConsumed), offsetKey(ccNotConsumed))
	require.LessOrEqual(t, offsetKey(ccNotConsumed), offsetKey(masterProduced))
	require.LessOrEqual(t, offsetKey(masterProduced), offsetKey(remaining))
	require.LessOrEqual(t, offsetKey(masterProduced), offsetKey(cat.Slaves[0].Offsets.SDEV))
	require.LessOrEqual(t, offsetKey(cat.Slaves[2].Offsets.SDEV), offsetKey(remaining))
}

func offsetKey(a Assignment) int {
	return a.TelegramNo*MaxTelegramPayload + a.ByteOffset
}
