package softmaster

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sercos3.io/softmaster/pkg/connection"
	"sercos3.io/softmaster/pkg/crc32c"
	"sercos3.io/softmaster/pkg/driver"
	"sercos3.io/softmaster/pkg/timing"
	"sercos3.io/softmaster/pkg/watchdog"
)

func singleSlaveCatalog() *connection.Catalog {
	return &connection.Catalog{
		Connections: []connection.Connection{
			{Index: 0, Name: "c0", Number: 1, Direction: connection.MDT, PayloadLen: 4},
		},
		Configurations: []connection.Configuration{
			{Role: connection.Producer, RTBitsIdx: 0, CapabilityIdx: 0},
			{Role: connection.Consumer, RTBitsIdx: 1, CapabilityIdx: 0},
		},
		Slaves: []connection.Slave{
			{Index: 0, Connections: []connection.ConnRef{{ConnIdx: 0, ConfigIdx: 1, RTBitsIdx: 1}}},
		},
		Master: connection.MasterConfig{
			Connections: []connection.ConnRef{{ConnIdx: 0, ConfigIdx: 0, RTBitsIdx: 0}},
		},
		Limits: connection.SystemLimits{
			MaxConnections:         8,
			MaxConnectionsPerSlave: 4,
			MaxSlaves:              4,
			MaxCapabilities:        4,
			MaxRTBits:              8,
		},
	}
}

func basicTimingConfig() timing.Config {
	return timing.Config{
		TscycNS:              1_000_000,
		Method:                timing.MDTAtUCC,
		MasterJitterNS:        500,
		MaxSlaveJitterNS:      500,
		SlaveCount:            1,
		AllSlavesDynamicIFG:   true,
		RingDelayNS:           2000,
		FeedbackProcessingNS:  1000,
		MDTBytes:              []int{64},
		ATBytes:               []int{64},
	}
}

func newTestMaster(t *testing.T) (*SoftMaster, *driver.Loopback) {
	t.Helper()
	d := driver.NewLoopback()
	sm, err := New(Config{
		MACAddress:     [6]byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
		Catalog:        singleSlaveCatalog(),
		PackConfig:     connection.PackConfig{},
		TscycNS:        1_000_000,
		TimingPlan:     basicTimingConfig(),
		WatchdogReload: 3,
		WatchdogMode:   watchdog.AlarmModeDisableTx,
		UCCTXCapacity:  4,
		UCCRXCapacity:  4,
		Driver:         d,
	})
	require.NoError(t, err)
	return sm, d
}

func TestNewBuildsLayoutsAndBitmap(t *testing.T) {
	sm, _ := newTestMaster(t)
	require.NotEmpty(t, sm.mdtLayout)
	require.NotEmpty(t, sm.atLayout)
	require.NotNil(t, sm.bitmap)
	require.GreaterOrEqual(t, sm.cat.Connections[0].Assigned.ByteOffset, 0)
}

func TestCyclePrepareThenCycleStartTransmitsEveryTelegram(t *testing.T) {
	sm, d := newTestMaster(t)

	frames, err := sm.CyclePrepare()
	require.NoError(t, err)
	require.Equal(t, len(sm.mdtLayout)+len(sm.atLayout), len(frames))

	require.NoError(t, d.OpenTX())
	require.NoError(t, sm.CycleStart(frames))
	require.Len(t, d.TXLog(), len(frames))
	require.Equal(t, uint64(1), sm.CycleCount)
}

func TestCycleCountAndTSrefAdvancePerCycle(t *testing.T) {
	sm, d := newTestMaster(t)
	require.NoError(t, d.OpenTX())

	for i := 0; i < 3; i++ {
		frames, err := sm.CyclePrepare()
		require.NoError(t, err)
		require.NoError(t, sm.CycleStart(frames))
	}
	require.Equal(t, uint64(3), sm.CycleCount)
	require.Equal(t, uint32(3)%(sm.bitmap.TSrefMax+1), sm.TSref)
}

func TestQueueUCCIsDrainedWithinBudget(t *testing.T) {
	sm, d := newTestMaster(t)
	require.NoError(t, d.OpenTX())

	sm.QueueUCC([]byte("hello"))
	frames, err := sm.CyclePrepare()
	require.NoError(t, err)
	require.NoError(t, sm.CycleStart(frames))

	require.Len(t, d.UCCLog(), 1)
	require.Equal(t, "hello", string(d.UCCLog()[0]))
}

func TestWriteTXPayloadLandsAtAssignedOffsetInFrame(t *testing.T) {
	sm, d := newTestMaster(t)
	require.NoError(t, d.OpenTX())

	conn := &sm.cat.Connections[0]
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	require.Len(t, payload, conn.PayloadLen)
	require.NoError(t, sm.WriteTXPayload(conn.Index, payload))

	frames, err := sm.CyclePrepare()
	require.NoError(t, err)

	frame := frames[conn.Assigned.TelegramNo]
	body := frame[crc32c.HeaderLen : len(frame)-4]
	got := body[conn.Assigned.ByteOffset : conn.Assigned.ByteOffset+conn.PayloadLen]
	require.Equal(t, payload, got)
}

func TestWriteTXPayloadRejectsUnknownConnection(t *testing.T) {
	sm, _ := newTestMaster(t)
	err := sm.WriteTXPayload(0xBEEF, []byte{0x01})
	require.Error(t, err)
}

func TestCyclePrepareWritesCDEVAndExtendedFunction(t *testing.T) {
	sm, d := newTestMaster(t)
	require.NoError(t, d.OpenTX())

	frames, err := sm.CyclePrepare()
	require.NoError(t, err)
	require.NoError(t, sm.CycleStart(frames))

	frames, err = sm.CyclePrepare()
	require.NoError(t, err)

	slave := sm.cat.Slaves[0]
	mdt0 := frames[slave.Offsets.CDEV.TelegramNo]
	body := mdt0[crc32c.HeaderLen : len(mdt0)-4]
	cdev := body[slave.Offsets.CDEV.ByteOffset : slave.Offsets.CDEV.ByteOffset+connection.CDEVLen]
	require.Equal(t, byte(CP0), cdev[0], "C-DEV byte 0 carries the current phase")

	// After one full cycle, CycleCount is 1: the toggle bit and fragment
	// selector packed into ef[1] must reflect that, not sit at zero.
	ef := body[sm.mdtLayout[0].HP : sm.mdtLayout[0].HP+sm.mdtLayout[0].EF]
	require.NotEqual(t, byte(0), ef[1], "extended-function toggle/fragment selector must advance with CycleCount")
}

func TestCyclePrepareAdvancesSystemTimeAndSubcycleCounters(t *testing.T) {
	sm, d := newTestMaster(t)
	require.NoError(t, d.OpenTX())

	_, err := sm.CyclePrepare()
	require.NoError(t, err)

	require.Equal(t, uint32(sm.TscycNS), sm.mem.Registers.STNS)
	require.Equal(t, sm.mem.Registers.STNS, sm.mem.Registers.STNSShadow)
	require.Equal(t, uint32(1), sm.mem.Registers.SCCAB)

	_, err = sm.CyclePrepare()
	require.NoError(t, err)
	require.Equal(t, uint32(2*sm.TscycNS), sm.mem.Registers.STNS)
	require.Equal(t, uint32(0), sm.mem.Registers.SCCAB)
}

func TestWatchdogAlarmSuppressesTXAfterExpiry(t *testing.T) {
	sm, d := newTestMaster(t)
	require.NoError(t, d.OpenTX())

	// Feed the watchdog for a few cycles: transmission continues normally.
	for i := 0; i < 3; i++ {
		sm.FeedWatchdog()
		frames, err := sm.CyclePrepare()
		require.NoError(t, err)
		require.NoError(t, sm.CycleStart(frames))
	}
	require.NotEmpty(t, d.TXLog())

	// Stop feeding it: once the reload countdown (3) plus the arming
	// cycle runs out, the alarm latches and TX stops.
	var before int
	for i := 0; i < 5; i++ {
		before = len(d.TXLog())
		frames, err := sm.CyclePrepare()
		require.NoError(t, err)
		require.NoError(t, sm.CycleStart(frames))
	}
	after := len(d.TXLog())
	require.Equal(t, before, after, "alarmed watchdog must suppress further transmission")
}
