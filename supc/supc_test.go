package supc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimulator_NotInitialized(t *testing.T) {
	assert := assert.New(t)

	sim := NewSimulator()
	assert.False(sim.Initialized())
	assert.Equal(ErrNotInitialized, sim.Enter(Sleep{}))
	assert.Equal(ErrNotInitialized, sim.RegisterCallback(func(uintptr) {}, 0))
	assert.Nil(sim.Mode())
}

func TestSimulator_Sleep(t *testing.T) {
	assert := assert.New(t)

	sim := NewSimulator()
	assert.NoError(sim.Initialize())

	assert.NoError(sim.Enter(Sleep{}))
	assert.Equal(Sleep{}, sim.Mode())

	// Already in a low-power mode.
	assert.Equal(ErrNotActive, sim.Enter(Sleep{}))

	assert.Equal(ErrWakeSource, sim.Wake(0))
	assert.NoError(sim.Wake(WakeInterrupt))
	assert.Nil(sim.Mode())
	assert.Equal(ErrActive, sim.Wake(WakeInterrupt))

	assert.Equal(0, sim.Resets())
	assert.True(sim.Initialized())
	assert.Len(sim.History(), 2)
}

func TestSimulator_Wait(t *testing.T) {
	assert := assert.New(t)

	sim := NewSimulator()
	assert.NoError(sim.Initialize())

	assert.Equal(ErrWakeSource, sim.Enter(Wait{Flash: FlashStandby}))
	assert.Equal(ErrWakeSource, sim.Enter(Wait{Source: WakeSupplyMonitor}))
	assert.Equal(ErrFlashState, sim.Enter(Wait{Flash: 7, Source: WakeRTC}))
	assert.Equal(ErrModeInvalid, sim.Enter(nil))
	assert.Nil(sim.Mode())

	wait := Wait{Flash: FlashDeepPowerDown, Source: WakeRTT | WakePin(3)}
	assert.NoError(sim.Enter(wait))

	assert.Equal(ErrWakeSource, sim.Wake(WakeRTC))
	assert.Equal(wait, sim.Mode())

	assert.NoError(sim.Wake(WakePin(3)))
	assert.Nil(sim.Mode())
	assert.Equal(0, sim.Resets())

	history := sim.History()
	assert.Len(history, 2)
	assert.Equal(Transition{To: wait}, history[0])
	assert.Equal(Transition{From: wait, Source: WakePin(3)}, history[1])
}

func TestSimulator_Backup(t *testing.T) {
	assert := assert.New(t)

	sim := NewSimulator()
	assert.NoError(sim.Initialize())

	assert.Equal(ErrWakeSource, sim.Enter(Backup{Source: WakeUSB}))

	assert.NoError(sim.Enter(Backup{}))
	assert.Equal(ErrWakeSource, sim.Wake(WakeGMAC))
	assert.NoError(sim.Wake(WakeSupplyMonitor))

	// Waking from backup resets the device.
	assert.Equal(1, sim.Resets())
	assert.False(sim.Initialized())
	assert.Equal(ErrNotInitialized, sim.Enter(Sleep{}))

	assert.NoError(sim.Initialize())
	assert.NoError(sim.Enter(Backup{Source: WakeRTC}))
	assert.Equal(ErrWakeSource, sim.Wake(WakeRTT))
	assert.NoError(sim.Wake(WakeRTC))
	assert.Equal(2, sim.Resets())
}

func TestSimulator_Callback(t *testing.T) {
	assert := assert.New(t)

	sim := NewSimulator()
	assert.NoError(sim.Initialize())

	assert.Equal(ErrCallbackNil, sim.RegisterCallback(nil, 0))

	called := 0
	assert.NoError(sim.RegisterCallback(func(uintptr) { called++ }, 0x1234))

	cb, context := sim.Callback()
	assert.NotNil(cb)
	assert.Equal(uintptr(0x1234), context)

	// Transitions never invoke the callback.
	assert.NoError(sim.Enter(Sleep{}))
	assert.NoError(sim.Wake(WakeInterrupt))
	assert.Equal(0, called)
}
