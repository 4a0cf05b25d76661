// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package supc

import (
	"log"
	"sync"
)

// Callback is a client wake-up handler. context is passed back unchanged.
type Callback func(context uintptr)

// Controller is the supply controller capability.
type Controller interface {
	// Initialize applies the board configuration. It must be called
	// before any other operation.
	Initialize() error
	// Enter moves the device from the active state into a low-power mode.
	Enter(mode Mode) error
	// RegisterCallback installs a client callback and its context.
	RegisterCallback(cb Callback, context uintptr) error
}

// Transition is one recorded mode change. A nil Mode is the active state.
type Transition struct {
	From   Mode
	To     Mode
	Source WakeSource // Wake source, for a return to the active state.
}

// Simulator is a Controller that tracks mode state in memory.
type Simulator struct {
	Verbose bool // If set, logs each transition.

	mutex       sync.Mutex
	initialized bool
	mode        Mode
	history     []Transition
	resets      int
	callback    Callback
	context     uintptr
}

var _ Controller = (*Simulator)(nil)

// NewSimulator creates an uninitialized simulated supply controller.
func NewSimulator() *Simulator {
	return &Simulator{}
}

// Initialize returns the device to the active state.
func (sim *Simulator) Initialize() (err error) {
	sim.mutex.Lock()
	defer sim.mutex.Unlock()

	sim.initialized = true
	sim.mode = nil

	if sim.Verbose {
		log.Printf("supc: initialized")
	}

	return
}

// Enter validates mode and moves the device into it.
func (sim *Simulator) Enter(mode Mode) (err error) {
	sim.mutex.Lock()
	defer sim.mutex.Unlock()

	if !sim.initialized {
		err = ErrNotInitialized
		return
	}

	if sim.mode != nil {
		err = ErrNotActive
		return
	}

	if mode == nil {
		err = ErrModeInvalid
		return
	}

	err = mode.validate()
	if err != nil {
		return
	}

	sim.record(Transition{To: mode})
	sim.mode = mode

	return
}

// Wake delivers a wake-up event. If the current mode accepts source, the
// device returns to the active state; leaving Backup counts as a reset and
// requires Initialize again.
func (sim *Simulator) Wake(source WakeSource) (err error) {
	sim.mutex.Lock()
	defer sim.mutex.Unlock()

	if sim.mode == nil {
		err = ErrActive
		return
	}

	if !sim.mode.Accepts(source) {
		err = ErrWakeSource
		return
	}

	sim.record(Transition{From: sim.mode, Source: source})

	if _, ok := sim.mode.(Backup); ok {
		sim.resets++
		sim.initialized = false
	}

	sim.mode = nil

	return
}

func (sim *Simulator) record(tr Transition) {
	if sim.Verbose {
		from, to := "active", "active"
		if tr.From != nil {
			from = tr.From.String()
		}
		if tr.To != nil {
			to = tr.To.String()
		}
		log.Printf("supc: %v -> %v", from, to)
	}

	sim.history = append(sim.history, tr)
}

// RegisterCallback stores the callback and context. The simulator does not
// invoke it.
func (sim *Simulator) RegisterCallback(cb Callback, context uintptr) (err error) {
	sim.mutex.Lock()
	defer sim.mutex.Unlock()

	if !sim.initialized {
		err = ErrNotInitialized
		return
	}

	if cb == nil {
		err = ErrCallbackNil
		return
	}

	sim.callback = cb
	sim.context = context

	return
}

// Callback returns the registered callback and context, if any.
func (sim *Simulator) Callback() (cb Callback, context uintptr) {
	sim.mutex.Lock()
	defer sim.mutex.Unlock()

	return sim.callback, sim.context
}

// Initialized returns whether Initialize has been called since the last reset.
func (sim *Simulator) Initialized() bool {
	sim.mutex.Lock()
	defer sim.mutex.Unlock()

	return sim.initialized
}

// Mode returns the current low-power mode, or nil when active.
func (sim *Simulator) Mode() Mode {
	sim.mutex.Lock()
	defer sim.mutex.Unlock()

	return sim.mode
}

// History returns a copy of the recorded transitions.
func (sim *Simulator) History() []Transition {
	sim.mutex.Lock()
	defer sim.mutex.Unlock()

	return append([]Transition(nil), sim.history...)
}

// Resets returns how many times waking from Backup has reset the device.
func (sim *Simulator) Resets() int {
	sim.mutex.Lock()
	defer sim.mutex.Unlock()

	return sim.resets
}
