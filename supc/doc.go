// Package supc models the Supply Controller of a microcontroller: the block
// that moves the device between its active state and the Sleep, Wait, and
// Backup low-power modes.
//
// Controller is the capability interface board code programs against.
// Simulator is a concrete adapter that tracks mode state and wake-ups
// without touching registers.
//
// A wake callback can be registered, but the conditions under which the
// hardware fires it are not defined here, so Simulator never invokes it.
package supc
