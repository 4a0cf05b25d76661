package supc

import (
	"fmt"
	"iter"
	"maps"
	"math/bits"
	"strconv"
	"strings"
)

// FlashState is the low-power state of the embedded flash during Wait mode.
type FlashState uint8

const (
	FlashStandby       FlashState = iota // Flash in standby.
	FlashDeepPowerDown                   // Flash in deep power-down.
)

func (fs FlashState) String() string {
	switch fs {
	case FlashStandby:
		return "standby"
	case FlashDeepPowerDown:
		return "deep-powerdown"
	default:
		return fmt.Sprintf("flash(%d)", uint8(fs))
	}
}

// WakeSource is a set of wake-up event sources.
type WakeSource uint32

// WakePin returns the wake source for WKUP input n (0..13).
func WakePin(n int) WakeSource {
	if n < 0 || n >= WAKE_PIN_COUNT {
		return 0
	}
	return WakeSource(1) << n
}

const (
	WAKE_PIN_COUNT = 14 // WKUP0..WKUP13

	WakePins          WakeSource = (1 << WAKE_PIN_COUNT) - 1
	WakeRTC           WakeSource = 1 << 16
	WakeRTT           WakeSource = 1 << 17
	WakeUSB           WakeSource = 1 << 18
	WakeGMAC          WakeSource = 1 << 19
	WakeSupplyMonitor WakeSource = 1 << 20

	// WakeInterrupt is any enabled interrupt; only Sleep mode uses it.
	WakeInterrupt WakeSource = 1 << 31

	// WaitSources are the events that end Wait mode.
	WaitSources = WakePins | WakeRTC | WakeRTT | WakeUSB | WakeGMAC
	// BackupSources are the events that end Backup mode.
	BackupSources = WakePins | WakeSupplyMonitor | WakeRTC | WakeRTT
)

var wakeNames = []struct {
	name   string
	source WakeSource
}{
	{"rtc", WakeRTC},
	{"rtt", WakeRTT},
	{"usb", WakeUSB},
	{"gmac", WakeGMAC},
	{"supply-monitor", WakeSupplyMonitor},
	{"interrupt", WakeInterrupt},
}

func (ws WakeSource) String() string {
	if ws == 0 {
		return "none"
	}

	var names []string
	for pin := range WAKE_PIN_COUNT {
		if ws&WakePin(pin) != 0 {
			names = append(names, fmt.Sprintf("wkup%d", pin))
		}
	}
	rest := ws &^ WakePins
	for _, wn := range wakeNames {
		if rest&wn.source != 0 {
			names = append(names, wn.name)
			rest &^= wn.source
		}
	}
	if rest != 0 {
		names = append(names, fmt.Sprintf("%#x", uint32(rest)))
	}

	return strings.Join(names, "|")
}

// Count returns the number of sources in the set.
func (ws WakeSource) Count() int {
	return bits.OnesCount32(uint32(ws))
}

// Mode is a low-power mode. The set of modes is closed: Sleep, Wait, Backup.
type Mode interface {
	fmt.Stringer
	// Accepts returns whether a wake-up from source ends this mode.
	Accepts(source WakeSource) bool
	validate() error
}

// Sleep stops the core clock only. Any interrupt wakes the device.
type Sleep struct{}

// Wait stops all clocks with supplies held up, for a fast restart.
type Wait struct {
	Flash  FlashState
	Source WakeSource
}

// Backup powers down the core. Waking from Backup resets the device.
// A zero Source enables every Backup wake source.
type Backup struct {
	Source WakeSource
}

var (
	_ Mode = Sleep{}
	_ Mode = Wait{}
	_ Mode = Backup{}
)

func (Sleep) String() string {
	return "sleep"
}

func (Sleep) Accepts(source WakeSource) bool {
	return source != 0
}

func (Sleep) validate() error {
	return nil
}

func (w Wait) String() string {
	return fmt.Sprintf("wait(%v, %v)", w.Flash, w.Source)
}

func (w Wait) Accepts(source WakeSource) bool {
	return source != 0 && w.Source&source == source
}

func (w Wait) validate() error {
	if w.Flash > FlashDeepPowerDown {
		return ErrFlashState
	}
	if w.Source == 0 || w.Source&^WaitSources != 0 {
		return ErrWakeSource
	}
	return nil
}

func (b Backup) enabled() WakeSource {
	if b.Source == 0 {
		return BackupSources
	}
	return b.Source
}

func (b Backup) String() string {
	return fmt.Sprintf("backup(%v)", b.enabled())
}

func (b Backup) Accepts(source WakeSource) bool {
	return source != 0 && b.enabled()&source == source
}

func (b Backup) validate() error {
	if b.Source&^BackupSources != 0 {
		return ErrWakeSource
	}
	return nil
}

// ParseFlashState parses "standby" or "deep-powerdown".
func ParseFlashState(text string) (fs FlashState, err error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "standby":
		fs = FlashStandby
	case "deep-powerdown", "deep-power-down", "deep_powerdown":
		fs = FlashDeepPowerDown
	default:
		err = ErrParse(text)
	}
	return
}

// ParseWakeSource parses a '|' or ',' separated list of source names, such
// as "rtc|wkup3", or a number.
func ParseWakeSource(text string) (ws WakeSource, err error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '|' || r == ',' || r == ' '
	})
	if len(fields) == 0 {
		err = ErrParse(text)
		return
	}

	for _, field := range fields {
		field = strings.ToLower(field)
		var source WakeSource
		switch {
		case field == "wkup":
			source = WakePins
		case strings.HasPrefix(field, "wkup"):
			pin, perr := strconv.Atoi(field[4:])
			if perr != nil || pin < 0 || pin >= WAKE_PIN_COUNT {
				err = ErrParse(field)
				return
			}
			source = WakePin(pin)
		default:
			for _, wn := range wakeNames {
				if wn.name == field {
					source = wn.source
				}
			}
			if source == 0 {
				value, perr := strconv.ParseUint(field, 0, 32)
				if perr != nil {
					err = ErrParse(field)
					return
				}
				source = WakeSource(value)
			}
		}
		ws |= source
	}

	return
}

// ParseMode parses "sleep", "wait[:flash[:sources]]", or "backup[:sources]".
// Wait defaults to flash standby and RTC wake-up.
func ParseMode(text string) (mode Mode, err error) {
	parts := strings.SplitN(strings.TrimSpace(text), ":", 3)
	switch strings.ToLower(parts[0]) {
	case "sleep":
		if len(parts) > 1 {
			err = ErrParse(text)
			return
		}
		mode = Sleep{}
	case "wait":
		wait := Wait{Flash: FlashStandby, Source: WakeRTC}
		if len(parts) > 1 && len(parts[1]) > 0 {
			wait.Flash, err = ParseFlashState(parts[1])
			if err != nil {
				return
			}
		}
		if len(parts) > 2 {
			wait.Source, err = ParseWakeSource(parts[2])
			if err != nil {
				return
			}
		}
		mode = wait
	case "backup":
		backup := Backup{}
		if len(parts) > 2 {
			err = ErrParse(text)
			return
		}
		if len(parts) > 1 {
			backup.Source, err = ParseWakeSource(parts[1])
			if err != nil {
				return
			}
		}
		mode = backup
	default:
		err = ErrParse(text)
		return
	}

	err = mode.validate()
	if err != nil {
		mode = nil
	}

	return
}

// Defines returns an iter of the wake source and flash state constants.
func Defines() iter.Seq2[string, string] {
	defines := map[string]string{
		"FLASH_STANDBY":        fmt.Sprintf("%#v", uint32(FlashStandby)),
		"FLASH_DEEP_POWERDOWN": fmt.Sprintf("%#v", uint32(FlashDeepPowerDown)),
		"WAKE_PINS":            fmt.Sprintf("%#v", uint32(WakePins)),
		"WAKE_RTC":             fmt.Sprintf("%#v", uint32(WakeRTC)),
		"WAKE_RTT":             fmt.Sprintf("%#v", uint32(WakeRTT)),
		"WAKE_USB":             fmt.Sprintf("%#v", uint32(WakeUSB)),
		"WAKE_GMAC":            fmt.Sprintf("%#v", uint32(WakeGMAC)),
		"WAKE_SUPPLY_MONITOR":  fmt.Sprintf("%#v", uint32(WakeSupplyMonitor)),
		"WAKE_INTERRUPT":       fmt.Sprintf("%#v", uint32(WakeInterrupt)),
	}
	for pin := range WAKE_PIN_COUNT {
		defines[fmt.Sprintf("WAKE_WKUP%d", pin)] = fmt.Sprintf("%#v", uint32(WakePin(pin)))
	}

	return maps.All(defines)
}
