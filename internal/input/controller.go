// Package input implements the NES controller port protocol: a strobe latch
// feeding an 8-bit serial shift register, read one bit at a time from
// $4016/$4017.
package input

import (
	"log"
)

// Button identifies one of the eight standard NES pad buttons as a single
// bit, matching the order the shift register serializes them in.
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Short aliases for callers that don't need the Button-prefixed names.
const (
	A      = ButtonA
	B      = ButtonB
	Select = ButtonSelect
	Start  = ButtonStart
	Up     = ButtonUp
	Down   = ButtonDown
	Left   = ButtonLeft
	Right  = ButtonRight
)

// padOrder lists the buttons in the order the shift register shifts them
// out, used to translate an 8-element bool array into the bitmask form.
var padOrder = [8]Button{ButtonA, ButtonB, ButtonSelect, ButtonStart, ButtonUp, ButtonDown, ButtonLeft, ButtonRight}

// Controller models one NES gamepad: a latched button bitmask plus the
// serial shift register a CPU read walks through one bit at a time.
type Controller struct {
	buttons uint8 // live button bitmask, updated as the host reports input

	shiftRegister uint8 // bits shifted out on successive reads
	strobe        bool  // true while $4016 bit 0 is held high

	latched uint8 // buttons captured at the moment strobe last took effect

	bitPosition uint8 // how many bits have been shifted out since the last latch

	readCount    uint64
	writeCount   uint64
	debugEnabled bool
}

// New returns a controller with no buttons held.
func New() *Controller {
	return &Controller{}
}

// SetButton presses or releases a single button.
func (c *Controller) SetButton(button Button, pressed bool) {
	before := c.buttons
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}
	if c.debugEnabled {
		log.Printf("[BUTTON_DEBUG] SetButton: button=%d pressed=%t buttons=0x%02X -> 0x%02X",
			uint8(button), pressed, before, c.buttons)
	}
}

// SetButtons replaces the entire button state from an [A,B,Select,Start,
// Up,Down,Left,Right] array, as host input backends typically report it.
func (c *Controller) SetButtons(buttons [8]bool) {
	before := c.buttons
	var mask uint8
	for i, held := range buttons {
		if held {
			mask |= uint8(padOrder[i])
		}
	}
	c.buttons = mask
	if c.debugEnabled {
		log.Printf("[BUTTON_DEBUG] SetButtons: [A:%t B:%t Sel:%t Start:%t U:%t D:%t L:%t R:%t] 0x%02X -> 0x%02X",
			buttons[0], buttons[1], buttons[2], buttons[3], buttons[4], buttons[5], buttons[6], buttons[7],
			before, c.buttons)
	}
}

// IsPressed reports whether button is currently held.
func (c *Controller) IsPressed(button Button) bool {
	return c.buttons&uint8(button) != 0
}

// latchState snapshots the live button state into the shift register and resets
// the read position, as hardware does both on strobe-high and on the
// falling edge of strobe.
func (c *Controller) latchState() {
	c.latched = c.buttons
	c.shiftRegister = c.latched
	c.bitPosition = 0
}

// Write handles a write to $4016, the only address that accepts one.
func (c *Controller) Write(value uint8) {
	c.writeCount++
	wasStrobe := c.strobe
	c.strobe = value&1 != 0

	switch {
	case c.strobe:
		c.latchState()
		if c.debugEnabled {
			log.Printf("[CONTROLLER_DEBUG] strobe high: buttons=0x%02X latched=0x%02X", c.buttons, c.latched)
		}
	case wasStrobe:
		c.latchState()
		if c.debugEnabled {
			log.Printf("[CONTROLLER_DEBUG] strobe low: buttons=0x%02X latched=0x%02X shift=0x%02X", c.buttons, c.latched, c.shiftRegister)
		}
	}
}

// Read shifts the next bit out of the register. While strobe is held high
// every read returns button A as captured by the last strobe write, and the
// position never advances past 0.
// Once eight bits have been read, later reads return 0 (bit 6 high on
// $4017 is handled by the caller, not here).
func (c *Controller) Read() uint8 {
	c.readCount++

	if c.strobe {
		c.bitPosition = 0
		bit := c.latched & 1
		if c.debugEnabled && c.readCount%10 == 0 {
			log.Printf("[CONTROLLER_DEBUG] read during strobe: bit=%d latched=0x%02X", bit, c.latched)
		}
		return bit
	}

	if c.bitPosition >= 8 {
		c.bitPosition++
		if c.debugEnabled && c.readCount%10 == 0 {
			log.Printf("[CONTROLLER_DEBUG] read past bit 7 (pos %d): 0", c.bitPosition)
		}
		return 0
	}

	bit := c.shiftRegister & 1
	c.shiftRegister >>= 1
	c.bitPosition++
	if c.debugEnabled && c.readCount%10 == 0 {
		log.Printf("[CONTROLLER_DEBUG] read bit %d: %d shift=0x%02X", c.bitPosition-1, bit, c.shiftRegister)
	}
	return bit
}

// Reset clears held buttons, the shift register, and strobe state.
func (c *Controller) Reset() {
	c.buttons = 0
	c.shiftRegister = 0
	c.strobe = false
	c.latched = 0
	c.bitPosition = 0
	c.readCount = 0
	c.writeCount = 0
}

// EnableDebug turns protocol tracing on or off for this controller.
func (c *Controller) EnableDebug(enable bool) {
	c.debugEnabled = enable
}

// GetBitPosition reports how many bits have been shifted out since the
// last latch; exported for tests asserting on protocol state.
func (c *Controller) GetBitPosition() uint8 {
	return c.bitPosition
}

// InputState owns both controller ports.
type InputState struct {
	Controller1 *Controller
	Controller2 *Controller
}

// NewInputState returns a fresh pair of controllers, both idle.
func NewInputState() *InputState {
	return &InputState{
		Controller1: New(),
		Controller2: New(),
	}
}

// Reset clears both controllers.
func (is *InputState) Reset() {
	is.Controller1.Reset()
	is.Controller2.Reset()
}

// EnableDebug turns protocol tracing on or off for both controllers.
func (is *InputState) EnableDebug(enable bool) {
	is.Controller1.EnableDebug(enable)
	is.Controller2.EnableDebug(enable)
}

// SetButtons1 replaces controller 1's button state.
func (is *InputState) SetButtons1(buttons [8]bool) {
	is.Controller1.SetButtons(buttons)
}

// SetButtons2 replaces controller 2's button state.
func (is *InputState) SetButtons2(buttons [8]bool) {
	is.Controller2.SetButtons(buttons)
}

// Read dispatches a CPU-bus read to the addressed controller port.
// $4017 sets bit 6, an open-bus artifact of NES hardware wiring that
// software relies on to distinguish the two ports.
func (is *InputState) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		result := is.Controller1.Read()
		if is.Controller1.debugEnabled {
			log.Printf("[INPUT_TRACE] $4016 read: result=0x%02X readCount=%d", result, is.Controller1.readCount)
		}
		return result
	case 0x4017:
		result := is.Controller2.Read() | 0x40
		if is.Controller2.debugEnabled {
			log.Printf("[INPUT_TRACE] $4017 read: result=0x%02X buttons=0x%02X bitPos=%d",
				result, is.Controller2.buttons, is.Controller2.bitPosition)
		}
		return result
	default:
		return 0
	}
}

// Write dispatches a CPU-bus write; $4016 strobes both ports simultaneously.
func (is *InputState) Write(address uint16, value uint8) {
	if address != 0x4016 {
		return
	}
	if is.Controller1.debugEnabled {
		log.Printf("[INPUT_TRACE] $4016 write: value=0x%02X strobe=%t writeCount=%d",
			value, value&1 != 0, is.Controller1.writeCount+1)
	}
	is.Controller1.Write(value)
	is.Controller2.Write(value)
}
