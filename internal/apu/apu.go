// Package apu implements the Audio Processing Unit for the NES.
package apu

// APU represents the NES Audio Processing Unit.
type APU struct {
	pulse1   PulseChannel
	pulse2   PulseChannel
	triangle TriangleChannel
	noise    NoiseChannel
	dmc      DMCChannel

	// Frame counter sequencer, advanced once per CPU cycle by Step.
	// frameMode selects the 4-step (false) or 5-step (true) sequence.
	frameCounter     uint16
	frameMode        bool
	frameIRQEnable   bool
	frameCounterStep uint8
	frameIRQFlag     bool

	// channelEnable indexes pulse1, pulse2, triangle, noise, dmc in that order.
	channelEnable [5]bool

	sampleBuffer     []float32
	sampleRate       int
	cpuFrequency     float64
	cycleAccumulator float64 // fractional sample-rate-conversion carry

	cycles uint64
}

// envelope is the volume/decay unit shared by the pulse and noise channels:
// a start flag, a 4-bit decay counter, and a divider that paces it at the
// channel's configured volume/period.
type envelope struct {
	loop    bool // also doubles as the channel's length-counter halt flag
	disable bool // true = constant volume, false = use the decay counter
	volume  uint8
	start   bool
	counter uint8
	divider uint8
}

// clock advances the envelope by one quarter-frame tick.
func (e *envelope) clock() {
	if e.start {
		e.start = false
		e.counter = 15
		e.divider = e.volume
		return
	}
	if e.divider == 0 {
		e.divider = e.volume
		if e.counter > 0 {
			e.counter--
		} else if e.loop {
			e.counter = 15
		}
		return
	}
	e.divider--
}

// output returns the channel's current volume: the live decay counter, or
// the configured constant volume if envelope decay is disabled.
func (e *envelope) output() uint8 {
	if e.disable {
		return e.volume
	}
	return e.counter
}

// PulseChannel represents a pulse wave channel.
type PulseChannel struct {
	envelope
	dutyCycle uint8 // 0-3 (12.5%, 25%, 50%, 75%)

	sweepEnable  bool
	sweepPeriod  uint8
	sweepNegate  bool
	sweepShift   uint8
	sweepReload  bool
	sweepCounter uint8

	timer        uint16 // 11-bit period
	timerCounter uint16

	lengthCounter uint8

	dutyIndex    uint8
	sequencerPos uint8
}

// TriangleChannel represents the triangle wave channel.
type TriangleChannel struct {
	lengthCounterHalt bool
	linearCounterLoad uint8

	timer        uint16
	timerCounter uint16

	lengthCounter uint8

	linearCounter       uint8
	linearCounterReload bool

	sequencerPos uint8
}

// NoiseChannel represents the noise channel.
type NoiseChannel struct {
	envelope

	mode         bool // false = long (32767-step), true = short (93-step)
	periodIndex  uint8
	timerCounter uint16

	lengthCounter uint8

	shiftRegister uint16 // 15-bit LFSR, seeded to 1
}

// DMCChannel represents the Delta Modulation Channel.
type DMCChannel struct {
	irqEnable bool
	loop      bool
	rateIndex uint8

	outputLevel uint8 // 7-bit DAC value

	sampleAddress uint16
	sampleLength  uint16

	timerCounter      uint16
	sampleBuffer      uint8
	sampleBufferBits  uint8
	sampleBufferEmpty bool
	bytesRemaining    uint16
	currentAddress    uint16

	irqFlag bool
}

// New creates a new APU instance with the frame counter IRQ enabled and the
// noise LFSR seeded per hardware reset behavior.
func New() *APU {
	apu := &APU{
		sampleBuffer:   make([]float32, 0, 4096),
		sampleRate:     44100,
		cpuFrequency:   1789773.0, // NTSC CPU frequency
		frameIRQEnable: true,
	}
	apu.noise.shiftRegister = 1
	return apu
}

// Reset restores the APU to its post-power-on state.
func (apu *APU) Reset() {
	apu.pulse1 = PulseChannel{}
	apu.pulse2 = PulseChannel{}
	apu.triangle = TriangleChannel{}
	apu.noise = NoiseChannel{shiftRegister: 1}
	apu.dmc = DMCChannel{}

	apu.frameCounter = 0
	apu.frameCounterStep = 0
	apu.frameMode = false
	apu.frameIRQEnable = true
	apu.frameIRQFlag = false

	for i := range apu.channelEnable {
		apu.channelEnable[i] = false
	}

	apu.cycles = 0
	apu.cycleAccumulator = 0
	apu.sampleBuffer = apu.sampleBuffer[:0]
}

// Step advances the APU by one CPU cycle.
func (apu *APU) Step() {
	apu.cycles++
	apu.stepFrameCounter()
	apu.stepChannelTimers()
	apu.generateSample()
}

// frameSequence4Step and frameSequence5Step give the CPU cycle count at
// which each quarter/half-frame event in the two frame counter modes fires.
type frameEvent struct {
	at               uint16
	quarter, half    bool
	irq, wrapsToZero bool
}

var frameSequence4Step = []frameEvent{
	{at: 7457, quarter: true},
	{at: 14913, quarter: true, half: true},
	{at: 22371, quarter: true},
	{at: 29829, quarter: true, half: true},
	{at: 29830, irq: true, wrapsToZero: true},
}

var frameSequence5Step = []frameEvent{
	{at: 7457, quarter: true},
	{at: 14913, quarter: true, half: true},
	{at: 22371, quarter: true},
	{at: 37281, quarter: true, half: true, wrapsToZero: true},
}

// stepFrameCounter clocks the quarter/half-frame sequencer and, in 4-step
// mode, sets the frame IRQ flag at the end of the sequence.
func (apu *APU) stepFrameCounter() {
	apu.frameCounter++

	sequence := frameSequence4Step
	if apu.frameMode {
		sequence = frameSequence5Step
	}

	for _, ev := range sequence {
		if apu.frameCounter != ev.at {
			continue
		}
		if ev.quarter {
			apu.clockEnvelopeAndLinear()
		}
		if ev.half {
			apu.clockLengthAndSweep()
		}
		if ev.irq && apu.frameIRQEnable {
			apu.frameIRQFlag = true
		}
		if ev.wrapsToZero {
			apu.frameCounter = 0
			apu.frameCounterStep = 0
		}
		return
	}
}

// clockEnvelopeAndLinear clocks envelope and linear counter units.
func (apu *APU) clockEnvelopeAndLinear() {
	apu.pulse1.envelope.clock()
	apu.pulse2.envelope.clock()
	apu.noise.envelope.clock()
	apu.clockTriangleLinear(&apu.triangle)
}

// clockLengthAndSweep clocks length counters and sweep units.
func (apu *APU) clockLengthAndSweep() {
	apu.clockPulseLength(&apu.pulse1)
	apu.clockPulseSweep(&apu.pulse1, true) // pulse 1's sweep subtracts one extra
	apu.clockPulseLength(&apu.pulse2)
	apu.clockPulseSweep(&apu.pulse2, false)
	apu.clockTriangleLength(&apu.triangle)
	apu.clockNoiseLength(&apu.noise)
}

// stepChannelTimers steps each enabled channel's timer.
func (apu *APU) stepChannelTimers() {
	if apu.channelEnable[0] {
		apu.stepPulseTimer(&apu.pulse1)
	}
	if apu.channelEnable[1] {
		apu.stepPulseTimer(&apu.pulse2)
	}
	if apu.channelEnable[2] {
		apu.stepTriangleTimer(&apu.triangle)
	}
	if apu.channelEnable[3] {
		apu.stepNoiseTimer(&apu.noise)
	}
	if apu.channelEnable[4] {
		apu.stepDMCTimer(&apu.dmc)
	}
}

// generateSample mixes the channels and appends one audio sample whenever
// enough CPU cycles have accumulated to cover one output sample period.
func (apu *APU) generateSample() {
	apu.cycleAccumulator += float64(apu.sampleRate) / apu.cpuFrequency
	if apu.cycleAccumulator < 1.0 {
		return
	}
	apu.cycleAccumulator -= 1.0

	sample := apu.mixChannels(
		apu.getPulseOutput(&apu.pulse1),
		apu.getPulseOutput(&apu.pulse2),
		apu.getTriangleOutput(&apu.triangle),
		apu.getNoiseOutput(&apu.noise),
		apu.getDMCOutput(&apu.dmc),
	)
	apu.sampleBuffer = append(apu.sampleBuffer, sample)
}

// registerWriters dispatches a $4000-$4017 register write to its handler.
// Addresses with no audio register (the unused $4009/$4014/$4016 gaps) are
// absent from the map, and WriteRegister ignores writes to them.
var registerWriters = map[uint16]func(*APU, uint8){
	0x4000: func(a *APU, v uint8) { a.writePulseControl(&a.pulse1, v) },
	0x4001: func(a *APU, v uint8) { a.writePulseSweep(&a.pulse1, v) },
	0x4002: func(a *APU, v uint8) { a.writePulseTimerLow(&a.pulse1, v) },
	0x4003: func(a *APU, v uint8) { a.writePulseTimerHigh(&a.pulse1, v) },
	0x4004: func(a *APU, v uint8) { a.writePulseControl(&a.pulse2, v) },
	0x4005: func(a *APU, v uint8) { a.writePulseSweep(&a.pulse2, v) },
	0x4006: func(a *APU, v uint8) { a.writePulseTimerLow(&a.pulse2, v) },
	0x4007: func(a *APU, v uint8) { a.writePulseTimerHigh(&a.pulse2, v) },
	0x4008: func(a *APU, v uint8) { a.writeTriangleControl(v) },
	0x400A: func(a *APU, v uint8) { a.writeTriangleTimerLow(v) },
	0x400B: func(a *APU, v uint8) { a.writeTriangleTimerHigh(v) },
	0x400C: func(a *APU, v uint8) { a.writeNoiseControl(v) },
	0x400E: func(a *APU, v uint8) { a.writeNoisePeriod(v) },
	0x400F: func(a *APU, v uint8) { a.writeNoiseLength(v) },
	0x4010: func(a *APU, v uint8) { a.writeDMCControl(v) },
	0x4011: func(a *APU, v uint8) { a.writeDMCDirectLoad(v) },
	0x4012: func(a *APU, v uint8) { a.writeDMCSampleAddress(v) },
	0x4013: func(a *APU, v uint8) { a.writeDMCSampleLength(v) },
	0x4015: func(a *APU, v uint8) { a.writeChannelEnable(v) },
	0x4017: func(a *APU, v uint8) { a.writeFrameCounter(v) },
}

// WriteRegister writes to an APU register.
func (apu *APU) WriteRegister(address uint16, value uint8) {
	if w, ok := registerWriters[address]; ok {
		w(apu, value)
	}
}

// GetSamples drains and returns the buffered audio samples since the last
// call.
func (apu *APU) GetSamples() []float32 {
	samples := make([]float32, len(apu.sampleBuffer))
	copy(samples, apu.sampleBuffer)
	apu.sampleBuffer = apu.sampleBuffer[:0]
	return samples
}

// ReadStatus reads the APU status register ($4015), clearing the frame IRQ
// flag as a side effect of the read.
func (apu *APU) ReadStatus() uint8 {
	var status uint8
	if apu.pulse1.lengthCounter > 0 {
		status |= 0x01
	}
	if apu.pulse2.lengthCounter > 0 {
		status |= 0x02
	}
	if apu.triangle.lengthCounter > 0 {
		status |= 0x04
	}
	if apu.noise.lengthCounter > 0 {
		status |= 0x08
	}
	if apu.dmc.bytesRemaining > 0 {
		status |= 0x10
	}
	if apu.frameIRQFlag {
		status |= 0x40
	}
	if apu.dmc.irqFlag {
		status |= 0x80
	}

	apu.frameIRQFlag = false
	return status
}

// lengthTable maps a 5-bit length-counter load value to its duration in
// frame-sequencer half-frames.
var lengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6,
	160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 8, 48, 6, 96, 4,
	192, 2, 72, 16, 28, 32, 52, 2,
}

// dutyTable holds the four pulse duty-cycle waveforms, 8 steps each.
var dutyTable = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0}, // 12.5%
	{0, 1, 1, 0, 0, 0, 0, 0}, // 25%
	{0, 1, 1, 1, 1, 0, 0, 0}, // 50%
	{1, 0, 0, 1, 1, 1, 1, 1}, // 75%
}

// triangleTable is the 32-step triangle wave sequence.
var triangleTable = [32]uint8{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// noisePeriodTable is the NTSC noise channel's 16 timer periods.
var noisePeriodTable = [16]uint16{
	4, 8, 16, 32, 64, 96, 128, 160,
	202, 254, 380, 508, 762, 1016, 2034, 4068,
}

// dmcRateTable is the NTSC DMC channel's 16 timer periods.
var dmcRateTable = [16]uint16{
	428, 380, 340, 320, 286, 254, 226, 214,
	190, 160, 142, 128, 106, 84, 72, 54,
}

// writePulseControl writes $4000/$4004.
func (apu *APU) writePulseControl(pulse *PulseChannel, value uint8) {
	pulse.dutyCycle = (value >> 6) & 0x03
	pulse.loop = (value & 0x20) != 0
	pulse.disable = (value & 0x10) != 0
	pulse.volume = value & 0x0F
	pulse.start = true
}

// writePulseSweep writes $4001/$4005.
func (apu *APU) writePulseSweep(pulse *PulseChannel, value uint8) {
	pulse.sweepEnable = (value & 0x80) != 0
	pulse.sweepPeriod = (value >> 4) & 0x07
	pulse.sweepNegate = (value & 0x08) != 0
	pulse.sweepShift = value & 0x07
	pulse.sweepReload = true
}

// writePulseTimerLow writes $4002/$4006.
func (apu *APU) writePulseTimerLow(pulse *PulseChannel, value uint8) {
	pulse.timer = (pulse.timer & 0xFF00) | uint16(value)
}

// writePulseTimerHigh writes $4003/$4007.
func (apu *APU) writePulseTimerHigh(pulse *PulseChannel, value uint8) {
	pulse.timer = (pulse.timer & 0x00FF) | (uint16(value&0x07) << 8)
	pulse.lengthCounter = lengthTable[(value>>3)&0x1F]
	pulse.start = true
	pulse.dutyIndex = 0
}

func (apu *APU) stepPulseTimer(pulse *PulseChannel) {
	if pulse.timerCounter == 0 {
		pulse.timerCounter = pulse.timer
		pulse.sequencerPos = (pulse.sequencerPos + 1) & 0x07
	} else {
		pulse.timerCounter--
	}
}

// clockPulseLength decrements a pulse channel's length counter unless it is
// halted by the envelope-loop/length-halt flag.
func (apu *APU) clockPulseLength(pulse *PulseChannel) {
	if !pulse.loop && pulse.lengthCounter > 0 {
		pulse.lengthCounter--
	}
}

// clockPulseSweep clocks the pulse sweep unit. Pulse 1's negate mode
// subtracts one extra from the target period (one's complement) versus
// pulse 2's two's-complement subtraction; this is the one asymmetry
// hardware has between the two otherwise-identical pulse channels.
func (apu *APU) clockPulseSweep(pulse *PulseChannel, isPulse1 bool) {
	if pulse.sweepCounter == 0 && pulse.sweepEnable && pulse.sweepShift > 0 {
		change := pulse.timer >> pulse.sweepShift
		switch {
		case pulse.sweepNegate && isPulse1:
			pulse.timer = pulse.timer - change - 1
		case pulse.sweepNegate:
			pulse.timer = pulse.timer - change
		default:
			pulse.timer = pulse.timer + change
		}
	}

	if pulse.sweepCounter == 0 || pulse.sweepReload {
		pulse.sweepCounter = pulse.sweepPeriod
		pulse.sweepReload = false
	} else {
		pulse.sweepCounter--
	}
}

// getPulseOutput returns the pulse channel's current output level, silenced
// if its length counter is expired or its period is out of the audible range.
func (apu *APU) getPulseOutput(pulse *PulseChannel) uint8 {
	if pulse.lengthCounter == 0 || pulse.timer < 8 || pulse.timer > 0x7FF {
		return 0
	}
	if dutyTable[pulse.dutyCycle][pulse.sequencerPos] == 0 {
		return 0
	}
	return pulse.envelope.output()
}

// writeTriangleControl writes $4008.
func (apu *APU) writeTriangleControl(value uint8) {
	apu.triangle.lengthCounterHalt = (value & 0x80) != 0
	apu.triangle.linearCounterLoad = value & 0x7F
	apu.triangle.linearCounterReload = true
}

// writeTriangleTimerLow writes $400A.
func (apu *APU) writeTriangleTimerLow(value uint8) {
	apu.triangle.timer = (apu.triangle.timer & 0xFF00) | uint16(value)
}

// writeTriangleTimerHigh writes $400B.
func (apu *APU) writeTriangleTimerHigh(value uint8) {
	apu.triangle.timer = (apu.triangle.timer & 0x00FF) | (uint16(value&0x07) << 8)
	apu.triangle.lengthCounter = lengthTable[(value>>3)&0x1F]
	apu.triangle.linearCounterReload = true
}

func (apu *APU) stepTriangleTimer(triangle *TriangleChannel) {
	if triangle.timerCounter == 0 {
		triangle.timerCounter = triangle.timer
		if triangle.lengthCounter > 0 && triangle.linearCounter > 0 {
			triangle.sequencerPos = (triangle.sequencerPos + 1) & 0x1F
		}
	} else {
		triangle.timerCounter--
	}
}

func (apu *APU) clockTriangleLinear(triangle *TriangleChannel) {
	if triangle.linearCounterReload {
		triangle.linearCounter = triangle.linearCounterLoad
	} else if triangle.linearCounter > 0 {
		triangle.linearCounter--
	}
	if !triangle.lengthCounterHalt {
		triangle.linearCounterReload = false
	}
}

func (apu *APU) clockTriangleLength(triangle *TriangleChannel) {
	if !triangle.lengthCounterHalt && triangle.lengthCounter > 0 {
		triangle.lengthCounter--
	}
}

// clockNoiseLength decrements the noise channel's length counter unless it
// is halted by the envelope-loop/length-halt flag.
func (apu *APU) clockNoiseLength(noise *NoiseChannel) {
	if !noise.loop && noise.lengthCounter > 0 {
		noise.lengthCounter--
	}
}

// getTriangleOutput returns the triangle channel's current output, which has
// no volume control: it is either silent or the raw waveform amplitude.
func (apu *APU) getTriangleOutput(triangle *TriangleChannel) uint8 {
	if triangle.lengthCounter == 0 || triangle.linearCounter == 0 || triangle.timer < 2 {
		return 0
	}
	return triangleTable[triangle.sequencerPos]
}

// writeNoiseControl writes $400C.
func (apu *APU) writeNoiseControl(value uint8) {
	apu.noise.loop = (value & 0x20) != 0
	apu.noise.disable = (value & 0x10) != 0
	apu.noise.volume = value & 0x0F
	apu.noise.start = true
}

// writeNoisePeriod writes $400E.
func (apu *APU) writeNoisePeriod(value uint8) {
	apu.noise.mode = (value & 0x80) != 0
	apu.noise.periodIndex = value & 0x0F
}

// writeNoiseLength writes $400F.
func (apu *APU) writeNoiseLength(value uint8) {
	apu.noise.lengthCounter = lengthTable[(value>>3)&0x1F]
	apu.noise.start = true
}

func (apu *APU) stepNoiseTimer(noise *NoiseChannel) {
	if noise.timerCounter != 0 {
		noise.timerCounter--
		return
	}
	noise.timerCounter = noisePeriodTable[noise.periodIndex]

	feedback := noise.shiftRegister & 0x01
	if noise.mode {
		feedback ^= (noise.shiftRegister >> 6) & 0x01
	} else {
		feedback ^= (noise.shiftRegister >> 1) & 0x01
	}
	noise.shiftRegister = (noise.shiftRegister >> 1) | (feedback << 14)
}

// getNoiseOutput returns the noise channel's current output; bit 0 of the
// LFSR being set silences the channel regardless of volume.
func (apu *APU) getNoiseOutput(noise *NoiseChannel) uint8 {
	if noise.lengthCounter == 0 || (noise.shiftRegister&0x01) != 0 {
		return 0
	}
	return noise.envelope.output()
}

// writeDMCControl writes $4010.
func (apu *APU) writeDMCControl(value uint8) {
	apu.dmc.irqEnable = (value & 0x80) != 0
	apu.dmc.loop = (value & 0x40) != 0
	apu.dmc.rateIndex = value & 0x0F
	if !apu.dmc.irqEnable {
		apu.dmc.irqFlag = false
	}
}

// writeDMCDirectLoad writes $4011.
func (apu *APU) writeDMCDirectLoad(value uint8) {
	apu.dmc.outputLevel = value & 0x7F
}

// writeDMCSampleAddress writes $4012.
func (apu *APU) writeDMCSampleAddress(value uint8) {
	apu.dmc.sampleAddress = 0xC000 + (uint16(value) << 6)
}

// writeDMCSampleLength writes $4013.
func (apu *APU) writeDMCSampleLength(value uint8) {
	apu.dmc.sampleLength = (uint16(value) << 4) + 1
}

func (apu *APU) stepDMCTimer(dmc *DMCChannel) {
	if dmc.timerCounter != 0 {
		dmc.timerCounter--
		return
	}
	dmc.timerCounter = dmcRateTable[dmc.rateIndex]

	if dmc.sampleBufferEmpty {
		return
	}

	if dmc.sampleBufferBits == 0 {
		dmc.sampleBufferEmpty = true
		if dmc.bytesRemaining == 0 {
			return
		}
		// TODO: read the sample byte from CPU memory via the cartridge
		// mapper instead of this placeholder once DMA-driven sample
		// fetch is wired through the bus.
		dmc.sampleBuffer = 0
		dmc.sampleBufferBits = 8
		dmc.sampleBufferEmpty = false
		dmc.bytesRemaining--
		dmc.currentAddress++

		if dmc.bytesRemaining == 0 {
			if dmc.loop {
				dmc.currentAddress = dmc.sampleAddress
				dmc.bytesRemaining = dmc.sampleLength
			} else if dmc.irqEnable {
				dmc.irqFlag = true
			}
		}
		return
	}

	if dmc.sampleBuffer&0x01 != 0 {
		if dmc.outputLevel <= 125 {
			dmc.outputLevel += 2
		}
	} else if dmc.outputLevel >= 2 {
		dmc.outputLevel -= 2
	}
	dmc.sampleBuffer >>= 1
	dmc.sampleBufferBits--
}

func (apu *APU) getDMCOutput(dmc *DMCChannel) uint8 {
	return dmc.outputLevel
}

// channelLengthCounters exposes the four length-gated channels' counters by
// channelEnable index, for writeChannelEnable's disable sweep; the DMC uses
// bytesRemaining instead and is handled separately.
func (apu *APU) channelLengthCounters() [4]*uint8 {
	return [4]*uint8{
		&apu.pulse1.lengthCounter,
		&apu.pulse2.lengthCounter,
		&apu.triangle.lengthCounter,
		&apu.noise.lengthCounter,
	}
}

// writeChannelEnable writes $4015: selects which channels run, silencing any
// channel just disabled and restarting DMC playback if it was off.
func (apu *APU) writeChannelEnable(value uint8) {
	for i := range apu.channelEnable {
		apu.channelEnable[i] = value&(1<<uint(i)) != 0
	}

	for i, counter := range apu.channelLengthCounters() {
		if !apu.channelEnable[i] {
			*counter = 0
		}
	}

	if !apu.channelEnable[4] {
		apu.dmc.bytesRemaining = 0
	} else if apu.dmc.bytesRemaining == 0 {
		apu.dmc.currentAddress = apu.dmc.sampleAddress
		apu.dmc.bytesRemaining = apu.dmc.sampleLength
	}

	apu.dmc.irqFlag = false
}

// writeFrameCounter writes $4017, selecting the frame sequencer mode and
// immediately clocking all units if 5-step mode is selected.
func (apu *APU) writeFrameCounter(value uint8) {
	apu.frameMode = (value & 0x80) != 0
	apu.frameIRQEnable = (value & 0x40) == 0
	if !apu.frameIRQEnable {
		apu.frameIRQFlag = false
	}

	apu.frameCounter = 0
	apu.frameCounterStep = 0

	if apu.frameMode {
		apu.clockEnvelopeAndLinear()
		apu.clockLengthAndSweep()
	}
}

// pulseTable and tndTable are precomputed non-linear mixer lookup tables,
// indexed directly by channel output sums rather than recomputed per sample.
var pulseTable [31]float64
var tndTable [203]float64

func init() {
	for n := range pulseTable {
		if n == 0 {
			continue
		}
		pulseTable[n] = 95.52 / (8128.0/float64(n) + 100.0)
	}
	for n := range tndTable {
		if n == 0 {
			continue
		}
		tndTable[n] = 163.67 / (24329.0/float64(n) + 100.0)
	}
}

// mixChannels applies the NES audio mixer's non-linear lookup tables,
// producing output in [0, 1].
func (apu *APU) mixChannels(pulse1, pulse2, triangle, noise, dmc uint8) float32 {
	pulseOut := pulseTable[pulse1+pulse2]
	tndOut := tndTable[3*triangle+2*noise+dmc]
	return float32(pulseOut + tndOut)
}

// GetFrameIRQ returns the current frame counter IRQ flag.
func (apu *APU) GetFrameIRQ() bool {
	return apu.frameIRQFlag
}

// GetDMCIRQ returns the current DMC IRQ flag.
func (apu *APU) GetDMCIRQ() bool {
	return apu.dmc.irqFlag
}

// SetSampleRate sets the target audio sample rate.
func (apu *APU) SetSampleRate(rate int) {
	apu.sampleRate = rate
	apu.cycleAccumulator = 0
}

// GetSampleRate returns the current sample rate.
func (apu *APU) GetSampleRate() int {
	return apu.sampleRate
}

// GetChannelOutput returns a single channel's current output level, useful
// for a per-channel audio visualizer.
func (apu *APU) GetChannelOutput(channel int) uint8 {
	if !apu.channelEnable[channel] {
		return 0
	}
	switch channel {
	case 0:
		return apu.getPulseOutput(&apu.pulse1)
	case 1:
		return apu.getPulseOutput(&apu.pulse2)
	case 2:
		return apu.getTriangleOutput(&apu.triangle)
	case 3:
		return apu.getNoiseOutput(&apu.noise)
	case 4:
		return apu.getDMCOutput(&apu.dmc)
	default:
		return 0
	}
}

// IsChannelEnabled returns whether a channel is enabled.
func (apu *APU) IsChannelEnabled(channel int) bool {
	if channel < 0 || channel >= len(apu.channelEnable) {
		return false
	}
	return apu.channelEnable[channel]
}

// State is a serializable snapshot of the APU's channel state machines and
// frame counter. The sample output queue is runtime-only and not included.
type State struct {
	Pulse1, Pulse2 PulseChannel
	Triangle       TriangleChannel
	Noise          NoiseChannel
	DMC            DMCChannel

	FrameCounter     uint16
	FrameMode        bool
	FrameIRQEnable   bool
	FrameCounterStep uint8
	FrameIRQFlag     bool

	ChannelEnable [5]bool
	Cycles        uint64
}

// GetState returns a snapshot of the APU's architectural state.
func (apu *APU) GetState() State {
	return State{
		Pulse1: apu.pulse1, Pulse2: apu.pulse2,
		Triangle: apu.triangle, Noise: apu.noise, DMC: apu.dmc,
		FrameCounter: apu.frameCounter, FrameMode: apu.frameMode,
		FrameIRQEnable: apu.frameIRQEnable, FrameCounterStep: apu.frameCounterStep,
		FrameIRQFlag:  apu.frameIRQFlag,
		ChannelEnable: apu.channelEnable,
		Cycles:        apu.cycles,
	}
}

// SetState restores the APU's architectural state from a snapshot previously
// returned by GetState. The sample output queue and sample-rate conversion
// accumulator are left untouched.
func (apu *APU) SetState(s State) {
	apu.pulse1, apu.pulse2 = s.Pulse1, s.Pulse2
	apu.triangle, apu.noise, apu.dmc = s.Triangle, s.Noise, s.DMC
	apu.frameCounter, apu.frameMode = s.FrameCounter, s.FrameMode
	apu.frameIRQEnable, apu.frameCounterStep = s.FrameIRQEnable, s.FrameCounterStep
	apu.frameIRQFlag = s.FrameIRQFlag
	apu.channelEnable = s.ChannelEnable
	apu.cycles = s.Cycles
}
