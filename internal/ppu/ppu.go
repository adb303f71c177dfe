// Package ppu implements the Picture Processing Unit for the NES.
package ppu

import (
	"fmt"

	"gones/internal/memory"
)

// PPU represents the NES Picture Processing Unit (2C02)
type PPU struct {
	// PPU Registers (CPU-visible)
	ppuCtrl   uint8 // $2000 - PPUCTRL
	ppuMask   uint8 // $2001 - PPUMASK
	ppuStatus uint8 // $2002 - PPUSTATUS
	oamAddr   uint8 // $2003 - OAMADDR

	// Internal "loopy" PPU state
	v uint16 // Current VRAM address (15 bits)
	t uint16 // Temporary VRAM address (15 bits) - address latch
	x uint8  // Fine X scroll (3 bits)
	w bool   // Write latch (toggles between first/second write)

	// PPU Memory
	memory *memory.PPUMemory

	// Rendering State
	scanline    int // Current scanline (-1 to 260)
	cycle       int // Current cycle (0 to 340)
	frameCount  uint64
	oddFrame    bool
	readBuffer  uint8 // PPU read buffer for $2007

	// Background fetch latches, filled at dot phases 1/3/5/7 of each 8-dot
	// window and reloaded into the shifters at phase 0.
	nextTileID   uint8
	nextTileAttr uint8
	nextTileLSB  uint8
	nextTileMSB  uint8

	// Background shift registers: two 16-bit pattern-bit shifters and two
	// 16-bit palette-bit shifters (the palette bits are broadcast across all
	// 8 bits of a tile, so the low byte always holds a single repeated bit).
	bgShiftPatternLo uint16
	bgShiftPatternHi uint16
	bgShiftAttrLo    uint16
	bgShiftAttrHi    uint16

	// Sprite Data
	oam               [256]uint8 // Object Attribute Memory
	secondaryOAM      [32]uint8  // Secondary OAM for current scanline
	spriteIndexes     [8]uint8   // Original OAM sprite index per secondary OAM slot
	spriteCount       uint8      // Number of sprites on current scanline
	sprite0OnScanline bool
	sprite0Hit        bool // Sprite 0 hit flag
	spriteOverflow    bool // Sprite overflow flag

	// Per-sprite shifters, loaded once per scanline at dot 340 from the
	// secondary OAM collected at dot 257.
	spritePatternLo [8]uint8
	spritePatternHi [8]uint8
	spriteAttr      [8]uint8
	spriteX         [8]uint8
	spriteIsZero    [8]bool

	// Frame Buffer
	frameBuffer [256 * 240]uint32 // RGB frame buffer

	// Callbacks
	nmiCallback           func()
	frameCompleteCallback func()

	// Rendering Control (derived from PPUMASK)
	backgroundEnabled bool
	spritesEnabled    bool
	renderingEnabled  bool
	clipBackgroundLeft bool
	clipSpriteLeft     bool

	// Timing
	cycleCount uint64
}

// New creates a new PPU instance
func New() *PPU {
	return &PPU{
		scanline: -1, // Start at pre-render scanline
		cycle:    0,
	}
}

// Reset resets the PPU to initial state
func (p *PPU) Reset() {
	p.ppuCtrl = 0
	p.ppuMask = 0
	p.ppuStatus = 0xA0 // VBL flag set, sprite overflow and sprite 0 hit clear
	p.oamAddr = 0

	p.v = 0
	p.t = 0
	p.x = 0
	p.w = false

	p.scanline = -1
	p.cycle = 0
	p.frameCount = 0
	p.oddFrame = false
	p.readBuffer = 0

	p.nextTileID, p.nextTileAttr, p.nextTileLSB, p.nextTileMSB = 0, 0, 0, 0
	p.bgShiftPatternLo, p.bgShiftPatternHi = 0, 0
	p.bgShiftAttrLo, p.bgShiftAttrHi = 0, 0

	p.spriteCount = 0
	p.sprite0Hit = false
	p.spriteOverflow = false
	p.sprite0OnScanline = false

	p.backgroundEnabled = false
	p.spritesEnabled = false
	p.renderingEnabled = false

	p.cycleCount = 0

	for i := range p.oam {
		p.oam[i] = 0
	}
	for i := range p.frameBuffer {
		p.frameBuffer[i] = 0x000000
	}
}

// SetMemory sets the PPU memory interface
func (p *PPU) SetMemory(memory *memory.PPUMemory) {
	p.memory = memory
}

// GetMemoryState returns a snapshot of VRAM and palette RAM, or the zero
// State if no memory has been attached yet.
func (p *PPU) GetMemoryState() memory.State {
	if p.memory == nil {
		return memory.State{}
	}
	return p.memory.GetState()
}

// SetMemoryState restores VRAM and palette RAM from a snapshot.
func (p *PPU) SetMemoryState(s memory.State) {
	if p.memory != nil {
		p.memory.SetState(s)
	}
}

// SetNMICallback sets the NMI callback function
func (p *PPU) SetNMICallback(callback func()) {
	p.nmiCallback = callback
}

// SetFrameCompleteCallback sets the frame complete callback
func (p *PPU) SetFrameCompleteCallback(callback func()) {
	p.frameCompleteCallback = callback
}

// ReadRegister reads from a PPU register (CPU $2000-$2007)
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address {
	case 0x2002: // PPUSTATUS
		status := p.ppuStatus
		p.ppuStatus &= 0x7F // Clear VBL flag (bit 7)
		p.w = false         // Clear write latch
		return status
	case 0x2004: // OAMDATA
		return p.oam[p.oamAddr]
	case 0x2007: // PPUDATA
		return p.readPPUData()
	default: // $2000/$2001/$2003/$2005/$2006 are write-only
		return p.ppuStatus & 0x1F
	}
}

// WriteRegister writes to a PPU register (CPU $2000-$2007)
func (p *PPU) WriteRegister(address uint16, value uint8) {
	switch address {
	case 0x2000: // PPUCTRL
		p.ppuCtrl = value
		p.t = (p.t & 0xF3FF) | ((uint16(value) & 0x03) << 10) // Nametable select
		p.updateRenderingFlags()
		p.checkNMI()
	case 0x2001: // PPUMASK
		p.ppuMask = value
		p.updateRenderingFlags()
	case 0x2002: // PPUSTATUS - read only, writes ignored
	case 0x2003: // OAMADDR
		p.oamAddr = value
	case 0x2004: // OAMDATA
		p.oam[p.oamAddr] = value
		p.oamAddr++ // Auto-increment
	case 0x2005: // PPUSCROLL
		p.writePPUScroll(value)
	case 0x2006: // PPUADDR
		p.writePPUAddr(value)
	case 0x2007: // PPUDATA
		p.writePPUData(value)
	}
}

// WriteOAM writes to OAM at the specified address (for DMA)
func (p *PPU) WriteOAM(address uint8, value uint8) {
	p.oam[address] = value
}

// OAMDMAWrite performs one OAMDATA-style write as driven by the OAM DMA
// state machine: stores at the current OAMADDR and auto-increments it,
// matching the hardware behavior of writes arriving through $2004 during DMA.
func (p *PPU) OAMDMAWrite(value uint8) {
	p.oam[p.oamAddr] = value
	p.oamAddr++
}

// Step advances the PPU by exactly one dot.
func (p *PPU) Step() {
	p.cycleCount++

	if p.scanline >= -1 && p.scanline < 240 {
		p.renderCycle()
	}

	p.cycle++
	if p.cycle > 340 {
		p.cycle = 0
		p.scanline++
		if p.scanline > 260 {
			p.scanline = -1
			p.frameCount++
			p.oddFrame = !p.oddFrame
			if p.frameCompleteCallback != nil {
				p.frameCompleteCallback()
			}
		}
	}

	if p.scanline == 241 && p.cycle == 1 {
		p.ppuStatus |= 0x80 // Set VBlank
		if p.ppuCtrl&0x80 != 0 && p.nmiCallback != nil {
			p.nmiCallback()
		}
	}

	if p.scanline == -1 && p.cycle == 1 {
		p.ppuStatus &= 0x1F // Clear VBlank, sprite-0-hit, sprite overflow
		p.sprite0Hit = false
		p.spriteOverflow = false
	}
}

// renderCycle implements the background fetch/shift pipeline and sprite
// evaluation/fetch state machines for the pre-render and visible scanlines.
func (p *PPU) renderCycle() {
	if p.renderingEnabled {
		if (p.cycle >= 1 && p.cycle <= 256) || (p.cycle >= 321 && p.cycle <= 336) {
			p.shiftBgShifters()

			switch (p.cycle - 1) % 8 {
			case 0:
				p.reloadBgShifters()
				p.nextTileID = p.memory.Read(0x2000 | (p.v & 0x0FFF))
			case 2:
				attrAddr := 0x23C0 | (p.v & 0x0C00) | ((p.v >> 4) & 0x38) | ((p.v >> 2) & 0x07)
				attr := p.memory.Read(attrAddr)
				if (p.v>>4)&1 != 0 {
					attr >>= 4
				}
				if (p.v>>1)&1 != 0 {
					attr >>= 2
				}
				p.nextTileAttr = attr & 0x03
			case 4:
				table := uint16(0)
				if p.ppuCtrl&0x10 != 0 {
					table = 0x1000
				}
				fineY := (p.v >> 12) & 0x07
				p.nextTileLSB = p.memory.Read(table + uint16(p.nextTileID)*16 + fineY)
			case 6:
				table := uint16(0)
				if p.ppuCtrl&0x10 != 0 {
					table = 0x1000
				}
				fineY := (p.v >> 12) & 0x07
				p.nextTileMSB = p.memory.Read(table + uint16(p.nextTileID)*16 + 8 + fineY)
			case 7:
				p.incrementX()
			}
		}

		if p.cycle == 256 {
			p.incrementY()
		}
		if p.cycle == 257 {
			p.copyX()
			if p.scanline >= 0 {
				p.evaluateSprites()
			}
		}
		if p.scanline == -1 && p.cycle >= 280 && p.cycle <= 304 {
			p.copyY()
		}
		if p.cycle == 340 && p.scanline >= 0 {
			p.loadSpriteShifters()
		}
	}

	if p.scanline >= 0 && p.scanline < 240 && p.cycle >= 1 && p.cycle <= 256 {
		p.outputPixel(p.cycle - 1)
	}
}

// reloadBgShifters loads the low byte of each background shifter from the
// latches filled by the previous 8-dot fetch window.
func (p *PPU) reloadBgShifters() {
	p.bgShiftPatternLo = (p.bgShiftPatternLo & 0xFF00) | uint16(p.nextTileLSB)
	p.bgShiftPatternHi = (p.bgShiftPatternHi & 0xFF00) | uint16(p.nextTileMSB)

	var attrLo, attrHi uint16
	if p.nextTileAttr&0x01 != 0 {
		attrLo = 0xFF
	}
	if p.nextTileAttr&0x02 != 0 {
		attrHi = 0xFF
	}
	p.bgShiftAttrLo = (p.bgShiftAttrLo & 0xFF00) | attrLo
	p.bgShiftAttrHi = (p.bgShiftAttrHi & 0xFF00) | attrHi
}

func (p *PPU) shiftBgShifters() {
	p.bgShiftPatternLo <<= 1
	p.bgShiftPatternHi <<= 1
	p.bgShiftAttrLo <<= 1
	p.bgShiftAttrHi <<= 1
}

// evaluateSprites scans OAM for sprites intersecting the NEXT scanline
// (run at dot 257, per hardware) and fills secondary OAM with at most 8.
func (p *PPU) evaluateSprites() {
	p.spriteCount = 0
	p.spriteOverflow = false
	p.sprite0OnScanline = false

	for i := range p.secondaryOAM {
		p.secondaryOAM[i] = 0xFF
	}
	for i := range p.spriteIndexes {
		p.spriteIndexes[i] = 0xFF
	}

	spriteHeight := 8
	if p.ppuCtrl&0x20 != 0 {
		spriteHeight = 16
	}
	targetScanline := p.scanline + 1

	found := 0
	for spriteIndex := 0; spriteIndex < 64; spriteIndex++ {
		oamIndex := spriteIndex * 4
		sY := int(p.oam[oamIndex])

		if targetScanline >= sY+1 && targetScanline < sY+1+spriteHeight {
			if found < 8 {
				dst := found * 4
				copy(p.secondaryOAM[dst:dst+4], p.oam[oamIndex:oamIndex+4])
				p.spriteIndexes[found] = uint8(spriteIndex)
				if spriteIndex == 0 {
					p.sprite0OnScanline = true
				}
				found++
			} else {
				p.spriteOverflow = true
				p.ppuStatus |= 0x20
				break
			}
		}
	}
	p.spriteCount = uint8(found)
}

// loadSpriteShifters fetches pattern bytes for each sprite found during
// evaluation and loads their 8-bit shifters, applying flip flags.
func (p *PPU) loadSpriteShifters() {
	spriteHeight := 8
	if p.ppuCtrl&0x20 != 0 {
		spriteHeight = 16
	}

	for i := 0; i < int(p.spriteCount); i++ {
		base := i * 4
		sY := int(p.secondaryOAM[base])
		tile := p.secondaryOAM[base+1]
		attr := p.secondaryOAM[base+2]
		sX := p.secondaryOAM[base+3]

		row := p.scanline + 1 - (sY + 1)
		flipV := attr&0x80 != 0
		flipH := attr&0x40 != 0
		if flipV {
			row = spriteHeight - 1 - row
		}

		var patternAddr uint16
		if spriteHeight == 16 {
			table := uint16(tile&0x01) * 0x1000
			topTile := uint16(tile & 0xFE)
			half := uint16(0)
			if row >= 8 {
				half = 1
				row -= 8
			}
			patternAddr = table + (topTile+half)*16 + uint16(row)
		} else {
			table := uint16(0)
			if p.ppuCtrl&0x08 != 0 {
				table = 0x1000
			}
			patternAddr = table + uint16(tile)*16 + uint16(row)
		}

		lo := p.memory.Read(patternAddr)
		hi := p.memory.Read(patternAddr + 8)
		if flipH {
			lo = reverseBits(lo)
			hi = reverseBits(hi)
		}

		p.spritePatternLo[i] = lo
		p.spritePatternHi[i] = hi
		p.spriteAttr[i] = attr
		p.spriteX[i] = sX
		p.spriteIsZero[i] = p.spriteIndexes[i] == 0
	}
	for i := int(p.spriteCount); i < 8; i++ {
		p.spritePatternLo[i] = 0
		p.spritePatternHi[i] = 0
		p.spriteIsZero[i] = false
	}
}

func reverseBits(b uint8) uint8 {
	var r uint8
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= b & 1
		b >>= 1
	}
	return r
}

// outputPixel composes the background and sprite shifters at dot x (0-255)
// of the current scanline into one frame-buffer pixel.
func (p *PPU) outputPixel(x int) {
	if p.memory == nil {
		return
	}

	bgColor, bgPalette := p.backgroundPixelAt(x)
	spColor, spPalette, spPriority, spIsZero := p.spritePixelAt(x)

	bgOpaque := p.backgroundEnabled && bgColor != 0
	spOpaque := p.spritesEnabled && spColor != 0

	if bgOpaque && spOpaque && spIsZero && x != 255 {
		p.sprite0Hit = true
		p.ppuStatus |= 0x40
	}

	var paletteAddr uint16
	switch {
	case !bgOpaque && !spOpaque:
		paletteAddr = 0x3F00
	case !spOpaque || (bgOpaque && spPriority):
		paletteAddr = 0x3F00 + uint16(bgPalette)*4 + uint16(bgColor)
	default:
		paletteAddr = 0x3F10 + uint16(spPalette)*4 + uint16(spColor)
	}
	if !bgOpaque && spOpaque {
		paletteAddr = 0x3F10 + uint16(spPalette)*4 + uint16(spColor)
	}

	colorIndex := p.memory.Read(paletteAddr)
	p.frameBuffer[p.scanline*256+x] = p.NESColorToRGB(colorIndex)
}

func (p *PPU) backgroundPixelAt(x int) (uint8, uint8) {
	if !p.backgroundEnabled || (x < 8 && p.clipBackgroundLeft) {
		return 0, 0
	}
	shift := uint(15 - p.x)
	lo := uint8((p.bgShiftPatternLo >> shift) & 1)
	hi := uint8((p.bgShiftPatternHi >> shift) & 1)
	palLo := uint8((p.bgShiftAttrLo >> shift) & 1)
	palHi := uint8((p.bgShiftAttrHi >> shift) & 1)
	return (hi << 1) | lo, (palHi << 1) | palLo
}

func (p *PPU) spritePixelAt(x int) (color, palette uint8, priority, isZero bool) {
	if !p.spritesEnabled || (x < 8 && p.clipSpriteLeft) {
		return 0, 0, false, false
	}
	for i := 0; i < int(p.spriteCount); i++ {
		offset := x - int(p.spriteX[i])
		if offset < 0 || offset > 7 {
			continue
		}
		bit := uint(7 - offset)
		lo := (p.spritePatternLo[i] >> bit) & 1
		hi := (p.spritePatternHi[i] >> bit) & 1
		c := (hi << 1) | lo
		if c == 0 {
			continue // transparent pixel, lower-index sprites keep priority
		}
		return c, p.spriteAttr[i] & 0x03, p.spriteAttr[i]&0x20 != 0, p.spriteIsZero[i]
	}
	return 0, 0, false, false
}

// updateRenderingFlags updates internal rendering state based on PPUMASK
func (p *PPU) updateRenderingFlags() {
	p.backgroundEnabled = (p.ppuMask & 0x08) != 0
	p.spritesEnabled = (p.ppuMask & 0x10) != 0
	p.renderingEnabled = p.backgroundEnabled || p.spritesEnabled
	p.clipBackgroundLeft = (p.ppuMask & 0x02) == 0
	p.clipSpriteLeft = (p.ppuMask & 0x04) == 0
}

// checkNMI checks if an NMI should be triggered
func (p *PPU) checkNMI() {
	if (p.ppuCtrl&0x80 != 0) && (p.ppuStatus&0x80 != 0) && p.nmiCallback != nil {
		p.nmiCallback()
	}
}

// writePPUScroll handles writes to PPUSCROLL ($2005)
func (p *PPU) writePPUScroll(value uint8) {
	if !p.w {
		p.t = (p.t & 0xFFE0) | (uint16(value) >> 3)
		p.x = value & 0x07
		p.w = true
	} else {
		p.t = (p.t & 0x8FFF) | ((uint16(value) & 0x07) << 12)
		p.t = (p.t & 0xFC1F) | ((uint16(value) & 0xF8) << 2)
		p.w = false
	}
}

// writePPUAddr handles writes to PPUADDR ($2006)
func (p *PPU) writePPUAddr(value uint8) {
	if !p.w {
		p.t = (p.t & 0x80FF) | ((uint16(value) & 0x3F) << 8)
		p.w = true
	} else {
		p.t = (p.t & 0xFF00) | uint16(value)
		p.v = p.t
		p.w = false
	}
}

// readPPUData handles reads from PPUDATA ($2007)
func (p *PPU) readPPUData() uint8 {
	var data uint8
	if p.memory == nil {
		data = 0
	} else if p.v >= 0x3F00 {
		data = p.memory.Read(p.v)
		p.readBuffer = p.memory.Read(p.v & 0x2FFF)
	} else {
		data = p.readBuffer
		p.readBuffer = p.memory.Read(p.v)
	}

	if p.ppuCtrl&0x04 != 0 {
		p.v += 32
	} else {
		p.v += 1
	}
	p.v &= 0x3FFF

	return data
}

// writePPUData handles writes to PPUDATA ($2007)
func (p *PPU) writePPUData(value uint8) {
	if p.memory != nil {
		p.memory.Write(p.v, value)
	}

	if p.ppuCtrl&0x04 != 0 {
		p.v += 32
	} else {
		p.v += 1
	}
	p.v &= 0x3FFF
}

// GetFrameBuffer returns the current frame buffer
func (p *PPU) GetFrameBuffer() [256 * 240]uint32 {
	return p.frameBuffer
}

// GetFrameCount returns the current frame count
func (p *PPU) GetFrameCount() uint64 {
	return p.frameCount
}

// SetFrameCount sets the frame count (for synchronization)
func (p *PPU) SetFrameCount(count uint64) {
	p.frameCount = count
}

// GetScanline returns the current scanline
func (p *PPU) GetScanline() int {
	return p.scanline
}

// GetCycle returns the current cycle
func (p *PPU) GetCycle() int {
	return p.cycle
}

// IsRenderingEnabled returns true if rendering is enabled
func (p *PPU) IsRenderingEnabled() bool {
	return p.renderingEnabled
}

// IsVBlank returns true if currently in vertical blank
func (p *PPU) IsVBlank() bool {
	return (p.ppuStatus & 0x80) != 0
}

// GetCycleCount returns the total PPU cycle count
func (p *PPU) GetCycleCount() uint64 {
	return p.cycleCount
}

// NES 2C02 Color Palette (NTSC)
var nesColorPalette = [64]uint32{
	// Row 0 (0x00-0x0F)
	0xFF666666, 0xFF002A88, 0xFF1412A7, 0xFF3B00A4, 0xFF5C007E, 0xFF6E0040, 0xFF6C0600, 0xFF561D00,
	0xFF333500, 0xFF0B4800, 0xFF005200, 0xFF004F08, 0xFF00404D, 0xFF000000, 0xFF000000, 0xFF000000,
	// Row 1 (0x10-0x1F)
	0xFFADADAD, 0xFF155FD9, 0xFF4240FF, 0xFF7527FE, 0xFFA01ACC, 0xFFB71E7B, 0xFFB53120, 0xFF994E00,
	0xFF6B6D00, 0xFF388700, 0xFF0C9300, 0xFF008F32, 0xFF007C8D, 0xFF000000, 0xFF000000, 0xFF000000,
	// Row 2 (0x20-0x2F)
	0xFFFFFEFF, 0xFF64B0FF, 0xFF9290FF, 0xFFC676FF, 0xFFF36AFF, 0xFFFE6ECC, 0xFFFE8170, 0xFFEA9E22,
	0xFFBCBE00, 0xFF88D800, 0xFF5CE430, 0xFF45E082, 0xFF48CDDE, 0xFF4F4F4F, 0xFF000000, 0xFF000000,
	// Row 3 (0x30-0x3F)
	0xFFFFFEFF, 0xFFC0DFFF, 0xFFD3D2FF, 0xFFE8C8FF, 0xFFFBC2FF, 0xFFFEC4EA, 0xFFFECCC5, 0xFFF7D8A5,
	0xFFE4E594, 0xFFCFF29B, 0xFFBEFBB3, 0xFFB8F8D8, 0xFFB8F8F8, 0xFF000000, 0xFF000000, 0xFF000000,
}

// NESColorToRGB converts a NES color index to RGB value
func NESColorToRGB(colorIndex uint8) uint32 {
	if colorIndex >= 64 {
		return 0x000000
	}
	return nesColorPalette[colorIndex] & 0x00FFFFFF
}

// NESColorToRGB converts a NES color index to RGB value (PPU method)
func (p *PPU) NESColorToRGB(colorIndex uint8) uint32 {
	return NESColorToRGB(colorIndex)
}

// ClearFrameBuffer clears the frame buffer to a specific color
func (p *PPU) ClearFrameBuffer(color uint32) {
	for i := range p.frameBuffer {
		p.frameBuffer[i] = color
	}
}

// Scroll helper methods for VRAM address manipulation ("loopy" algebra)

func (p *PPU) getCoarseX() int { return int(p.v & 0x001F) }
func (p *PPU) getCoarseY() int { return int((p.v >> 5) & 0x001F) }
func (p *PPU) getFineY() int   { return int((p.v >> 12) & 0x0007) }
func (p *PPU) getNametable() int { return int((p.v >> 10) & 0x0003) }

// incrementX increments the coarse X and wraps to next nametable if needed
func (p *PPU) incrementX() {
	if (p.v & 0x001F) == 31 {
		p.v &= ^uint16(0x001F)
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

// incrementY increments fine Y, and if it overflows, increments coarse Y
func (p *PPU) incrementY() {
	if (p.v & 0x7000) != 0x7000 {
		p.v += 0x1000
	} else {
		p.v &= ^uint16(0x7000)
		y := (p.v & 0x03E0) >> 5
		if y == 29 {
			y = 0
			p.v ^= 0x0800
		} else if y == 31 {
			y = 0
		} else {
			y++
		}
		p.v = (p.v & ^uint16(0x03E0)) | (y << 5)
	}
}

// copyX copies the horizontal scroll bits (coarse X, nametable X) from t to v.
func (p *PPU) copyX() {
	p.v = (p.v & 0xFBE0) | (p.t & 0x041F)
}

// copyY copies the vertical scroll bits (fine Y, coarse Y, nametable Y) from t to v.
func (p *PPU) copyY() {
	p.v = (p.v & 0x841F) | (p.t & 0x7BE0)
}

// debugDumpTile prints an ASCII visualization of a pattern-table tile; kept
// for manual inspection when chasing tile-fetch bugs, never called by the
// emulation core itself.
func (p *PPU) debugDumpTile(tileIndex uint8, table uint16) {
	if p.memory == nil {
		return
	}
	base := table + uint16(tileIndex)*16
	for row := 0; row < 8; row++ {
		lo := p.memory.Read(base + uint16(row))
		hi := p.memory.Read(base + 8 + uint16(row))
		line := ""
		for bit := 7; bit >= 0; bit-- {
			c := ((hi >> bit) & 1 << 1) | ((lo >> bit) & 1)
			if c == 0 {
				line += "."
			} else {
				line += fmt.Sprintf("%d", c)
			}
		}
		fmt.Println(line)
	}
}

// State is a serializable snapshot of the PPU's own registers and rendering
// pipeline (not its addressable memory, which is snapshotted separately via
// memory.PPUMemory.GetState).
type State struct {
	PPUCtrl, PPUMask, PPUStatus, OAMAddr uint8
	V, T                                 uint16
	X                                    uint8
	W                                    bool

	Scanline, Cycle int
	FrameCount      uint64
	OddFrame        bool
	ReadBuffer      uint8

	NextTileID, NextTileAttr, NextTileLSB, NextTileMSB uint8
	BGShiftPatternLo, BGShiftPatternHi                 uint16
	BGShiftAttrLo, BGShiftAttrHi                        uint16

	OAM               [256]uint8
	SecondaryOAM      [32]uint8
	SpriteIndexes     [8]uint8
	SpriteCount       uint8
	Sprite0OnScanline bool
	Sprite0Hit        bool
	SpriteOverflow    bool

	SpritePatternLo [8]uint8
	SpritePatternHi [8]uint8
	SpriteAttr      [8]uint8
	SpriteX         [8]uint8
	SpriteIsZero    [8]bool

	FrameBuffer [256 * 240]uint32

	CycleCount uint64
}

// GetState returns a snapshot of the PPU's registers and rendering pipeline.
func (p *PPU) GetState() State {
	return State{
		PPUCtrl: p.ppuCtrl, PPUMask: p.ppuMask, PPUStatus: p.ppuStatus, OAMAddr: p.oamAddr,
		V: p.v, T: p.t, X: p.x, W: p.w,
		Scanline: p.scanline, Cycle: p.cycle, FrameCount: p.frameCount, OddFrame: p.oddFrame,
		ReadBuffer: p.readBuffer,
		NextTileID: p.nextTileID, NextTileAttr: p.nextTileAttr, NextTileLSB: p.nextTileLSB, NextTileMSB: p.nextTileMSB,
		BGShiftPatternLo: p.bgShiftPatternLo, BGShiftPatternHi: p.bgShiftPatternHi,
		BGShiftAttrLo: p.bgShiftAttrLo, BGShiftAttrHi: p.bgShiftAttrHi,
		OAM: p.oam, SecondaryOAM: p.secondaryOAM, SpriteIndexes: p.spriteIndexes,
		SpriteCount: p.spriteCount, Sprite0OnScanline: p.sprite0OnScanline,
		Sprite0Hit: p.sprite0Hit, SpriteOverflow: p.spriteOverflow,
		SpritePatternLo: p.spritePatternLo, SpritePatternHi: p.spritePatternHi,
		SpriteAttr: p.spriteAttr, SpriteX: p.spriteX, SpriteIsZero: p.spriteIsZero,
		FrameBuffer: p.frameBuffer,
		CycleCount:  p.cycleCount,
	}
}

// SetState restores the PPU's registers and rendering pipeline from a
// snapshot previously returned by GetState, then recomputes the rendering
// control flags derived from PPUMASK.
func (p *PPU) SetState(s State) {
	p.ppuCtrl, p.ppuMask, p.ppuStatus, p.oamAddr = s.PPUCtrl, s.PPUMask, s.PPUStatus, s.OAMAddr
	p.v, p.t, p.x, p.w = s.V, s.T, s.X, s.W
	p.scanline, p.cycle, p.frameCount, p.oddFrame = s.Scanline, s.Cycle, s.FrameCount, s.OddFrame
	p.readBuffer = s.ReadBuffer
	p.nextTileID, p.nextTileAttr, p.nextTileLSB, p.nextTileMSB = s.NextTileID, s.NextTileAttr, s.NextTileLSB, s.NextTileMSB
	p.bgShiftPatternLo, p.bgShiftPatternHi = s.BGShiftPatternLo, s.BGShiftPatternHi
	p.bgShiftAttrLo, p.bgShiftAttrHi = s.BGShiftAttrLo, s.BGShiftAttrHi
	p.oam, p.secondaryOAM, p.spriteIndexes = s.OAM, s.SecondaryOAM, s.SpriteIndexes
	p.spriteCount, p.sprite0OnScanline = s.SpriteCount, s.Sprite0OnScanline
	p.sprite0Hit, p.spriteOverflow = s.Sprite0Hit, s.SpriteOverflow
	p.spritePatternLo, p.spritePatternHi = s.SpritePatternLo, s.SpritePatternHi
	p.spriteAttr, p.spriteX, p.spriteIsZero = s.SpriteAttr, s.SpriteX, s.SpriteIsZero
	p.frameBuffer = s.FrameBuffer
	p.cycleCount = s.CycleCount
	p.updateRenderingFlags()
}
