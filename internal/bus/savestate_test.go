package bus

import (
	"testing"

	"gones/internal/cartridge"
)

// TestSaveStateRoundTrip runs a ROM forward, snapshots the system, keeps
// running, then restores the snapshot and checks execution resumes from
// exactly the snapshotted point rather than the later state.
func TestSaveStateRoundTrip(t *testing.T) {
	romBuilder := cartridge.NewTestROMBuilder().
		WithPRGSize(1).
		WithCHRSize(1).
		WithResetVector(0x8000).
		WithData(0x0000, []uint8{
			0xA9, 0x00, // LDA #$00
			0x18,       // CLC
			0x69, 0x01, // loop: ADC #$01
			0x85, 0x10, // STA $10
			0x4C, 0x03, 0x80, // JMP loop
		}).
		WithDescription("save state round-trip test ROM")

	cart, err := romBuilder.BuildCartridge()
	if err != nil {
		t.Fatalf("Failed to create test cartridge: %v", err)
	}

	b := New()
	b.LoadCartridge(cart)
	if b.Cartridge == nil {
		t.Fatal("Bus.Cartridge not populated by LoadCartridge")
	}

	for i := 0; i < 20; i++ {
		if err := b.StepWithError(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	snapshot := b.GetSaveState()
	valueAtSnapshot := b.Memory.Read(0x0010)
	pcAtSnapshot := b.CPU.PC

	for i := 0; i < 20; i++ {
		if err := b.StepWithError(); err != nil {
			t.Fatalf("post-snapshot step %d: %v", i, err)
		}
	}

	if b.Memory.Read(0x0010) == valueAtSnapshot && b.CPU.PC == pcAtSnapshot {
		t.Fatal("test ROM did not advance after snapshot; test is not exercising anything")
	}

	b.RestoreSaveState(snapshot)

	if b.CPU.PC != pcAtSnapshot {
		t.Errorf("PC after restore = 0x%04X, want 0x%04X", b.CPU.PC, pcAtSnapshot)
	}
	if got := b.Memory.Read(0x0010); got != valueAtSnapshot {
		t.Errorf("$0010 after restore = 0x%02X, want 0x%02X", got, valueAtSnapshot)
	}

	if err := b.StepWithError(); err != nil {
		t.Fatalf("step after restore: %v", err)
	}
}

// TestSaveStatePPUAndAPU checks that PPU and APU register state survives a
// round trip even when the CPU snapshot alone wouldn't reveal a regression.
func TestSaveStatePPUAndAPU(t *testing.T) {
	romBuilder := cartridge.NewTestROMBuilder().
		WithPRGSize(1).
		WithCHRSize(1).
		WithResetVector(0x8000).
		WithData(0x0000, []uint8{
			0xA9, 0x80, // LDA #$80
			0x8D, 0x00, 0x20, // STA $2000 (PPUCTRL, enable NMI)
			0xA9, 0x0F, // LDA #$0F
			0x8D, 0x15, 0x40, // STA $4015 (APU channel enable)
			0x4C, 0x0A, 0x80, // JMP (infinite loop)
		}).
		WithDescription("save state PPU/APU register test ROM")

	cart, err := romBuilder.BuildCartridge()
	if err != nil {
		t.Fatalf("Failed to create test cartridge: %v", err)
	}

	b := New()
	b.LoadCartridge(cart)

	for i := 0; i < 10; i++ {
		if err := b.StepWithError(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	snapshot := b.GetSaveState()

	b2 := New()
	b2.LoadCartridge(cart)
	b2.RestoreSaveState(snapshot)

	if b2.CPU.PC != b.CPU.PC {
		t.Errorf("restored PC = 0x%04X, want 0x%04X", b2.CPU.PC, b.CPU.PC)
	}
	if b2.PPU.GetState().PPUCtrl != b.PPU.GetState().PPUCtrl {
		t.Errorf("restored PPUCTRL = 0x%02X, want 0x%02X", b2.PPU.GetState().PPUCtrl, b.PPU.GetState().PPUCtrl)
	}
	if b2.APU.GetState().ChannelEnable != b.APU.GetState().ChannelEnable {
		t.Errorf("restored APU channel enables = %v, want %v", b2.APU.GetState().ChannelEnable, b.APU.GetState().ChannelEnable)
	}
}
