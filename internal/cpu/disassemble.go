package cpu

import "fmt"

// operandLength returns how many bytes beyond the opcode byte itself the
// addressing mode consumes.
func operandLength(mode AddressingMode) int {
	switch mode {
	case Implied, Accumulator:
		return 0
	case Immediate, ZeroPage, ZeroPageX, ZeroPageY, Relative, IndexedIndirect, IndirectIndexed:
		return 1
	case Absolute, AbsoluteX, AbsoluteY, Indirect:
		return 2
	default:
		return 0
	}
}

// Disassemble decodes the instruction at addr into mnemonic text and returns
// the encoded length in bytes (1-3), without advancing CPU state.
func (cpu *CPU) Disassemble(addr uint16) (string, int) {
	opcode := cpu.memory.Read(addr)
	instruction := cpu.instructions[opcode]
	if instruction == nil {
		return fmt.Sprintf(".byte $%02X", opcode), 1
	}

	length := operandLength(instruction.Mode) + 1
	switch instruction.Mode {
	case Implied:
		return instruction.Name, 1
	case Accumulator:
		return fmt.Sprintf("%s A", instruction.Name), 1
	case Immediate:
		return fmt.Sprintf("%s #$%02X", instruction.Name, cpu.memory.Read(addr+1)), 2
	case ZeroPage:
		return fmt.Sprintf("%s $%02X", instruction.Name, cpu.memory.Read(addr+1)), 2
	case ZeroPageX:
		return fmt.Sprintf("%s $%02X,X", instruction.Name, cpu.memory.Read(addr+1)), 2
	case ZeroPageY:
		return fmt.Sprintf("%s $%02X,Y", instruction.Name, cpu.memory.Read(addr+1)), 2
	case Relative:
		offset := int8(cpu.memory.Read(addr + 1))
		target := uint16(int32(addr+2) + int32(offset))
		return fmt.Sprintf("%s $%04X", instruction.Name, target), 2
	case Absolute:
		lo, hi := cpu.memory.Read(addr+1), cpu.memory.Read(addr+2)
		return fmt.Sprintf("%s $%04X", instruction.Name, uint16(hi)<<8|uint16(lo)), 3
	case AbsoluteX:
		lo, hi := cpu.memory.Read(addr+1), cpu.memory.Read(addr+2)
		return fmt.Sprintf("%s $%04X,X", instruction.Name, uint16(hi)<<8|uint16(lo)), 3
	case AbsoluteY:
		lo, hi := cpu.memory.Read(addr+1), cpu.memory.Read(addr+2)
		return fmt.Sprintf("%s $%04X,Y", instruction.Name, uint16(hi)<<8|uint16(lo)), 3
	case Indirect:
		lo, hi := cpu.memory.Read(addr+1), cpu.memory.Read(addr+2)
		return fmt.Sprintf("%s ($%04X)", instruction.Name, uint16(hi)<<8|uint16(lo)), 3
	case IndexedIndirect:
		return fmt.Sprintf("%s ($%02X,X)", instruction.Name, cpu.memory.Read(addr+1)), 2
	case IndirectIndexed:
		return fmt.Sprintf("%s ($%02X),Y", instruction.Name, cpu.memory.Read(addr+1)), 2
	default:
		return instruction.Name, length
	}
}
