// Package disasm decodes a method's raw bytecode into a table-driven
// instruction stream, the first stage of the decompilation pipeline.
package disasm

import (
	"bytes"
	"fmt"
	"io"

	"github.com/classlift/unjavac/ir"
)

// UnsupportedOpcodeError is returned for a real, allocated JVM opcode outside
// the subset this disassembler decodes: the Non-goal families (arrays beyond
// tagging, monitorenter/exit, dup/swap, switch tables, dynamic invocation)
// and others such as bipush, iload, new or ifnull.
type UnsupportedOpcodeError struct {
	PC     int
	Opcode byte
}

func (e UnsupportedOpcodeError) Error() string {
	return fmt.Sprintf("disasm: unsupported opcode 0x%02x at pc %d", e.Opcode, e.PC)
}

// InvalidOpcodeError is returned for a byte in the 0xca..0xff range, which
// the JVM spec never allocates to any instruction.
type InvalidOpcodeError struct {
	PC     int
	Opcode byte
}

func (e InvalidOpcodeError) Error() string {
	return fmt.Sprintf("disasm: invalid opcode 0x%02x at pc %d", e.Opcode, e.PC)
}

// Disassemble decodes a method's bytecode into an ordered instruction
// stream. maxStack/maxLocals pass the Code attribute's declared limits
// through unchanged; the disassembler does not verify them.
func Disassemble(bytecode []byte, maxStack, maxLocals int) (*ir.Code, error) {
	r := bytes.NewReader(bytecode)
	code := &ir.Code{MaxStack: maxStack, MaxLocals: maxLocals}

	for {
		pc := len(bytecode) - r.Len()
		op, err := r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		instr, err := decodeOne(r, pc, op)
		if err != nil {
			return nil, err
		}
		logger.Printf("pc %d: opcode 0x%02x -> %#v", pc, op, instr)
		code.Instructions = append(code.Instructions, ir.PCInstruction{PC: pc, Instruction: instr})
	}
	logger.Printf("decoded %d instructions", len(code.Instructions))
	return code, nil
}

func decodeOne(r *bytes.Reader, pc int, op byte) (ir.Instruction, error) {
	switch {
	case op == 0x00:
		return ir.NopInstr{}, nil

	case op >= 0x02 && op <= 0x08:
		return ir.LoadInstr{Value: ir.ConstLiteral{Value: ir.Integer(int32(op) - 0x03)}}, nil

	case op == 0x12:
		idx, err := readU1(r)
		if err != nil {
			return nil, err
		}
		return ir.LoadInstr{Value: ir.ConstantRef{Index: uint16(idx)}}, nil

	case op >= 0x1a && op <= 0x1d:
		return ir.LoadInstr{Value: ir.LValueRead{Value: ir.Local{Index: int(op - 0x1a)}}}, nil
	case op >= 0x2a && op <= 0x2d:
		return ir.LoadInstr{Value: ir.LValueRead{Value: ir.Local{Index: int(op - 0x2a)}}}, nil

	case op == 0xb2: // getstatic
		idx, err := readU2(r)
		if err != nil {
			return nil, err
		}
		return ir.LoadInstr{Value: ir.LValueRead{Value: ir.StaticFieldLV{FieldIndex: idx}}}, nil
	case op == 0xb4: // getfield
		idx, err := readU2(r)
		if err != nil {
			return nil, err
		}
		return ir.LoadInstr{Value: ir.LValueRead{Value: ir.InstanceFieldLV{ObjectStackIndex: -1, FieldIndex: idx}}}, nil

	case op >= 0x3b && op <= 0x3e:
		return ir.StoreInstr{Value: ir.Local{Index: int(op - 0x3b)}}, nil

	case op == 0xb3: // putstatic
		idx, err := readU2(r)
		if err != nil {
			return nil, err
		}
		return ir.StoreInstr{Value: ir.StaticFieldLV{FieldIndex: idx}}, nil
	case op == 0xb5: // putfield
		idx, err := readU2(r)
		if err != nil {
			return nil, err
		}
		return ir.StoreInstr{Value: ir.InstanceFieldLV{ObjectStackIndex: -2, FieldIndex: idx}}, nil

	case op >= 0x60 && op <= 0x83:
		return decodeArith(pc, op)

	case op == 0x84:
		index, err := readU1(r)
		if err != nil {
			return nil, err
		}
		delta, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		return ir.IncLocalInstr{Index: int(index), Delta: int8(delta)}, nil

	case op >= 0x99 && op <= 0x9e:
		ord, err := ir.OrderingFromOpcodeOffset(op - 0x99)
		if err != nil {
			return nil, err
		}
		return decodeJump(r, pc, ir.CmpZero{Ordering: ord})

	case op >= 0x9f && op <= 0xa4:
		ord, err := ir.OrderingFromOpcodeOffset(op - 0x9f)
		if err != nil {
			return nil, err
		}
		return decodeJump(r, pc, ir.Cmp{Ordering: ord})

	case op >= 0xa5 && op <= 0xa6:
		ord, err := ir.OrderingFromOpcodeOffset(op - 0xa5)
		if err != nil {
			return nil, err
		}
		return decodeJump(r, pc, ir.CmpRef{Ordering: ord})

	case op == 0xa7:
		return decodeJump(r, pc, nil)

	case op >= 0xac && op <= 0xb0:
		return ir.ReturnInstr{HasValue: true}, nil
	case op == 0xb1:
		return ir.ReturnInstr{HasValue: false}, nil

	case op >= 0xb6 && op <= 0xb8:
		idx, err := readU2(r)
		if err != nil {
			return nil, err
		}
		kind := [...]ir.InvokeKind{ir.InvokeVirtual, ir.InvokeSpecial, ir.InvokeStatic}[op-0xb6]
		return ir.InvokeInstr{MethodIndex: idx, Kind: kind}, nil

	case op == 0xbf:
		return ir.ThrowInstr{}, nil

	case op >= 0xca:
		return nil, InvalidOpcodeError{PC: pc, Opcode: op}

	default:
		return nil, UnsupportedOpcodeError{PC: pc, Opcode: op}
	}
}

func decodeArith(pc int, op byte) (ir.Instruction, error) {
	switch {
	case op >= 0x60 && op <= 0x63:
		return ir.BinaryArithInstr{Op: ir.ArithAdd}, nil
	case op >= 0x64 && op <= 0x67:
		return ir.BinaryArithInstr{Op: ir.ArithSub}, nil
	case op >= 0x68 && op <= 0x6b:
		return ir.BinaryArithInstr{Op: ir.ArithMul}, nil
	case op >= 0x6c && op <= 0x6e:
		return ir.BinaryArithInstr{Op: ir.ArithDiv}, nil
	case op >= 0x70 && op <= 0x73:
		return ir.BinaryArithInstr{Op: ir.ArithRem}, nil
	case op >= 0x74 && op <= 0x77:
		return ir.UnaryArithInstr{Op: ir.ArithNeg}, nil
	case op >= 0x78 && op <= 0x79:
		return ir.BinaryArithInstr{Op: ir.ArithShl}, nil
	case op >= 0x7a && op <= 0x7b:
		return ir.BinaryArithInstr{Op: ir.ArithShr}, nil
	case op >= 0x7c && op <= 0x7d:
		return ir.BinaryArithInstr{Op: ir.ArithUshr}, nil
	case op >= 0x7e && op <= 0x7f:
		return ir.BinaryArithInstr{Op: ir.ArithAnd}, nil
	case op >= 0x80 && op <= 0x81:
		return ir.BinaryArithInstr{Op: ir.ArithOr}, nil
	case op >= 0x82 && op <= 0x83:
		return ir.BinaryArithInstr{Op: ir.ArithXor}, nil
	default:
		return nil, UnsupportedOpcodeError{PC: pc, Opcode: op}
	}
}

func decodeJump(r *bytes.Reader, pc int, cond ir.JumpCondition) (ir.Instruction, error) {
	offset, err := readI2(r)
	if err != nil {
		return nil, err
	}
	return ir.JumpInstr{Address: pc + int(offset), Condition: cond}, nil
}

func readU1(r *bytes.Reader) (byte, error) {
	return r.ReadByte()
}

func readU2(r *bytes.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

func readI2(r *bytes.Reader) (int16, error) {
	u, err := readU2(r)
	if err != nil {
		return 0, err
	}
	return int16(u), nil
}
