// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package assembler

import (
	"testing"

	"github.com/h00k3r/z64sim/pkg/asm/program"
	"github.com/h00k3r/z64sim/pkg/util/assert"
	"github.com/h00k3r/z64sim/pkg/util/source"
)

func parseProgram(t *testing.T, input string) (*program.Program, []source.SyntaxError) {
	t.Helper()
	//
	return Parse(source.NewSourceFile("test.s", []byte(input)))
}

func parseClean(t *testing.T, input string) *program.Program {
	t.Helper()
	//
	prog, errs := parseProgram(t, input)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	//
	return prog
}

func TestParse_MovImmediate(t *testing.T) {
	prog := parseClean(t, ".text\nmovq $5, %rax\n.end\n")
	//
	assert.Equal(t, 1, len(prog.Code))
	//
	insn, ok := prog.Code[0].(*program.Class1)
	assert.True(t, ok)
	assert.Equal(t, "mov", insn.Name)
	assert.Equal(t, program.Immediate{Value: 5}, insn.Src)
	assert.Equal(t, program.Register{Id: program.RAX, Bits: 64}, insn.Dst)
	assert.Equal(t, -1, insn.SizeHint)
}

func TestParse_DataLabelReference(t *testing.T) {
	prog := parseClean(t, ".data\nfoo: .quad 0x10\n.text\nmovq foo, %rax\n.end\n")
	// foo sits at the data section's base
	addr, ok := prog.LookupLabel("foo")
	assert.True(t, ok)
	assert.Equal(t, uint64(0), addr)
	// the emitted quad is little-endian
	assert.Equal(t, byte(0x10), prog.Data.Read(0))
	assert.Equal(t, byte(0), prog.Data.Read(7))
	//
	insn := prog.Code[0].(*program.Class1)
	mem, ok := insn.Src.(program.Memory)
	//
	assert.True(t, ok)
	assert.Equal(t, int32(0), mem.Displacement)
	assert.True(t, mem.HasDisplacement)
	assert.Equal(t, 8, mem.OperandSize)
	assert.Equal(t, program.NoRegister, mem.Base)
}

func TestParse_SuffixMismatch(t *testing.T) {
	prog, errs := parseProgram(t, ".text\nmovb $5, %rax\n.end\n")
	//
	assert.Equal(t, 1, len(errs))
	assert.Equal(t, "Operand size and instruction suffix mismatch.", errs[0].Message())
	assert.Equal(t, 0, len(prog.Code))
}

func TestParse_Shift(t *testing.T) {
	prog := parseClean(t, ".text\nshlq $3, %rax\n.end\n")
	//
	insn, ok := prog.Code[0].(*program.Class3)
	assert.True(t, ok)
	assert.Equal(t, int64(3), insn.Count)
	assert.Equal(t, program.Register{Id: program.RAX, Bits: 64}, insn.Dst)
}

func TestParse_ImplicitShift(t *testing.T) {
	prog := parseClean(t, ".text\nshlq %rax\n.end\n")
	//
	insn := prog.Code[0].(*program.Class3)
	assert.Equal(t, int64(-1), insn.Count)
}

func TestParse_Extension(t *testing.T) {
	prog := parseClean(t, ".text\nmovzbq %al, %rax\n.end\n")
	//
	insn, ok := prog.Code[0].(*program.Class1)
	assert.True(t, ok)
	assert.Equal(t, "movz", insn.Name)
	assert.Equal(t, program.Register{Id: program.RAX, Bits: 8}, insn.Src)
	assert.Equal(t, program.Register{Id: program.RAX, Bits: 64}, insn.Dst)
}

func TestParse_ExtensionBackwards(t *testing.T) {
	_, errs := parseProgram(t, ".text\nmovzqb %rax, %al\n.end\n")
	//
	assert.Equal(t, 1, len(errs))
	assert.Equal(t, "Wrong suffices for extension: cannot extend from 8 to 1", errs[0].Message())
}

func TestParse_Addressing(t *testing.T) {
	prog := parseClean(t, ".text\nmovq 8(%rbp), %rax\nmovq - 4(%rbx, %rcx, 2), %rdx\n.end\n")
	//
	first := prog.Code[0].(*program.Class1).Src.(program.Memory)
	assert.Equal(t, int32(8), first.Displacement)
	assert.Equal(t, program.RBP, first.Base)
	assert.Equal(t, program.NoRegister, first.Index)
	//
	second := prog.Code[1].(*program.Class1).Src.(program.Memory)
	assert.Equal(t, int32(-4), second.Displacement)
	assert.Equal(t, program.RBX, second.Base)
	assert.Equal(t, program.RCX, second.Index)
	assert.Equal(t, uint(2), second.Scale)
	assert.Equal(t, 8, second.OperandSize)
}

func TestParse_AddressingBlockOnly(t *testing.T) {
	prog := parseClean(t, ".text\nmovq (%rsp), %rax\n.end\n")
	//
	mem := prog.Code[0].(*program.Class1).Src.(program.Memory)
	assert.True(t, !mem.HasDisplacement)
	assert.Equal(t, program.RSP, mem.Base)
}

func TestParse_UndefinedLabel(t *testing.T) {
	_, errs := parseProgram(t, ".text\njmp nowhere\n.end\n")
	//
	assert.Equal(t, 1, len(errs))
	assert.Equal(t, "Trying to address a label which has not been defined", errs[0].Message())
}

func TestParse_ConditionalJump(t *testing.T) {
	prog := parseClean(t, ".text\nloop: nop\njne loop\n.end\n")
	//
	insn, ok := prog.Code[1].(*program.Class6)
	assert.True(t, ok)
	assert.Equal(t, "jne", insn.Name)
	assert.Equal(t, int32(0), insn.Target.Displacement)
}

// Code labels receive addresses: each instruction occupies one slot.
func TestParse_CodeLabelAddresses(t *testing.T) {
	prog := parseClean(t, ".text\nnop\nhere: nop\njmp here\n.end\n")
	//
	addr, ok := prog.LookupLabel("here")
	assert.True(t, ok)
	assert.Equal(t, uint64(program.InstructionSlot), addr)
}

func TestParse_RegisterIndirectJump(t *testing.T) {
	prog := parseClean(t, ".text\njmp *%rax\ncall *%rbx\n.end\n")
	//
	first := prog.Code[0].(*program.Class5)
	assert.Equal(t, program.Register{Id: program.RAX, Bits: 64}, first.Target)
	//
	second := prog.Code[1].(*program.Class5)
	assert.Equal(t, "call", second.Name)
}

func TestParse_NoOperandForms(t *testing.T) {
	prog := parseClean(t, ".text\nret\nhlt\nnop\ncli\nstc\nint 33\nmovsq\npushfq\n.end\n")
	//
	assert.Equal(t, 5, prog.Code[0].Class())
	assert.Equal(t, 0, prog.Code[1].Class())
	assert.Equal(t, int64(-1), prog.Code[1].(*program.Class0).Interrupt)
	assert.Equal(t, 0, prog.Code[2].Class())
	assert.Equal(t, 4, prog.Code[3].Class())
	assert.Equal(t, 4, prog.Code[4].Class())
	assert.Equal(t, int64(33), prog.Code[5].(*program.Class0).Interrupt)
	// operand-less data movement carries the suffix as its size hint
	assert.Equal(t, 8, prog.Code[6].(*program.Class1).SizeHint)
	assert.Equal(t, 8, prog.Code[7].(*program.Class1).SizeHint)
}

func TestParse_PortIO(t *testing.T) {
	prog := parseClean(t, ".text\ninw %dx, %ax\noutl %eax, %dx\ninsb\n.end\n")
	//
	first := prog.Code[0].(*program.Class7)
	assert.Equal(t, "in", first.Name)
	assert.Equal(t, 2, first.Size)
	//
	second := prog.Code[1].(*program.Class7)
	assert.Equal(t, "out", second.Name)
	assert.Equal(t, 4, second.Size)
	//
	third := prog.Code[2].(*program.Class7)
	assert.Equal(t, "ins", third.Name)
	assert.Equal(t, 1, third.Size)
}

func TestParse_PortIOWrongRegisters(t *testing.T) {
	_, errs := parseProgram(t, ".text\ninw %cx, %ax\n.end\n")
	//
	assert.Equal(t, 1, len(errs))
	assert.Equal(t, "Wrong operands for instruction in.", errs[0].Message())
}

func TestParse_StringIOWrongSuffix(t *testing.T) {
	_, errs := parseProgram(t, ".text\ninsq\nouts\n.end\n")
	//
	assert.Equal(t, 2, len(errs))
	assert.Equal(t, "Wrong size suffix for instruction ins", errs[0].Message())
	assert.Equal(t, "Wrong size suffix for instruction outs", errs[1].Message())
}

// ============================================================================
// Data directives
// ============================================================================

func TestParse_DataDirectives(t *testing.T) {
	prog := parseClean(t, `.data
bytes: .byte 1, 2, 3
words: .word 0x1234
str: .ascii "ab\0"
.fill 3, 2, 0xbeef
tail: .long 1
.end
`)
	//
	addr, _ := prog.LookupLabel("bytes")
	assert.Equal(t, uint64(0), addr)
	assert.Equal(t, byte(2), prog.Data.Read(1))
	//
	addr, _ = prog.LookupLabel("words")
	assert.Equal(t, uint64(3), addr)
	assert.Equal(t, byte(0x34), prog.Data.Read(3))
	assert.Equal(t, byte(0x12), prog.Data.Read(4))
	//
	addr, _ = prog.LookupLabel("str")
	assert.Equal(t, uint64(5), addr)
	assert.Equal(t, byte('a'), prog.Data.Read(5))
	assert.Equal(t, byte('b'), prog.Data.Read(6))
	assert.Equal(t, byte(0), prog.Data.Read(7))
	// .fill emits repeat units of size bytes, little-endian
	assert.Equal(t, byte(0xef), prog.Data.Read(8))
	assert.Equal(t, byte(0xbe), prog.Data.Read(9))
	assert.Equal(t, byte(0xef), prog.Data.Read(12))
	//
	addr, _ = prog.LookupLabel("tail")
	assert.Equal(t, uint64(14), addr)
}

func TestParse_Equ(t *testing.T) {
	prog := parseClean(t, ".data\n.equ size, 8*4\ncount = size/4\n.end\n")
	//
	size, ok := prog.LookupLabel("size")
	assert.True(t, ok)
	assert.Equal(t, uint64(32), size)
	//
	count, ok := prog.LookupLabel("count")
	assert.True(t, ok)
	assert.Equal(t, uint64(8), count)
}

func TestParse_Comm(t *testing.T) {
	prog := parseClean(t, ".bss\n.comm buffer, 64\nnext: .byte 1\n.end\n")
	//
	buffer, ok := prog.LookupLabel("buffer")
	assert.True(t, ok)
	assert.Equal(t, uint64(0), buffer)
	//
	next, _ := prog.LookupLabel("next")
	assert.Equal(t, uint64(64), next)
}

func TestParse_LocationCounter(t *testing.T) {
	prog := parseClean(t, ". = 0x100\n.data\nfoo: .byte 1\n.org 0x200\nbar: .byte 2\n.end\n")
	//
	foo, _ := prog.LookupLabel("foo")
	assert.Equal(t, uint64(0x100), foo)
	//
	bar, _ := prog.LookupLabel("bar")
	assert.Equal(t, uint64(0x200), bar)
	//
	assert.Equal(t, byte(2), prog.Data.Read(0x200))
}

// ============================================================================
// Drivers
// ============================================================================

func TestParse_Drivers(t *testing.T) {
	prog := parseClean(t, `.text
nop
.driver 32
movq $1, %rax
iret
.handler timer
nop
iret
.end
`)
	//
	assert.Equal(t, 2, len(prog.Drivers))
	//
	numbered := prog.Drivers["32"]
	assert.Equal(t, 2, len(numbered))
	assert.Equal(t, "mov", numbered[0].Mnemonic())
	assert.Equal(t, "iret", numbered[1].Mnemonic())
	assert.Equal(t, 5, numbered[1].Class())
	//
	named := prog.Drivers["timer"]
	assert.Equal(t, 2, len(named))
}

func TestParse_DriverMissingIret(t *testing.T) {
	_, errs := parseProgram(t, ".driver 1\nnop\n")
	//
	assert.True(t, len(errs) > 0)
	assert.Equal(t, "driver block not terminated by iret", errs[0].Message())
}

// ============================================================================
// Error recovery
// ============================================================================

// Every malformed statement produces at least one error, and the valid
// statements still appear in the output program.
func TestParse_RecoveryProgress(t *testing.T) {
	prog, errs := parseProgram(t, `.text
movq $1, %rax
movb $5, %rax
nop
jmp nowhere
ret
.end
`)
	//
	assert.Equal(t, 2, len(errs))
	assert.Equal(t, 3, len(prog.Code))
	assert.Equal(t, "mov", prog.Code[0].Mnemonic())
	assert.Equal(t, "nop", prog.Code[1].Mnemonic())
	assert.Equal(t, "ret", prog.Code[2].Mnemonic())
}

// Errors carry 1-based line and column positions.
func TestParse_ErrorPositions(t *testing.T) {
	_, errs := parseProgram(t, ".text\nmovb $5, %rax\n.end\n")
	//
	assert.Equal(t, 1, len(errs))
	assert.Equal(t, 2, errs[0].Line())
	assert.Equal(t, 1, errs[0].Column())
}

func TestParse_LexicalError(t *testing.T) {
	prog, errs := parseProgram(t, ".text\nmovq $5 ! %rax\nret\n.end\n")
	//
	assert.True(t, len(errs) > 0)
	assert.Equal(t, 1, len(prog.Code))
	assert.Equal(t, "ret", prog.Code[0].Mnemonic())
}

func TestParse_MissingEnd(t *testing.T) {
	_, errs := parseProgram(t, ".text\nnop\n")
	//
	assert.Equal(t, 1, len(errs))
	assert.Equal(t, "unexpected end of file", errs[0].Message())
}

func TestParse_CaseInsensitiveProgram(t *testing.T) {
	prog := parseClean(t, ".TEXT\nMOVQ $5, %RAX\nRET\n.END\n")
	//
	assert.Equal(t, 2, len(prog.Code))
	assert.Equal(t, "mov", prog.Code[0].Mnemonic())
}

// Semicolons are statement separators equivalent to newlines.
func TestParse_Semicolons(t *testing.T) {
	prog := parseClean(t, ".text;nop;nop;ret;.end")
	//
	assert.Equal(t, 3, len(prog.Code))
}

// Comments are invisible to the parser.
func TestParse_Comments(t *testing.T) {
	prog := parseClean(t, ".text\nnop # trailing comment\n/* block\ncomment */ ret\n.end\n")
	//
	assert.Equal(t, 2, len(prog.Code))
}
