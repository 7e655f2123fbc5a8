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
	"strings"
	"testing"

	"github.com/h00k3r/z64sim/pkg/asm/program"
	"github.com/h00k3r/z64sim/pkg/util/assert"
	"github.com/h00k3r/z64sim/pkg/util/source"
)

func lexKinds(t *testing.T, input string) []uint {
	t.Helper()
	//
	var kinds []uint
	//
	for _, tok := range Lex(source.NewSourceFile("test.s", []byte(input))) {
		kinds = append(kinds, tok.Kind)
	}
	//
	return kinds
}

// Lexing is total: every character lands in some token, and the lexeme
// lengths sum to the input length.
func TestLex_Totality(t *testing.T) {
	inputs := []string{
		"",
		".text\nmovq $5, %rax\n.end\n",
		"@ ~ ` unexpected ☃ characters",
		"\"unterminated",
		"/* unterminated comment",
		"movq $0x, %rax",
	}
	//
	for _, input := range inputs {
		tokens := Lex(source.NewSourceFile("test.s", []byte(input)))
		total := 0
		//
		for _, tok := range tokens {
			if tok.Kind != END_OF {
				total += tok.Span.Length()
			}
		}
		//
		assert.Equal(t, len([]rune(input)), total, "input %q", input)
		assert.Equal(t, END_OF, tokens[len(tokens)-1].Kind)
	}
}

// Every member of every mnemonic family, with every legal suffix, lexes as a
// single token of that family.
func TestLex_MnemonicPriority(t *testing.T) {
	suffixes := map[uint][]string{
		INSN_0:        {"", "b", "w", "l", "q"},
		INSN_0_WQ:     {"", "w", "l", "q"},
		INSN_0_NOSUFF: {""},
		INSN_1_S:      {""},
		INSN_LEA:      {"", "b", "w", "l", "q"},
		INSN_1_E:      {"", "b", "w", "l", "q"},
		INSN_SHIFT:    {"", "b", "w", "l", "q"},
		INSN_1_M:      {""},
		INSN_JC:       {"", "b", "w", "l", "q"},
		INSN_B_E:      {"", "b", "w", "l", "q"},
		INSN_EXT:      {"bw", "bl", "bq", "wl", "wq", "lq"},
		INSN_IN:       {"", "b", "w", "l", "q"},
		INSN_OUT:      {"", "b", "w", "l", "q"},
		INSN_IO_S:     {"", "b", "w", "l", "q"},
		IRET:          {""},
	}
	//
	for kind, bases := range mnemonics {
		for _, base := range bases {
			for _, suffix := range suffixes[kind] {
				word := base + suffix
				kinds := lexKinds(t, word)
				//
				assert.Equal(t, []uint{kind, END_OF}, kinds, "mnemonic %q", word)
			}
		}
	}
}

// A register name never lexes as LABEL_NAME.
func TestLex_Registers(t *testing.T) {
	for _, bits := range []uint{8, 16, 32, 64} {
		var expected uint
		//
		switch bits {
		case 8:
			expected = REG_8
		case 16:
			expected = REG_16
		case 32:
			expected = REG_32
		case 64:
			expected = REG_64
		}
		//
		for _, name := range program.RegisterNames(bits) {
			kinds := lexKinds(t, "%"+name)
			assert.Equal(t, []uint{expected, END_OF}, kinds, "register %%%s", name)
		}
	}
}

// Upper-case and mixed-case variants produce identical token kinds.
func TestLex_CaseInsensitive(t *testing.T) {
	words := []string{
		"movq", ".data", ".text", "%rax", "%R15D", "jne", "MOVZBQ",
		"PUSHQ", ".EQU", "0Xff", "IRET",
	}
	//
	for _, word := range words {
		lower := lexKinds(t, strings.ToLower(word))
		upper := lexKinds(t, strings.ToUpper(word))
		//
		assert.Equal(t, lower, upper, "word %q", word)
	}
}

// Longest match resolves the overlaps between mnemonic families.
func TestLex_LongestMatch(t *testing.T) {
	cases := map[string]uint{
		"mov":    INSN_B_E,
		"movs":   INSN_0,
		"movsb":  INSN_0,
		"movsbq": INSN_EXT,
		"movzbq": INSN_EXT,
		"in":     INSN_IN,
		"int":    INSN_1_S,
		"ins":    INSN_IO_S,
		"insb":   INSN_IO_S,
		"inb":    INSN_IN,
		"push":   INSN_1_E,
		"pushf":  INSN_0_WQ,
		"pushfq": INSN_0_WQ,
		"pushq":  INSN_1_E,
		"ret":    INSN_0_NOSUFF,
		"jmp":    INSN_JC,
		"je":     INSN_1_M,
	}
	//
	for word, kind := range cases {
		assert.Equal(t, []uint{kind, END_OF}, lexKinds(t, word), "mnemonic %q", word)
	}
}

// A mnemonic followed by ':' is a label definition, and identifiers which
// merely embed a mnemonic are label names.
func TestLex_Labels(t *testing.T) {
	assert.Equal(t, []uint{LABEL, END_OF}, lexKinds(t, "mov:"))
	assert.Equal(t, []uint{LABEL, END_OF}, lexKinds(t, "loop:"))
	assert.Equal(t, []uint{LABEL_NAME, END_OF}, lexKinds(t, "mover"))
	assert.Equal(t, []uint{LABEL_NAME, END_OF}, lexKinds(t, ".my-label_1"))
}

// The lone '.' is the location counter, distinct from any directive.
func TestLex_LocationCounter(t *testing.T) {
	assert.Equal(t, []uint{LOCATION_COUNTER, WHITESPACE, EQUALS, WHITESPACE, NUMBER, END_OF},
		lexKinds(t, ". = 0x100"))
	assert.Equal(t, []uint{DIR_ORG, WHITESPACE, NUMBER, END_OF}, lexKinds(t, ".org 64"))
}

// Numbers, flonums and their edge forms.
func TestLex_Numbers(t *testing.T) {
	assert.Equal(t, []uint{NUMBER, END_OF}, lexKinds(t, "123"))
	assert.Equal(t, []uint{NUMBER, END_OF}, lexKinds(t, "0x1F"))
	assert.Equal(t, []uint{NUMBER, END_OF}, lexKinds(t, "0b1011"))
	assert.Equal(t, []uint{FLONUM, END_OF}, lexKinds(t, "0e5"))
	assert.Equal(t, []uint{FLONUM, END_OF}, lexKinds(t, "0e-5.25e3"))
}

// Comments and statement separators.
func TestLex_Hidden(t *testing.T) {
	assert.Equal(t, []uint{COMMENT, NEWLINE, END_OF}, lexKinds(t, "# a comment\n"))
	assert.Equal(t, []uint{COMMENT, END_OF}, lexKinds(t, "/* multi\nline */"))
	assert.Equal(t, []uint{NUMBER, NEWLINE, NUMBER, END_OF}, lexKinds(t, "1;\r\n2"))
}

// Strings lex as a single token, including escapes.
func TestLex_Strings(t *testing.T) {
	assert.Equal(t, []uint{STRING, END_OF}, lexKinds(t, `"hello"`))
	assert.Equal(t, []uint{STRING, END_OF}, lexKinds(t, `"tab\t quote\" octal\101"`))
}

// Unexpected characters become single-character ERROR tokens, never dropped.
func TestLex_Errors(t *testing.T) {
	assert.Equal(t, []uint{ERROR, END_OF}, lexKinds(t, "@"))
	assert.Equal(t, []uint{ERROR, END_OF}, lexKinds(t, "☃"))
	assert.Equal(t, []uint{ERROR, LABEL_NAME, END_OF}, lexKinds(t, "%zz"))
}
