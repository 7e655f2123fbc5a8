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
	"unicode"

	"github.com/h00k3r/z64sim/pkg/asm/program"
	"github.com/h00k3r/z64sim/pkg/util/source"
	"github.com/h00k3r/z64sim/pkg/util/source/lex"
)

// END_OF signals "end of file"
const END_OF uint = 0

// WHITESPACE signals spaces, tabs and form-feeds.  Hidden from the parser
// but preserved for highlighting.
const WHITESPACE uint = 1

// COMMENT signals "# ... \n" or "/* ... */".  Hidden from the parser but
// preserved for highlighting.
const COMMENT uint = 2

// NEWLINE signals a run of one or more statement terminators (\n, \r or ;).
const NEWLINE uint = 3

// Directive tokens.  Each keyword starts with '.'; the lone '.' is the
// LOCATION_COUNTER token, distinct from any directive.
const (
	DIR_ORG uint = iota + 4
	DIR_DATA
	DIR_TEXT
	DIR_BSS
	DIR_END
	DIR_EQU
	DIR_BYTE
	DIR_WORD
	DIR_LONG
	DIR_QUAD
	DIR_ASCII
	DIR_FILL
	DIR_COMM
	DIR_DRIVER
	DIR_HANDLER
)

// LOCATION_COUNTER signals a lone '.', which reads or assigns the location
// counter.
const LOCATION_COUNTER uint = 19

// NUMBER signals an integer literal: decimal, 0x hex or 0b binary.
const NUMBER uint = 20

// FLONUM signals a floating-point literal (0e...).  Lexed but rejected at
// evaluation.
const FLONUM uint = 21

// Punctuation tokens.
const (
	DOLLAR uint = iota + 22 // '$' immediate prefix
	EQUALS                  // '='
	PLUS                    // '+'
	MINUS                   // '-'
	STAR                    // '*'
	SLASH                   // '/'
	LBRACE                  // '('
	RBRACE                  // ')'
	COMMA                   // ','
)

// Register tokens, one kind per size family.  Each family enumerates exactly
// sixteen '%'-prefixed names.
const (
	REG_8 uint = iota + 31
	REG_16
	REG_32
	REG_64
)

// Instruction-mnemonic tokens, one kind per grammar-level family.
const (
	INSN_0        uint = iota + 35 // movs/stos: no operands, suffix gives size
	INSN_0_WQ                      // pushf/popf: no operands, w/l/q suffix only
	INSN_0_NOSUFF                  // ret, hlt, nop, clX/stX: no operands, no suffix
	INSN_1_S                       // int: integer operand
	INSN_LEA                       // lea
	INSN_1_E                       // push/pop/neg/not: one E operand
	INSN_SHIFT                     // shifts and rotates
	INSN_1_M                       // conditional jumps: one M operand, no suffix
	INSN_JC                        // jmp/call
	INSN_B_E                       // mov and binary arithmetic/logical
	INSN_EXT                       // movs/movz with two-character suffix
	INSN_IN                        // in
	INSN_OUT                       // out
	INSN_IO_S                      // ins/outs string port I/O
	IRET                           // driver epilogue
)

// LABEL signals a label definition: a label name immediately followed by ':'.
const LABEL uint = 50

// LABEL_NAME signals a bare identifier ([._\-a-z0-9]+, case-insensitive).
const LABEL_NAME uint = 51

// STRING signals a double-quoted string literal.
const STRING uint = 52

// ERROR signals a single character nothing else matched.  Always emitted,
// never dropped, so a highlighter can show it; the parser treats it as a
// syntax error.
const ERROR uint = 53

// Rule for describing whitespace.
var whitespace lex.Scanner[rune] = lex.Many(lex.OneOf(' ', '\t', '\f'))

// Statement terminators; any run collapses into a single NEWLINE token.
var newline lex.Scanner[rune] = lex.Many(lex.OneOf('\n', '\r', ';'))

// Comments are either "# ..." to end of line, or C-style "/* ... */" with no
// nesting.  An unterminated block comment swallows the rest of the input.
var (
	lineComment lex.Scanner[rune] = lex.And(lex.Unit('#'), lex.Until('\n'))

	blockComment lex.Scanner[rune] = func(items []rune) uint {
		if len(items) < 2 || items[0] != '/' || items[1] != '*' {
			return 0
		}
		//
		for i := 2; i+1 < len(items); i++ {
			if items[i] == '*' && items[i+1] == '/' {
				return uint(i + 2)
			}
		}
		//
		return uint(len(items))
	}
)

// Rules for describing numbers.  A number is either a hexadecimal, binary or
// decimal one.  FLONUMs are matched separately so evaluation can reject them
// with a dedicated message.
var (
	decDigit = lex.Within('0', '9')
	binDigit = lex.Within('0', '1')
	hexDigit = lex.Or(
		lex.Within('0', '9'),
		lex.Within('A', 'F'),
		lex.Within('a', 'f'),
	)

	number = lex.Or(
		lex.SequenceNullableLast(lex.Sequence(lex.StringFold("0b"), binDigit), lex.Many(binDigit)),
		lex.SequenceNullableLast(lex.Sequence(lex.StringFold("0x"), hexDigit), lex.Many(hexDigit)),
		lex.Many(decDigit),
	)

	// 0e[+-]?digits[.digits]?(e[+-]?digits)?
	flonum lex.Scanner[rune] = func(items []rune) uint {
		i := scanFlonumStart(items)
		if i == 0 {
			return 0
		}
		// optional fraction
		if i+1 < uint(len(items)) && items[i] == '.' && isDigit(items[i+1]) {
			i += 2
			for i < uint(len(items)) && isDigit(items[i]) {
				i++
			}
		}
		// optional exponent
		if j := scanExponent(items[i:]); j > 0 {
			i += j
		}
		//
		return i
	}
)

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

// Matches 0e[+-]?digits, the mandatory prefix of a FLONUM.
func scanFlonumStart(items []rune) uint {
	i := uint(2)
	//
	if len(items) < 3 || items[0] != '0' || unicode.ToLower(items[1]) != 'e' {
		return 0
	}
	//
	if items[i] == '+' || items[i] == '-' {
		i++
	}
	//
	if i >= uint(len(items)) || !isDigit(items[i]) {
		return 0
	}
	//
	for i < uint(len(items)) && isDigit(items[i]) {
		i++
	}
	//
	return i
}

// Matches e[+-]?digits, the optional exponent of a FLONUM.
func scanExponent(items []rune) uint {
	i := uint(1)
	//
	if len(items) < 2 || unicode.ToLower(items[0]) != 'e' {
		return 0
	}
	//
	if items[i] == '+' || items[i] == '-' {
		i++
	}
	//
	if i >= uint(len(items)) || !isDigit(items[i]) {
		return 0
	}
	//
	for i < uint(len(items)) && isDigit(items[i]) {
		i++
	}
	//
	return i
}

// Label names may contain dots, underscores, dashes, letters and digits.
var (
	labelChar = lex.Or(
		lex.OneOf('.', '_', '-'),
		lex.Within('a', 'z'),
		lex.Within('A', 'Z'),
		lex.Within('0', '9'),
	)
	labelName lex.Scanner[rune] = lex.Many(labelChar)
	label     lex.Scanner[rune] = lex.Sequence(lex.Many(labelChar), lex.Unit(':'))
)

// Rule for describing string literals: double quotes, backslash escapes and
// line continuations, no embedded raw newlines.
var stringLit lex.Scanner[rune] = func(items []rune) uint {
	if len(items) == 0 || items[0] != '"' {
		return 0
	}
	//
	for i := 1; i < len(items); i++ {
		switch items[i] {
		case '\\':
			// escape or line continuation; consumes the next character
			i++
		case '"':
			return uint(i + 1)
		case '\n', '\r':
			return 0
		}
	}
	// unterminated
	return 0
}

// foldOr builds a scanner matching any of the given strings,
// case-insensitively, preferring the longest.
func foldOr(words ...string) lex.Scanner[rune] {
	scanners := make([]lex.Scanner[rune], len(words))
	//
	for i, w := range words {
		scanners[i] = lex.StringFold(w)
	}
	//
	return lex.Or(scanners...)
}

// regFamily builds a scanner matching '%' followed by any name of a family.
func regFamily(names []string) lex.Scanner[rune] {
	words := make([]string, len(names))
	//
	for i, n := range names {
		words[i] = "%" + n
	}
	//
	return foldOr(words...)
}

// Size suffixes.
var (
	suffixBWLQ = lex.OneOf('b', 'w', 'l', 'q', 'B', 'W', 'L', 'Q')
	suffixWLQ  = lex.OneOf('w', 'l', 'q', 'W', 'L', 'Q')
)

// suffixed matches any of the given base mnemonics optionally followed by a
// one-character size suffix.
func suffixed(suffix lex.Scanner[rune], bases ...string) lex.Scanner[rune] {
	return lex.SequenceNullableLast(foldOr(bases...), suffix)
}

// Members of each instruction-mnemonic family, keyed by token kind.  The
// classifier uses the same table to strip suffixes.
var mnemonics = map[uint][]string{
	INSN_0:        {"movs", "stos"},
	INSN_0_WQ:     {"pushf", "popf"},
	INSN_0_NOSUFF: {"ret", "hlt", "nop", "clc", "cld", "cli", "stc", "std", "sti"},
	INSN_1_S:      {"int"},
	INSN_LEA:      {"lea"},
	INSN_1_E:      {"push", "pop", "neg", "not"},
	INSN_SHIFT:    {"sal", "sar", "shl", "shr", "rcl", "rcr", "rol", "ror"},
	INSN_1_M: {
		"je", "jne", "jz", "jnz", "jc", "jnc", "jo", "jno", "js", "jns",
		"jg", "jge", "jl", "jle", "ja", "jae", "jb", "jbe",
	},
	INSN_JC:   {"jmp", "call"},
	INSN_B_E:  {"mov", "add", "sub", "adc", "sbb", "cmp", "test", "and", "or", "xor"},
	INSN_EXT:  {"movs", "movz"},
	INSN_IN:   {"in"},
	INSN_OUT:  {"out"},
	INSN_IO_S: {"ins", "outs"},
	IRET:      {"iret"},
}

// lexing rules.  The lexer picks the longest match, with declaration order
// breaking ties; the final Any rule makes lexing total.
var rules = []lex.LexRule[rune]{
	lex.Rule(whitespace, WHITESPACE),
	lex.Rule(lineComment, COMMENT),
	lex.Rule(blockComment, COMMENT),
	lex.Rule(newline, NEWLINE),
	lex.Rule(lex.StringFold(".org"), DIR_ORG),
	lex.Rule(lex.StringFold(".data"), DIR_DATA),
	lex.Rule(lex.StringFold(".text"), DIR_TEXT),
	lex.Rule(lex.StringFold(".bss"), DIR_BSS),
	lex.Rule(lex.StringFold(".end"), DIR_END),
	lex.Rule(lex.StringFold(".equ"), DIR_EQU),
	lex.Rule(lex.StringFold(".byte"), DIR_BYTE),
	lex.Rule(lex.StringFold(".word"), DIR_WORD),
	lex.Rule(lex.StringFold(".long"), DIR_LONG),
	lex.Rule(lex.StringFold(".quad"), DIR_QUAD),
	lex.Rule(lex.StringFold(".ascii"), DIR_ASCII),
	lex.Rule(lex.StringFold(".fill"), DIR_FILL),
	lex.Rule(lex.StringFold(".comm"), DIR_COMM),
	lex.Rule(lex.StringFold(".driver"), DIR_DRIVER),
	lex.Rule(lex.StringFold(".handler"), DIR_HANDLER),
	lex.Rule(lex.Unit('.'), LOCATION_COUNTER),
	lex.Rule(flonum, FLONUM),
	lex.Rule(number, NUMBER),
	lex.Rule(lex.Unit('$'), DOLLAR),
	lex.Rule(lex.Unit('='), EQUALS),
	lex.Rule(lex.Unit('+'), PLUS),
	lex.Rule(lex.Unit('-'), MINUS),
	lex.Rule(lex.Unit('*'), STAR),
	lex.Rule(lex.Unit('/'), SLASH),
	lex.Rule(lex.Unit('('), LBRACE),
	lex.Rule(lex.Unit(')'), RBRACE),
	lex.Rule(lex.Unit(','), COMMA),
	lex.Rule(regFamily(program.RegisterNames(8)), REG_8),
	lex.Rule(regFamily(program.RegisterNames(16)), REG_16),
	lex.Rule(regFamily(program.RegisterNames(32)), REG_32),
	lex.Rule(regFamily(program.RegisterNames(64)), REG_64),
	lex.Rule(lex.Sequence(foldOr(mnemonics[INSN_EXT]...), suffixBWLQ, suffixBWLQ), INSN_EXT),
	lex.Rule(suffixed(suffixBWLQ, mnemonics[INSN_IO_S]...), INSN_IO_S),
	lex.Rule(suffixed(suffixBWLQ, mnemonics[INSN_IN]...), INSN_IN),
	lex.Rule(suffixed(suffixBWLQ, mnemonics[INSN_OUT]...), INSN_OUT),
	lex.Rule(suffixed(suffixBWLQ, mnemonics[INSN_0]...), INSN_0),
	lex.Rule(suffixed(suffixWLQ, mnemonics[INSN_0_WQ]...), INSN_0_WQ),
	lex.Rule(foldOr(mnemonics[INSN_0_NOSUFF]...), INSN_0_NOSUFF),
	lex.Rule(foldOr(mnemonics[INSN_1_S]...), INSN_1_S),
	lex.Rule(suffixed(suffixBWLQ, mnemonics[INSN_LEA]...), INSN_LEA),
	lex.Rule(suffixed(suffixBWLQ, mnemonics[INSN_1_E]...), INSN_1_E),
	lex.Rule(suffixed(suffixBWLQ, mnemonics[INSN_SHIFT]...), INSN_SHIFT),
	lex.Rule(foldOr(mnemonics[INSN_1_M]...), INSN_1_M),
	lex.Rule(suffixed(suffixBWLQ, mnemonics[INSN_JC]...), INSN_JC),
	lex.Rule(suffixed(suffixBWLQ, mnemonics[INSN_B_E]...), INSN_B_E),
	lex.Rule(foldOr(mnemonics[IRET]...), IRET),
	lex.Rule(label, LABEL),
	lex.Rule(labelName, LABEL_NAME),
	lex.Rule(stringLit, STRING),
	lex.Rule(lex.Eof[rune](), END_OF),
	lex.Rule(lex.Any[rune](), ERROR),
}

// Lex a given source file into a sequence of tokens.  Lexing is total: every
// character lands in some token (unmatched ones as single-character ERROR
// tokens), so highlighters see the complete input.  The final token is
// always END_OF.
func Lex(srcfile *source.File) []lex.Token {
	lexer := lex.NewLexer(srcfile.Contents(), rules...)
	// Lexing cannot fail; the Any rule consumes anything.
	return lexer.Collect()
}
