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
package lex

import (
	"github.com/consensys/go-dectab/pkg/expr/source"
)

// Token associates a tag with a given range of characters in the string being
// scanned.
type Token struct {
	Kind uint
	Span source.Span
}

// Scanner is a function which accepts zero or more characters at the start of
// a given input, returning the number of characters matched.
type Scanner func(items []rune) uint

// Rule is simply a mapping from matching groups of characters to a given tag.
type Rule struct {
	scanner Scanner
	tag     uint
}

// NewRule constructs a new lexing rule which maps matching characters to a
// given tag.
func NewRule(scanner Scanner, tag uint) Rule {
	return Rule{scanner, tag}
}

// Unit accepts a given sequence of characters.  That is, for this scanner to
// match, it must match all the given characters in their given order.
func Unit(chars ...rune) Scanner {
	return func(items []rune) uint {
		if len(items) < len(chars) {
			// fail
			return 0
		}
		//
		for i := range chars {
			if items[i] != chars[i] {
				// fail
				return 0
			}
		}
		// success
		return uint(len(chars))
	}
}

// And combines zero or more scanners such that the resulting scanner
// succeeds if all of the scanners succeed on the same starting position,
// matching as many characters as the longest of them.
func And(scanners ...Scanner) Scanner {
	return func(items []rune) uint {
		n := uint(0)
		//
		for _, scanner := range scanners {
			m := scanner(items)
			if m == 0 {
				// fail
				return 0
			}
			//
			n = max(n, m)
		}
		//
		return n
	}
}

// Or combines zero or more scanners such that the resulting scanner succeeds
// if any of the scanners succeeds.  Observe the implicit left-to-right order
// of evaluation.
func Or(scanners ...Scanner) Scanner {
	return func(items []rune) uint {
		for _, scanner := range scanners {
			if n := scanner(items); n > 0 {
				return n
			}
		}
		// fail
		return 0
	}
}

// Sequence matches all the scanners in order, each consuming the input right
// after the previous one ends.
func Sequence(scanners ...Scanner) Scanner {
	return func(items []rune) uint {
		n := uint(0)
		//
		for _, scanner := range scanners {
			m := scanner(items[n:])
			if m == 0 {
				// fail
				return 0
			}
			//
			n += m
		}
		//
		return n
	}
}

// Within accepts any single character within a given (inclusive) range.
func Within(lowest rune, highest rune) Scanner {
	return func(items []rune) uint {
		if len(items) != 0 && lowest <= items[0] && items[0] <= highest {
			return 1
		}
		// fail
		return 0
	}
}

// Many matches one or more of a given item.
func Many(acceptor Scanner) Scanner {
	return func(items []rune) uint {
		index := uint(0)
		//
		for index < uint(len(items)) {
			n := acceptor(items[index:])
			if n == 0 {
				break
			}
			//
			index += n
		}
		// done
		return index
	}
}

// Quoted matches a string enclosed by a given quote character.
func Quoted(quote rune) Scanner {
	return func(items []rune) uint {
		if len(items) < 2 || items[0] != quote {
			// fail
			return 0
		}
		//
		for i := 1; i < len(items); i++ {
			if items[i] == quote {
				return uint(i + 1)
			}
		}
		// unterminated
		return 0
	}
}

// Eof matches the end of the input stream.
func Eof() Scanner {
	return func(items []rune) uint {
		if len(items) == 0 {
			return 1
		}
		//
		return 0
	}
}

// Lexer provides a top-level construct for tokenising a given input string.
type Lexer struct {
	items []rune
	index int
	rules []Rule
}

// NewLexer constructs a new lexer for a given input with a given set of
// lexing rules.  Rules are attempted in order of appearance, hence rules for
// longer operators (e.g. "<=") must precede their prefixes (e.g. "<").
func NewLexer(input []rune, rules ...Rule) *Lexer {
	return &Lexer{input, 0, rules}
}

// Index returns the current index within the items array.
func (p *Lexer) Index() uint {
	return uint(p.index)
}

// Remaining determines how many characters from the original sequence were
// left unconsumed.
func (p *Lexer) Remaining() uint {
	return uint(max(0, len(p.items)-p.index))
}

// Collect parses as many tokens as possible in one go, producing an array of
// tokens.  Lexing stops at the first character no rule accepts; in such case
// Remaining() is non-zero afterwards.
func (p *Lexer) Collect() []Token {
	var tokens []Token
	// Keep scanning
	for p.index <= len(p.items) {
		token, ok := p.scan()
		if !ok {
			break
		}
		//
		tokens = append(tokens, token)
		//
		if p.index == len(p.items) {
			// EOF token produced
			p.index++
		} else {
			p.index = token.Span.End()
		}
	}
	//
	return tokens
}

// Scan a single token at the current position, or fail.
func (p *Lexer) scan() (Token, bool) {
	for _, r := range p.rules {
		if n := r.scanner(p.items[p.index:]); n > 0 {
			end := min(len(p.items), p.index+int(n))
			span := source.NewSpan(p.index, end)
			//
			return Token{r.tag, span}, true
		}
	}
	// fail
	return Token{}, false
}
