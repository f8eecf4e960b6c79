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
package expr

import (
	"slices"
	"strconv"
	"strings"

	"github.com/consensys/go-dectab/pkg/expr/lex"
	"github.com/consensys/go-dectab/pkg/expr/source"
)

// Parse a given input string into a term of the dialect.  The environment
// determines the set of permitted variable names; an identifier outside the
// environment gives a syntax error, whilst a call to an unknown function is
// preserved verbatim as an opaque term.
func Parse(input string, environment func(string) bool) (Term, []source.SyntaxError) {
	var (
		srcfile = source.NewFile("expr", input)
		lexer   = lex.NewLexer(srcfile.Contents(), rules...)
		// Lex as many tokens as possible
		tokens = lexer.Collect()
	)
	// Check whether anything was left (if so this is an error)
	if lexer.Remaining() != 0 {
		start, end := lexer.Index(), lexer.Index()+lexer.Remaining()
		err := srcfile.SyntaxError(source.NewSpan(int(start), int(end)), "unknown text encountered")
		//
		return nil, []source.SyntaxError{*err}
	}
	// Remove any whitespace
	tokens = slices.DeleteFunc(tokens, func(t lex.Token) bool { return t.Kind == WHITESPACE })
	//
	parser := &Parser{environment, srcfile, tokens, 0}
	// Parse term
	term, errs := parser.parseDisjunct()
	// Check all parsed
	if len(errs) == 0 && !parser.Done() {
		return nil, parser.syntaxErrors(parser.lookahead(), "unknown token")
	}
	//
	return term, errs
}

// END_OF signals "end of file"
const END_OF uint = 0

// WHITESPACE signals whitespace
const WHITESPACE uint = 1

// LBRACE signals "left brace"
const LBRACE uint = 2

// RBRACE signals "right brace"
const RBRACE uint = 3

// LSQUARE signals "left square bracket"
const LSQUARE uint = 4

// RSQUARE signals "right square bracket"
const RSQUARE uint = 5

// COMMA signals a comma separator
const COMMA uint = 6

// DOT signals a member access dot
const DOT uint = 7

// NOT signals logical negation
const NOT uint = 8

// NUMBER signals an integer number
const NUMBER uint = 9

// FLOAT signals a floating-point number
const FLOAT uint = 10

// STRING signals a (quoted) string literal
const STRING uint = 11

// IDENTIFIER signals a variable (or keyword)
const IDENTIFIER uint = 12

// EQUALS signals an equality
const EQUALS uint = 13

// NOT_EQUALS signals a non-equality
const NOT_EQUALS uint = 14

// LESSTHAN signals a (strict) inequality X < Y
const LESSTHAN uint = 15

// LESSTHAN_EQUALS signals a (non-strict) inequality X <= Y
const LESSTHAN_EQUALS uint = 16

// GREATERTHAN signals a (strict) inequality X > Y
const GREATERTHAN uint = 17

// GREATERTHAN_EQUALS signals a (non-strict) inequality X >= Y
const GREATERTHAN_EQUALS uint = 18

// OR represents logical disjunction
const OR uint = 19

// AND represents logical conjunction
const AND uint = 20

// COMPARATORS captures the set of comparison operators.
var COMPARATORS = []uint{EQUALS, NOT_EQUALS, LESSTHAN, LESSTHAN_EQUALS, GREATERTHAN, GREATERTHAN_EQUALS}

// Rule for describing whitespace
var whitespace = lex.Many(lex.Or(lex.Unit(' '), lex.Unit('\t'), lex.Unit('\n'), lex.Unit('\r')))

// Rule for describing digit sequences
var digits = lex.Many(lex.Within('0', '9'))

// Rule for describing (optionally signed) integer numbers
var number = lex.Or(lex.Sequence(lex.Unit('-'), digits), digits)

// Rule for describing floating-point numbers
var float = lex.Or(
	lex.Sequence(lex.Unit('-'), digits, lex.Unit('.'), digits),
	lex.Sequence(digits, lex.Unit('.'), digits))

// Rule for describing double-quoted strings
var dquoted = lex.Quoted('"')

// Rule for describing single-quoted strings
var squoted = lex.Quoted('\'')

var identifierStart = lex.Or(
	lex.Unit('_'),
	lex.Within('a', 'z'),
	lex.Within('A', 'Z'))

var identifierRest = lex.Many(lex.Or(
	lex.Unit('_'),
	lex.Within('0', '9'),
	lex.Within('a', 'z'),
	lex.Within('A', 'Z')))

// Rule for describing identifiers
var identifier = lex.And(identifierStart, identifierRest)

// lexing rules.  Longer operators must precede their prefixes.
var rules = []lex.Rule{
	lex.NewRule(lex.Unit('('), LBRACE),
	lex.NewRule(lex.Unit(')'), RBRACE),
	lex.NewRule(lex.Unit('['), LSQUARE),
	lex.NewRule(lex.Unit(']'), RSQUARE),
	lex.NewRule(lex.Unit(','), COMMA),
	lex.NewRule(lex.Unit('.'), DOT),
	lex.NewRule(lex.Unit('=', '='), EQUALS),
	lex.NewRule(lex.Unit('!', '='), NOT_EQUALS),
	lex.NewRule(lex.Unit('!'), NOT),
	lex.NewRule(lex.Unit('<', '='), LESSTHAN_EQUALS),
	lex.NewRule(lex.Unit('<'), LESSTHAN),
	lex.NewRule(lex.Unit('>', '='), GREATERTHAN_EQUALS),
	lex.NewRule(lex.Unit('>'), GREATERTHAN),
	lex.NewRule(lex.Unit('|', '|'), OR),
	lex.NewRule(lex.Unit('&', '&'), AND),
	lex.NewRule(whitespace, WHITESPACE),
	lex.NewRule(float, FLOAT),
	lex.NewRule(number, NUMBER),
	lex.NewRule(dquoted, STRING),
	lex.NewRule(squoted, STRING),
	lex.NewRule(identifier, IDENTIFIER),
	lex.NewRule(lex.Eof(), END_OF),
}

// Parser provides a recursive-descent parser for the boolean dialect.
type Parser struct {
	environment func(string) bool
	srcfile     *source.File
	tokens      []lex.Token
	// Position within the tokens
	index int
}

// Done determines whether or not the parser has parsed all the available
// tokens.
func (p *Parser) Done() bool {
	return p.index+1 >= len(p.tokens)
}

func (p *Parser) parseDisjunct() (Term, []source.SyntaxError) {
	term, errs := p.parseConjunct()
	// match all disjuncts
	terms := []Term{term}
	//
	for len(errs) == 0 && p.follows(OR) {
		p.expect(OR)
		//
		term, errs = p.parseConjunct()
		// Accumulate arguments
		terms = append(terms, term)
	}
	//
	switch {
	case len(errs) != 0:
		return nil, errs
	case len(terms) == 1:
		return terms[0], nil
	}
	//
	return &Disj{terms}, nil
}

func (p *Parser) parseConjunct() (Term, []source.SyntaxError) {
	term, errs := p.parseClause()
	// match all conjuncts
	terms := []Term{term}
	//
	for len(errs) == 0 && p.follows(AND) {
		p.expect(AND)
		//
		term, errs = p.parseClause()
		// Accumulate arguments
		terms = append(terms, term)
	}
	//
	switch {
	case len(errs) != 0:
		return nil, errs
	case len(terms) == 1:
		return terms[0], nil
	}
	//
	return &Conj{terms}, nil
}

func (p *Parser) parseClause() (Term, []source.SyntaxError) {
	// Check for negation
	if p.match(NOT) {
		arg, errs := p.parseClause()
		//
		if len(errs) != 0 {
			return nil, errs
		}
		//
		return &Not{arg}, nil
	}
	//
	return p.parseRelation()
}

func (p *Parser) parseRelation() (Term, []source.SyntaxError) {
	lhs, errs := p.parseUnit()
	//
	if len(errs) != 0 {
		return nil, errs
	}
	// Check for membership test
	if p.isKeyword("in") {
		return p.parseMembership(lhs)
	}
	// Check for comparison
	if !p.follows(COMPARATORS...) {
		// Not a binary relation
		return lhs, nil
	}
	//
	token := p.expect(p.lookahead().Kind)
	//
	rhs, errs := p.parseUnit()
	//
	if len(errs) != 0 {
		return nil, errs
	}
	//
	switch token.Kind {
	case EQUALS:
		return &Cmp{EQ, lhs, rhs}, nil
	case NOT_EQUALS:
		return &Cmp{NEQ, lhs, rhs}, nil
	case LESSTHAN:
		return &Cmp{LT, lhs, rhs}, nil
	case LESSTHAN_EQUALS:
		return &Cmp{LTEQ, lhs, rhs}, nil
	case GREATERTHAN:
		return &Cmp{GT, lhs, rhs}, nil
	default:
		return &Cmp{GTEQ, lhs, rhs}, nil
	}
}

func (p *Parser) parseMembership(lhs Term) (Term, []source.SyntaxError) {
	var elems []Value
	// Consume "in" keyword
	p.expect(IDENTIFIER)
	//
	if !p.match(LSQUARE) {
		return nil, p.syntaxErrors(p.lookahead(), "expected '['")
	}
	//
	for {
		token := p.lookahead()
		//
		value, ok := p.parseLiteral(token)
		if !ok {
			return nil, p.syntaxErrors(token, "literal expected")
		}
		//
		p.expect(token.Kind)
		elems = append(elems, value)
		// Continue whilst commas follow
		if !p.match(COMMA) {
			break
		}
	}
	//
	if !p.match(RSQUARE) {
		return nil, p.syntaxErrors(p.lookahead(), "expected ']'")
	}
	//
	return &Member{lhs, elems}, nil
}

func (p *Parser) parseUnit() (Term, []source.SyntaxError) {
	token := p.lookahead()
	//
	switch token.Kind {
	case LBRACE:
		return p.parseBracketedTerm()
	case IDENTIFIER:
		if p.isKeyword("true") || p.isKeyword("false") {
			p.expect(IDENTIFIER)
			return &Lit{BoolValue(p.srcfile.Text(token.Span) == "true")}, nil
		}
		//
		return p.parsePath()
	case NUMBER, FLOAT, STRING:
		value, _ := p.parseLiteral(token)
		p.expect(token.Kind)
		//
		return &Lit{value}, nil
	}
	//
	return nil, p.syntaxErrors(token, "unknown expression")
}

func (p *Parser) parseBracketedTerm() (Term, []source.SyntaxError) {
	p.expect(LBRACE)
	//
	term, errs := p.parseDisjunct()
	//
	if len(errs) == 0 && !p.match(RBRACE) {
		return nil, p.syntaxErrors(p.lookahead(), "expected ')'")
	}
	//
	return term, errs
}

// Parse a (possibly dotted) member path, which may terminate in a method
// call.  Recognised string operations become StrOp terms; anything else
// called is preserved verbatim as an opaque term.
func (p *Parser) parsePath() (Term, []source.SyntaxError) {
	var (
		first    = p.expect(IDENTIFIER)
		segments = []string{p.srcfile.Text(first.Span)}
	)
	//
	for p.follows(DOT) {
		p.expect(DOT)
		//
		if !p.follows(IDENTIFIER) {
			return nil, p.syntaxErrors(p.lookahead(), "expected identifier")
		}
		//
		segment := p.expect(IDENTIFIER)
		segments = append(segments, p.srcfile.Text(segment.Span))
	}
	// Check for a method call
	if p.follows(LBRACE) {
		return p.parseCall(first, segments)
	}
	// Plain variable reference
	name := strings.Join(segments, ".")
	//
	if !p.environment(segments[0]) {
		return nil, p.syntaxErrors(first, "unknown variable")
	}
	//
	return &Ident{name}, nil
}

// Parse a method call.  A string operation on a known variable becomes a
// StrOp; everything else is swallowed verbatim (up to the balancing brace)
// into an opaque term.
func (p *Parser) parseCall(first lex.Token, segments []string) (Term, []source.SyntaxError) {
	var (
		method     = segments[len(segments)-1]
		base       = strings.Join(segments[:len(segments)-1], ".")
		kind, isOp = StrOpKindOf(method)
	)
	//
	if isOp && len(segments) > 1 && p.environment(segments[0]) {
		p.expect(LBRACE)
		//
		token := p.lookahead()
		if token.Kind != STRING {
			return nil, p.syntaxErrors(token, "string literal expected")
		}
		//
		p.expect(STRING)
		//
		if !p.match(RBRACE) {
			return nil, p.syntaxErrors(p.lookahead(), "expected ')'")
		}
		//
		return &StrOp{kind, &Ident{base}, unquote(p.srcfile.Text(token.Span))}, nil
	}
	// Unknown call: swallow balanced braces, preserving the text.
	p.expect(LBRACE)
	//
	depth := 1
	//
	for depth > 0 {
		token := p.lookahead()
		//
		switch token.Kind {
		case END_OF:
			return nil, p.syntaxErrors(token, "expected ')'")
		case LBRACE:
			depth++
		case RBRACE:
			depth--
		}
		//
		p.expect(token.Kind)
	}
	//
	span := source.NewSpan(first.Span.Start(), p.tokens[p.index-1].Span.End())
	//
	return &Opaque{p.srcfile.Text(span)}, nil
}

// Parse a literal token into a value, without consuming it.
func (p *Parser) parseLiteral(token lex.Token) (Value, bool) {
	text := p.srcfile.Text(token.Span)
	//
	switch token.Kind {
	case NUMBER:
		val, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, false
		}
		//
		return IntValue(val), true
	case FLOAT:
		val, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, false
		}
		//
		return FloatValue(val), true
	case STRING:
		return StringValue(unquote(text)), true
	case IDENTIFIER:
		switch text {
		case "true":
			return BoolValue(true), true
		case "false":
			return BoolValue(false), true
		}
	}
	//
	return Value{}, false
}

// Check whether the lookahead is a given (identifier) keyword.
func (p *Parser) isKeyword(word string) bool {
	token := p.lookahead()
	//
	return token.Kind == IDENTIFIER && p.srcfile.Text(token.Span) == word
}

// Follows checks whether one of the given token kinds is next.
func (p *Parser) follows(options ...uint) bool {
	return slices.Contains(options, p.lookahead().Kind)
}

// Lookahead returns the next token.  This must exist because EOF is always
// appended at the end of the token stream.
func (p *Parser) lookahead() lex.Token {
	return p.tokens[p.index]
}

func (p *Parser) expect(kind uint) lex.Token {
	if p.lookahead().Kind != kind {
		panic("internal failure")
	}
	//
	token := p.tokens[p.index]
	p.index++
	//
	return token
}

func (p *Parser) match(kind uint) bool {
	if p.lookahead().Kind == kind {
		p.index++
		return true
	}
	//
	return false
}

func (p *Parser) syntaxErrors(token lex.Token, msg string) []source.SyntaxError {
	return []source.SyntaxError{*p.srcfile.SyntaxError(token.Span, msg)}
}

// Strip the enclosing quotes from a lexed string literal.
func unquote(text string) string {
	return text[1 : len(text)-1]
}
