// Package parser implements the twelve-level recursive-descent
// precedence grammar over the token stream, building a dtype-stamped
// internal/ast.Node tree. One method per grammar level, lowest to
// highest precedence: list, or, and, not, comparison, bitwise or/xor/
// and, shift, add, term, factor, power, base. Errors deep in the
// descent panic with a *errors.ParseError and are recovered once at
// Parse.
package parser

import (
	"fmt"

	"vexpr/dtype"
	"vexpr/internal/ast"
	verr "vexpr/internal/errors"
	"vexpr/internal/lexer"
)

type Parser struct {
	tokens  []lexer.Token
	current int
	symbols map[string]ast.Symbol
	funcs   map[string]ast.UserFunc
	target  dtype.Dtype

	varOrder []string
	varSeen  map[string]bool
}

func NewParser(tokens []lexer.Token, symbols []ast.Symbol, funcs []ast.UserFunc, target dtype.Dtype) *Parser {
	m := make(map[string]ast.Symbol, len(symbols))
	for _, s := range symbols {
		m[s.Name] = s
	}
	fm := make(map[string]ast.UserFunc, len(funcs))
	for _, f := range funcs {
		fm[f.Name] = f
	}
	return &Parser{
		tokens:  tokens,
		symbols: m,
		funcs:   fm,
		target:  target,
		varSeen: make(map[string]bool),
	}
}

// Parse parses the full token stream as one comma list, validates the
// final result dtype, and returns the root node plus the distinct
// variable names in first-occurrence order.
func (p *Parser) Parse() (root *ast.Node, varNames []string, perr *verr.ParseError) {
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(*verr.ParseError); ok {
				perr = pe
				root = nil
				varNames = nil
				return
			}
			panic(r)
		}
	}()

	root = p.list()
	if !p.isAtEnd() {
		p.fail(verr.ReasonExpectedExpr, fmt.Sprintf("unexpected trailing input %q", p.peek().Lexeme))
	}
	if root.Dtype == dtype.Str {
		p.fail(verr.ReasonStrOutput, "expression's final result dtype must not be Str")
	}
	return root, p.varOrder, nil
}

func (p *Parser) fail(reason verr.ParseReason, msg string) {
	pos := 0
	if !p.isAtEnd() {
		pos = p.peek().Pos
	}
	panic(verr.NewParseError(pos, reason, msg))
}

func (p *Parser) failAt(pos int, reason verr.ParseReason, msg string) {
	panic(verr.NewParseError(pos, reason, msg))
}

// --- token stream helpers ---

func (p *Parser) peek() lexer.Token { return p.tokens[p.current] }
func (p *Parser) isAtEnd() bool     { return p.peek().Type == lexer.TokEOF }
func (p *Parser) advance() lexer.Token {
	t := p.tokens[p.current]
	if !p.isAtEnd() {
		p.current++
	}
	return t
}

func (p *Parser) checkOp(lexeme string) bool {
	t := p.peek()
	return t.Type == lexer.TokOp && t.Lexeme == lexeme
}

func (p *Parser) matchOp(lexeme string) bool {
	if p.checkOp(lexeme) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) matchAny(lexemes ...string) (string, bool) {
	for _, l := range lexemes {
		if p.matchOp(l) {
			return l, true
		}
	}
	return "", false
}

func (p *Parser) matchType(t lexer.TokenType) bool {
	if p.peek().Type == t {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) consumeLParen(what string) {
	if !p.matchType(lexer.TokLParen) {
		p.fail(verr.ReasonMismatchedParen, "expected '(' "+what)
	}
}

func (p *Parser) consumeRParen(what string) {
	if !p.matchType(lexer.TokRParen) {
		p.fail(verr.ReasonMismatchedParen, "expected ')' "+what)
	}
}

// binOpOf maps an operator lexeme to its OpKind.
var binOpOf = map[string]ast.OpKind{
	"<": ast.OpLt, ">": ast.OpGt, "<=": ast.OpLe, ">=": ast.OpGe,
	"==": ast.OpEq, "!=": ast.OpNe,
	"|": ast.OpBitOr, "^": ast.OpBitXor, "&": ast.OpBitAnd,
	"<<": ast.OpShl, ">>": ast.OpShr,
	"+": ast.OpAdd, "-": ast.OpSub,
	"*": ast.OpMul, "/": ast.OpDiv, "%": ast.OpMod,
	"**": ast.OpPow,
}

// --- grammar, lowest to highest precedence ---

func (p *Parser) list() *ast.Node {
	n := p.logicalOr()
	for p.matchType(lexer.TokComma) {
		rhs := p.logicalOr()
		flags := ast.Flags(0)
		if n.Flags.Has(ast.FlagPure) && rhs.Flags.Has(ast.FlagPure) {
			flags = ast.FlagPure
		}
		n = &ast.Node{Kind: ast.KindFunction, Op: ast.OpComma, Dtype: rhs.Dtype, InputDtype: rhs.Dtype,
			Children: []*ast.Node{n, rhs}, Flags: flags}
	}
	return n
}

func (p *Parser) logicalOr() *ast.Node {
	n := p.logicalAnd()
	for {
		pos := p.peek().Pos
		if p.matchType(lexer.TokOr) || p.matchOp("||") {
			rhs := p.logicalAnd()
			node, err := ast.NewBinary(ast.OpLogOr, n, rhs, pos)
			if err != nil {
				panic(err)
			}
			n = node
			continue
		}
		break
	}
	return n
}

func (p *Parser) logicalAnd() *ast.Node {
	n := p.logicalNot()
	for {
		pos := p.peek().Pos
		if p.matchType(lexer.TokAnd) || p.matchOp("&&") {
			rhs := p.logicalNot()
			node, err := ast.NewBinary(ast.OpLogAnd, n, rhs, pos)
			if err != nil {
				panic(err)
			}
			n = node
			continue
		}
		break
	}
	return n
}

func (p *Parser) logicalNot() *ast.Node {
	if p.matchType(lexer.TokNot) {
		operand := p.logicalNot()
		return ast.NewUnary(ast.OpLogNot, operand)
	}
	return p.comparison()
}

func (p *Parser) comparison() *ast.Node {
	n := p.bitwiseOr()
	for {
		pos := p.peek().Pos
		lex, ok := p.matchAny("<", ">", "<=", ">=", "==", "!=")
		if !ok {
			break
		}
		rhs := p.bitwiseOr()
		node, err := ast.NewBinary(binOpOf[lex], n, rhs, pos)
		if err != nil {
			panic(err)
		}
		n = node
	}
	return n
}

func (p *Parser) bitwiseOr() *ast.Node {
	n := p.bitwiseXor()
	for {
		pos := p.peek().Pos
		if !p.matchOp("|") {
			break
		}
		rhs := p.bitwiseXor()
		node, err := ast.NewBinary(ast.OpBitOr, n, rhs, pos)
		if err != nil {
			panic(err)
		}
		n = node
	}
	return n
}

func (p *Parser) bitwiseXor() *ast.Node {
	n := p.bitwiseAnd()
	for {
		pos := p.peek().Pos
		if !p.matchOp("^") {
			break
		}
		rhs := p.bitwiseAnd()
		node, err := ast.NewBinary(ast.OpBitXor, n, rhs, pos)
		if err != nil {
			panic(err)
		}
		n = node
	}
	return n
}

func (p *Parser) bitwiseAnd() *ast.Node {
	n := p.shift()
	for {
		pos := p.peek().Pos
		if !p.matchOp("&") {
			break
		}
		rhs := p.shift()
		node, err := ast.NewBinary(ast.OpBitAnd, n, rhs, pos)
		if err != nil {
			panic(err)
		}
		n = node
	}
	return n
}

func (p *Parser) shift() *ast.Node {
	n := p.add()
	for {
		pos := p.peek().Pos
		lex, ok := p.matchAny("<<", ">>")
		if !ok {
			break
		}
		rhs := p.add()
		node, err := ast.NewBinary(binOpOf[lex], n, rhs, pos)
		if err != nil {
			panic(err)
		}
		n = node
	}
	return n
}

func (p *Parser) add() *ast.Node {
	n := p.term()
	for {
		pos := p.peek().Pos
		lex, ok := p.matchAny("+", "-")
		if !ok {
			break
		}
		rhs := p.term()
		node, err := ast.NewBinary(binOpOf[lex], n, rhs, pos)
		if err != nil {
			panic(err)
		}
		n = node
	}
	return n
}

func (p *Parser) term() *ast.Node {
	n := p.factor()
	for {
		pos := p.peek().Pos
		lex, ok := p.matchAny("*", "/", "%")
		if !ok {
			break
		}
		rhs := p.factor()
		node, err := ast.NewBinary(binOpOf[lex], n, rhs, pos)
		if err != nil {
			panic(err)
		}
		n = node
	}
	return n
}

func (p *Parser) factor() *ast.Node {
	n := p.power()
	for {
		pos := p.peek().Pos
		if !p.matchOp("**") {
			break
		}
		rhs := p.power()
		node, err := ast.NewBinary(ast.OpPow, n, rhs, pos)
		if err != nil {
			panic(err)
		}
		n = node
	}
	return n
}

func (p *Parser) power() *ast.Node {
	if p.matchOp("-") {
		return ast.NewUnary(ast.OpUnaryMinus, p.power())
	}
	if p.matchOp("+") {
		return ast.NewUnary(ast.OpUnaryPlus, p.power())
	}
	if p.matchOp("~") {
		pos := p.peek().Pos
		operand := p.power()
		if !operand.Dtype.IsInteger() && operand.Dtype != dtype.Bool {
			p.failAt(pos, verr.ReasonInvalidOperand,
				"~ requires an integer or boolean operand")
		}
		return ast.NewUnary(ast.OpBitNot, operand)
	}
	if p.matchType(lexer.TokNot) {
		return ast.NewUnary(ast.OpLogNot, p.power())
	}
	return p.base()
}

func (p *Parser) base() *ast.Node {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokNumber:
		p.advance()
		return ast.NewConstant(tok.NumValue, tok.NumDtype)
	case lexer.TokString:
		p.advance()
		return ast.NewStringConstant(tok.StrValue)
	case lexer.TokLParen:
		p.advance()
		inner := p.list()
		p.consumeRParen("after parenthesized expression")
		return inner
	case lexer.TokIdent:
		p.advance()
		return p.identifierExpr(tok)
	default:
		p.fail(verr.ReasonExpectedExpr, fmt.Sprintf("expected expression, found %q", tok.Lexeme))
		return nil
	}
}

func (p *Parser) identifierExpr(tok lexer.Token) *ast.Node {
	name := tok.Lexeme

	if sym, ok := p.symbols[name]; ok {
		if !p.varSeen[name] {
			p.varSeen[name] = true
			p.varOrder = append(p.varOrder, name)
		}
		return ast.NewVariable(sym.Name, sym.Dtype, sym.ItemSize)
	}

	if f, ok := p.funcs[name]; ok {
		return p.userCall(f, tok.Pos)
	}

	b, ok := ast.Lookup(name)
	if !ok {
		p.failAt(tok.Pos, verr.ReasonUnknownIdentifier, "unknown identifier "+name)
	}

	switch b.Arity {
	case 0:
		if p.matchType(lexer.TokLParen) {
			p.consumeRParen("after nullary function call")
		}
		return &ast.Node{Kind: ast.KindFunction, Op: b.Op, Dtype: b.ExplicitDtype, InputDtype: b.ExplicitDtype, Flags: ast.FlagPure}
	case 1:
		arg := p.power()
		node, err := ast.NewFunc1(b, arg, tok.Pos)
		if err != nil {
			panic(err)
		}
		return node
	default:
		return p.parenArgsCall(b, tok.Pos)
	}
}

// userCall parses a call to a caller-registered function, following the
// same call shapes as builtins: arity-0 with optional empty parens,
// arity-1 taking a bare power expression, arity>=2 requiring
// parenthesized comma-separated arguments.
func (p *Parser) userCall(f ast.UserFunc, pos int) *ast.Node {
	switch f.Arity {
	case 0:
		if p.matchType(lexer.TokLParen) {
			p.consumeRParen("after nullary function call")
		}
		return ast.NewClosure(f)
	case 1:
		return ast.NewClosure(f, p.power())
	default:
		p.consumeLParen("before " + f.Name + " arguments")
		var args []*ast.Node
		if !p.checkType(lexer.TokRParen) {
			args = append(args, p.comparison())
			for p.matchType(lexer.TokComma) {
				args = append(args, p.comparison())
			}
		}
		p.consumeRParen("after " + f.Name + " arguments")
		if len(args) != f.Arity {
			p.failAt(pos, verr.ReasonWrongArity,
				fmt.Sprintf("%s expects %d argument(s), got %d", f.Name, f.Arity, len(args)))
		}
		return ast.NewClosure(f, args...)
	}
}

func (p *Parser) parenArgsCall(b ast.Builtin, pos int) *ast.Node {
	p.consumeLParen("before " + b.Name + " arguments")
	var args []*ast.Node
	if !p.checkType(lexer.TokRParen) {
		args = append(args, p.comparison())
		for p.matchType(lexer.TokComma) {
			args = append(args, p.comparison())
		}
	}
	p.consumeRParen("after " + b.Name + " arguments")

	if len(args) != b.Arity {
		p.failAt(pos, verr.ReasonWrongArity,
			fmt.Sprintf("%s expects %d argument(s), got %d", b.Name, b.Arity, len(args)))
	}

	switch b.Op {
	case ast.OpStartsWith, ast.OpEndsWith, ast.OpContains:
		node, err := ast.NewStringRelation(b.Op, args[0], args[1], pos)
		if err != nil {
			panic(err)
		}
		return node
	case ast.OpWhere:
		return ast.NewWhere(args[0], args[1], args[2])
	default:
		if b.Arity == 1 {
			node, err := ast.NewFunc1(b, args[0], pos)
			if err != nil {
				panic(err)
			}
			return node
		}
		node, err := ast.NewFuncN(b, args, pos)
		if err != nil {
			panic(err)
		}
		return node
	}
}

func (p *Parser) checkType(t lexer.TokenType) bool { return p.peek().Type == t }
