package lexer

import (
	"testing"

	"vexpr/dtype"
	verr "vexpr/internal/errors"
)

func scanOne(t *testing.T, src string, target dtype.Dtype) Token {
	t.Helper()
	s := NewScanner(src, target)
	toks, err := s.ScanTokens()
	if err != nil {
		t.Fatalf("ScanTokens(%q) failed: %v", src, err)
	}
	if len(toks) != 2 || toks[1].Type != TokEOF {
		t.Fatalf("ScanTokens(%q) = %d tokens, want 1 + EOF", src, len(toks))
	}
	return toks[0]
}

func TestNumericLiteralDtypes(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		target dtype.Dtype
		want   dtype.Dtype
		value  float64
	}{
		{"plain int", "42", dtype.Auto, dtype.I32, 42},
		{"int adopts integer target", "42", dtype.U16, dtype.U16, 42},
		{"int ignores float target", "42", dtype.F64, dtype.I32, 42},
		{"wide int", "3000000000", dtype.Auto, dtype.I64, 3000000000},
		{"positive range boundary", "2147483647", dtype.Auto, dtype.I32, 2147483647},
		{"just past boundary", "2147483648", dtype.Auto, dtype.I64, 2147483648},
		{"decimal point", "1.5", dtype.Auto, dtype.F64, 1.5},
		{"decimal with f32 target", "1.5", dtype.F32, dtype.F32, 1.5},
		{"exponent", "1e3", dtype.Auto, dtype.F64, 1000},
		{"exponent f32 target", "2E-1", dtype.F32, dtype.F32, 0.2},
		{"leading dot", ".25", dtype.Auto, dtype.F64, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := scanOne(t, tt.src, tt.target)
			if tok.Type != TokNumber {
				t.Fatalf("token type = %v, want TokNumber", tok.Type)
			}
			if tok.NumDtype != tt.want {
				t.Errorf("dtype of %q = %s, want %s", tt.src, tok.NumDtype, tt.want)
			}
			if tok.NumValue != tt.value {
				t.Errorf("value of %q = %v, want %v", tt.src, tok.NumValue, tt.value)
			}
		})
	}
}

func TestStringLiterals(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string // decoded code points, without the terminator
	}{
		{"double quoted", `"foo"`, "foo"},
		{"single quoted", `'bar'`, "bar"},
		{"escaped backslash", `"a\\b"`, `a\b`},
		{"escaped quote", `"a\"b"`, `a"b`},
		{"newline and tab", `"a\n\tb"`, "a\n\tb"},
		{"short unicode", "\"\\u00e9\"", "é"},
		{"long unicode", `"\U0001F600"`, "\U0001F600"},
		{"non-ascii utf8", `"héllo"`, "héllo"},
		{"empty", `""`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := scanOne(t, tt.src, dtype.Auto)
			if tok.Type != TokString {
				t.Fatalf("token type = %v, want TokString", tok.Type)
			}
			got := tok.StrValue
			if len(got) == 0 || got[len(got)-1] != 0 {
				t.Fatalf("string literal %q missing trailing null terminator", tt.src)
			}
			if string(got[:len(got)-1]) != tt.want {
				t.Errorf("decoded %q = %q, want %q", tt.src, string(got[:len(got)-1]), tt.want)
			}
		})
	}
}

func TestStringLiteralErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		reason verr.ParseReason
	}{
		{"unterminated", `"abc`, verr.ReasonUnterminatedString},
		{"unknown escape", `"\q"`, verr.ReasonBadEscape},
		{"truncated unicode", `"\u00"`, verr.ReasonBadEscape},
		{"non-hex unicode", `"\uZZZZ"`, verr.ReasonBadEscape},
		{"surrogate", `"\uD800"`, verr.ReasonBadEscape},
		{"above max code point", `"\U00110000"`, verr.ReasonBadEscape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner(tt.src, dtype.Auto)
			_, err := s.ScanTokens()
			if err == nil {
				t.Fatalf("ScanTokens(%q) succeeded, want error", tt.src)
			}
			if err.Reason != tt.reason {
				t.Errorf("reason = %q, want %q", err.Reason, tt.reason)
			}
		})
	}
}

func TestOperatorLongestMatch(t *testing.T) {
	s := NewScanner("a**b<<c<=d!=e", dtype.Auto)
	toks, err := s.ScanTokens()
	if err != nil {
		t.Fatalf("ScanTokens failed: %v", err)
	}
	var ops []string
	for _, tok := range toks {
		if tok.Type == TokOp {
			ops = append(ops, tok.Lexeme)
		}
	}
	want := []string{"**", "<<", "<=", "!="}
	if len(ops) != len(want) {
		t.Fatalf("got operators %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("operator %d = %q, want %q", i, ops[i], want[i])
		}
	}
}

func TestReservedWords(t *testing.T) {
	s := NewScanner("a and b or not c", dtype.Auto)
	toks, err := s.ScanTokens()
	if err != nil {
		t.Fatalf("ScanTokens failed: %v", err)
	}
	types := []TokenType{TokIdent, TokAnd, TokIdent, TokOr, TokNot, TokIdent, TokEOF}
	if len(toks) != len(types) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(types))
	}
	for i, want := range types {
		if toks[i].Type != want {
			t.Errorf("token %d type = %v, want %v", i, toks[i].Type, want)
		}
	}
}

func TestUnexpectedCharacter(t *testing.T) {
	s := NewScanner("a @ b", dtype.Auto)
	if _, err := s.ScanTokens(); err == nil {
		t.Fatal("ScanTokens accepted '@'")
	}
}
