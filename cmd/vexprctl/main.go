// cmd/vexprctl/main.go
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"vexpr"
	"vexpr/dtype"
)

const VERSION = "1.0.0"

// varFlag collects repeated -var name:dtype=v1,v2,... specs.
type varFlag []string

func (v *varFlag) String() string     { return strings.Join(*v, " ") }
func (v *varFlag) Set(s string) error { *v = append(*v, s); return nil }

var colorize = isatty.IsTerminal(os.Stderr.Fd())

func fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if colorize {
		msg = "\x1b[31m" + msg + "\x1b[0m"
	}
	fmt.Fprintln(os.Stderr, "vexprctl: "+msg)
	os.Exit(1)
}

func main() {
	var (
		exprSrc = flag.String("e", "", "expression source, e.g. 'a*b+c'")
		target  = flag.String("dtype", "Auto", "target dtype (Auto, Bool, I8..U64, F32, F64, C64, C128)")
		vars    varFlag
		version = flag.Bool("version", false, "print version and exit")
	)
	flag.Var(&vars, "var", "variable spec name:dtype=v1,v2,... (repeatable)")
	flag.Usage = showUsage
	flag.Parse()

	if *version {
		fmt.Println("vexprctl " + VERSION)
		return
	}
	if *exprSrc == "" {
		showUsage()
		os.Exit(2)
	}

	td, ok := dtype.ByName[*target]
	if !ok {
		fatalf("unknown dtype %q", *target)
	}

	symbols, blocks, nitems, err := parseVars(vars)
	if err != nil {
		fatalf("%v", err)
	}

	expr, perr := vexpr.Compile(*exprSrc, symbols, td)
	if perr != nil {
		fatalf("%v", perr)
	}

	// blocks arrive keyed by variable name; Evaluate wants them in
	// the expression's first-occurrence order
	ordered := make([][]byte, len(expr.VarNames))
	for i, name := range expr.VarNames {
		b, found := blocks[name]
		if !found {
			fatalf("expression references %s but no -var %s was given", name, name)
		}
		ordered[i] = b
	}

	out := make([]byte, nitems*expr.Dtype().ItemSize())
	if err := expr.Evaluate(ordered, out, int32(nitems), vexpr.EvalParams{}); err != nil {
		fatalf("%v", err)
	}

	fmt.Printf("dtype: %s\n", expr.Dtype())
	fmt.Printf("out:   %s\n", formatBlock(out, expr.Dtype(), nitems))
}

// parseVars decodes every -var spec into a Symbol plus a little-endian
// element buffer. All variables must share one element count.
func parseVars(specs []string) ([]vexpr.Symbol, map[string][]byte, int, error) {
	symbols := make([]vexpr.Symbol, 0, len(specs))
	blocks := make(map[string][]byte, len(specs))
	nitems := -1

	for _, spec := range specs {
		head, vals, found := strings.Cut(spec, "=")
		if !found {
			return nil, nil, 0, fmt.Errorf("bad -var spec %q, want name:dtype=v1,v2,...", spec)
		}
		name, dtName, found := strings.Cut(head, ":")
		if !found {
			return nil, nil, 0, fmt.Errorf("bad -var spec %q, missing :dtype", spec)
		}
		d, ok := dtype.ByName[dtName]
		if !ok || !d.IsNumeric() {
			return nil, nil, 0, fmt.Errorf("bad -var spec %q, unknown dtype %q", spec, dtName)
		}

		fields := strings.Split(vals, ",")
		if nitems == -1 {
			nitems = len(fields)
		} else if nitems != len(fields) {
			return nil, nil, 0, fmt.Errorf("variable %s has %d elements, expected %d", name, len(fields), nitems)
		}

		buf, err := encodeBlock(fields, d)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("variable %s: %v", name, err)
		}
		symbols = append(symbols, vexpr.Symbol{Name: name, Dtype: d, ItemSize: d.ItemSize()})
		blocks[name] = buf
	}
	return symbols, blocks, nitems, nil
}

func encodeBlock(fields []string, d dtype.Dtype) ([]byte, error) {
	buf := make([]byte, len(fields)*d.ItemSize())
	for i, f := range fields {
		f = strings.TrimSpace(f)
		switch d {
		case dtype.Bool:
			v, err := strconv.ParseBool(f)
			if err != nil {
				return nil, err
			}
			if v {
				buf[i] = 1
			}
		case dtype.I8, dtype.I16, dtype.I32, dtype.I64:
			v, err := strconv.ParseInt(f, 10, 64)
			if err != nil {
				return nil, err
			}
			putUint(buf, i, d.ItemSize(), uint64(v))
		case dtype.U8, dtype.U16, dtype.U32, dtype.U64:
			v, err := strconv.ParseUint(f, 10, 64)
			if err != nil {
				return nil, err
			}
			putUint(buf, i, d.ItemSize(), v)
		case dtype.F32:
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, err
			}
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(v)))
		case dtype.F64:
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, err
			}
			binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
		case dtype.C64, dtype.C128:
			v, err := strconv.ParseComplex(f, 128)
			if err != nil {
				return nil, err
			}
			if d == dtype.C64 {
				binary.LittleEndian.PutUint32(buf[i*8:], math.Float32bits(float32(real(v))))
				binary.LittleEndian.PutUint32(buf[i*8+4:], math.Float32bits(float32(imag(v))))
			} else {
				binary.LittleEndian.PutUint64(buf[i*16:], math.Float64bits(real(v)))
				binary.LittleEndian.PutUint64(buf[i*16+8:], math.Float64bits(imag(v)))
			}
		}
	}
	return buf, nil
}

func putUint(buf []byte, i, size int, v uint64) {
	switch size {
	case 1:
		buf[i] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(buf[i*8:], v)
	}
}

func formatBlock(buf []byte, d dtype.Dtype, nitems int) string {
	parts := make([]string, nitems)
	for i := 0; i < nitems; i++ {
		switch d {
		case dtype.Bool:
			parts[i] = strconv.FormatBool(buf[i] != 0)
		case dtype.I8:
			parts[i] = strconv.FormatInt(int64(int8(buf[i])), 10)
		case dtype.I16:
			parts[i] = strconv.FormatInt(int64(int16(binary.LittleEndian.Uint16(buf[i*2:]))), 10)
		case dtype.I32:
			parts[i] = strconv.FormatInt(int64(int32(binary.LittleEndian.Uint32(buf[i*4:]))), 10)
		case dtype.I64:
			parts[i] = strconv.FormatInt(int64(binary.LittleEndian.Uint64(buf[i*8:])), 10)
		case dtype.U8:
			parts[i] = strconv.FormatUint(uint64(buf[i]), 10)
		case dtype.U16:
			parts[i] = strconv.FormatUint(uint64(binary.LittleEndian.Uint16(buf[i*2:])), 10)
		case dtype.U32:
			parts[i] = strconv.FormatUint(uint64(binary.LittleEndian.Uint32(buf[i*4:])), 10)
		case dtype.U64:
			parts[i] = strconv.FormatUint(binary.LittleEndian.Uint64(buf[i*8:]), 10)
		case dtype.F32:
			parts[i] = strconv.FormatFloat(float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))), 'g', -1, 32)
		case dtype.F64:
			parts[i] = strconv.FormatFloat(math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:])), 'g', -1, 64)
		case dtype.C64:
			re := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*8:]))
			im := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*8+4:]))
			parts[i] = fmt.Sprintf("(%g%+gi)", re, im)
		case dtype.C128:
			re := math.Float64frombits(binary.LittleEndian.Uint64(buf[i*16:]))
			im := math.Float64frombits(binary.LittleEndian.Uint64(buf[i*16+8:]))
			parts[i] = fmt.Sprintf("(%g%+gi)", re, im)
		}
	}
	return strings.Join(parts, ", ")
}

func showUsage() {
	fmt.Println("vexprctl " + VERSION + " - evaluate a block expression from the command line")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  vexprctl -e <expression> [-dtype <target>] -var name:dtype=v1,v2,... [...]")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  vexprctl -e 'a*b+c' -var a:F32=1,2,3 -var b:F32=4,5,6 -var c:F32=7,8,9")
	fmt.Println("  vexprctl -e 'sum(x**2)' -var x:F64=0.5,1,2")
	fmt.Println("  vexprctl -e 'where(a>0, a, -a)' -var a:I32=-3,-1,0,2,5")
}
