package ir

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// printer assigns stable local names while rendering one operation tree.
type printer struct {
	b          strings.Builder
	indent     int
	valueNames map[Value]string
	blockNames map[*Block]string
	nextValue  int
	nextBlock  int
}

// PrintOperation renders the operation and everything nested in it in the
// generic textual form.
func PrintOperation(op *Operation) string {
	p := &printer{
		valueNames: make(map[Value]string),
		blockNames: make(map[*Block]string),
	}
	p.printOp(op)
	return p.b.String()
}

// String renders the operation; see PrintOperation.
func (op *Operation) String() string { return PrintOperation(op) }

// Dump writes the operation to stderr with a trailing newline.
func (op *Operation) Dump() { fmt.Fprintln(os.Stderr, PrintOperation(op)) }

// FprintOperation writes the rendered operation to w.
func FprintOperation(w io.Writer, op *Operation) error {
	_, err := io.WriteString(w, PrintOperation(op))
	return err
}

func (p *printer) valueName(v Value) string {
	if name, ok := p.valueNames[v]; ok {
		return name
	}
	name := fmt.Sprintf("%%%d", p.nextValue)
	p.nextValue++
	p.valueNames[v] = name
	return name
}

func (p *printer) blockName(b *Block) string {
	if name, ok := p.blockNames[b]; ok {
		return name
	}
	name := fmt.Sprintf("^bb%d", p.nextBlock)
	p.nextBlock++
	p.blockNames[b] = name
	return name
}

func (p *printer) line() {
	p.b.WriteByte('\n')
	for i := 0; i < p.indent; i++ {
		p.b.WriteString("  ")
	}
}

func (p *printer) printOp(op *Operation) {
	if n := op.NumResults(); n > 0 {
		first := p.valueName(op.Result(0))
		for i := 1; i < n; i++ {
			p.valueName(op.Result(i))
		}
		p.b.WriteString(first)
		if n > 1 {
			fmt.Fprintf(&p.b, ":%d", n)
		}
		p.b.WriteString(" = ")
	}

	if hooks := opHooks(op); hooks != nil && hooks.Print != nil {
		p.b.WriteString(hooks.Print(op))
		p.printRegions(op)
		return
	}

	fmt.Fprintf(&p.b, "%q", op.Name().Name())
	p.b.WriteByte('(')
	for i := 0; i < op.NumOperands(); i++ {
		if i > 0 {
			p.b.WriteString(", ")
		}
		p.b.WriteString(p.valueName(op.Operand(i)))
	}
	p.b.WriteByte(')')

	if op.NumSuccessors() > 0 {
		p.b.WriteByte('[')
		for i := 0; i < op.NumSuccessors(); i++ {
			if i > 0 {
				p.b.WriteString(", ")
			}
			p.b.WriteString(p.blockName(op.Successor(i)))
		}
		p.b.WriteByte(']')
	}

	p.printRegions(op)

	if props := op.GetPropertiesAsAttr(); !props.IsNil() {
		p.b.WriteString(" <")
		p.b.WriteString(props.String())
		p.b.WriteByte('>')
	}
	if !op.Attrs().IsNil() && op.Attrs().Len() > 0 {
		p.b.WriteByte(' ')
		p.b.WriteString(op.Attrs().String())
	}

	p.b.WriteString(" : (")
	for i := 0; i < op.NumOperands(); i++ {
		if i > 0 {
			p.b.WriteString(", ")
		}
		p.b.WriteString(op.Operand(i).Type().String())
	}
	p.b.WriteString(") -> (")
	for i := 0; i < op.NumResults(); i++ {
		if i > 0 {
			p.b.WriteString(", ")
		}
		p.b.WriteString(op.Result(i).Type().String())
	}
	p.b.WriteByte(')')
}

func (p *printer) printRegions(op *Operation) {
	if op.NumRegions() == 0 {
		return
	}
	p.b.WriteString(" (")
	for i, r := range op.Regions() {
		if i > 0 {
			p.b.WriteString(", ")
		}
		p.printRegion(r)
	}
	p.b.WriteByte(')')
}

func (p *printer) printRegion(r *Region) {
	p.b.WriteByte('{')
	p.indent++
	for b := r.First(); b != nil; b = b.NextBlock() {
		// The entry block header is omitted when it has no arguments and no
		// predecessors, matching the compact form.
		if !b.IsEntryBlock() || b.NumArgs() > 0 || b.HasPredecessors() {
			p.line()
			p.b.WriteString(p.blockName(b))
			if b.NumArgs() > 0 {
				p.b.WriteByte('(')
				for i, arg := range b.Args() {
					if i > 0 {
						p.b.WriteString(", ")
					}
					fmt.Fprintf(&p.b, "%s: %s", p.valueName(arg), arg.Type())
				}
				p.b.WriteByte(')')
			}
			p.b.WriteByte(':')
		}
		for inner := b.First(); inner != nil; inner = inner.NextOp() {
			p.line()
			p.printOp(inner)
		}
	}
	p.indent--
	p.line()
	p.b.WriteByte('}')
}
