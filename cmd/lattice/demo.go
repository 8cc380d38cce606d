package main

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lattice/internal/dialects/calc"
	"lattice/internal/ir"
	"lattice/internal/testkit"
)

var demoNoFold bool

func init() {
	demoCmd.Flags().BoolVar(&demoNoFold, "no-fold", false, "print the IR without constant folding")
}

var demoCmd = &cobra.Command{
	Use:   "demo <expression>",
	Short: "Build, verify and fold an arithmetic expression",
	Long: `Parse an integer expression with +, * and parentheses, lower it to
calc operations inside a module, verify the result and fold it down to a
single constant.`,
	Args: cobra.ExactArgs(1),
	RunE: runDemo,
}

func runDemo(cmd *cobra.Command, args []string) error {
	c, err := buildContext()
	if err != nil {
		return err
	}
	calc.Load(c)

	module := ir.CreateModuleOp(c, ir.GetUnknownLoc(c))
	body := module.Region(0).First()

	p := &exprParser{ctx: c, input: args[0], block: body, file: ir.GetStringAttr(c, "<demo>")}
	if _, err := p.parseExpr(); err != nil {
		return err
	}
	p.skipSpaces()
	if p.pos != len(p.input) {
		return fmt.Errorf("unexpected trailing input at column %d", p.pos+1)
	}

	if err := ir.Verify(module); err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	if err := testkit.CheckStructure(module); err != nil {
		return fmt.Errorf("structural check failed: %w", err)
	}

	out := cmd.OutOrStdout()
	color.NoColor = !colorEnabled(cmd)
	headColor := color.New(color.FgCyan, color.Bold)

	headColor.Fprintln(out, "-- before folding")
	fmt.Fprintln(out, module)

	if demoNoFold {
		return nil
	}

	foldModule(c, module)
	headColor.Fprintln(out, "-- after folding")
	fmt.Fprintln(out, module)

	for op := body.Last(); op != nil; op = op.PrevOp() {
		if v, err := calc.ConstantValue(op); err == nil {
			headColor.Fprint(out, "result: ")
			fmt.Fprintln(out, v)
			break
		}
	}
	return nil
}

// exprParser lowers "2 + 3 * (4 + 5)" directly to calc operations appended
// to block. Every operation carries a file:line:col location pointing into
// the expression string.
type exprParser struct {
	ctx   *ir.Context
	input string
	pos   int
	block *ir.Block
	file  ir.StringAttr
}

func (p *exprParser) loc() (ir.Location, error) {
	col, err := safecast.Conv[uint32](p.pos + 1)
	if err != nil {
		return ir.Location{}, fmt.Errorf("column overflow: %w", err)
	}
	return ir.GetFileLineColLoc(p.ctx, p.file, 1, col), nil
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

// parseExpr handles addition, the lowest precedence level.
func (p *exprParser) parseExpr() (ir.Value, error) {
	lhs, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.peek() == '+' {
		loc, err := p.loc()
		if err != nil {
			return nil, err
		}
		p.pos++
		rhs, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		op, err := calc.NewAdd(p.ctx, loc, lhs, rhs)
		if err != nil {
			return nil, err
		}
		p.block.PushBack(op)
		lhs = op.Result(0)
	}
	return lhs, nil
}

func (p *exprParser) parseTerm() (ir.Value, error) {
	lhs, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.peek() == '*' {
		loc, err := p.loc()
		if err != nil {
			return nil, err
		}
		p.pos++
		rhs, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		op, err := calc.NewMul(p.ctx, loc, lhs, rhs)
		if err != nil {
			return nil, err
		}
		p.block.PushBack(op)
		lhs = op.Result(0)
	}
	return lhs, nil
}

func (p *exprParser) parseAtom() (ir.Value, error) {
	switch ch := p.peek(); {
	case ch == '(':
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, fmt.Errorf("expected ')' at column %d", p.pos+1)
		}
		p.pos++
		return v, nil
	case ch == '-' || (ch >= '0' && ch <= '9'):
		start := p.pos
		p.pos++
		for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
			p.pos++
		}
		value, err := strconv.ParseInt(strings.TrimSpace(p.input[start:p.pos]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number at column %d: %w", start+1, err)
		}
		loc, err := p.loc()
		if err != nil {
			return nil, err
		}
		op, err := calc.NewConstant(p.ctx, loc, value)
		if err != nil {
			return nil, err
		}
		p.block.PushBack(op)
		return op.Result(0), nil
	case ch == 0:
		return nil, fmt.Errorf("unexpected end of expression")
	default:
		return nil, fmt.Errorf("unexpected %q at column %d", ch, p.pos+1)
	}
}

// foldModule repeatedly folds operations bottom-up until a fixpoint,
// materializing produced constants as calc.constant operations.
func foldModule(c *ir.Context, module *ir.Operation) {
	for changed := true; changed; {
		changed = false
		module.Walk(func(op *ir.Operation) ir.WalkResult {
			if op == module || op.NumResults() != 1 {
				return ir.WalkAdvance
			}
			operands := make([]ir.Attribute, op.NumOperands())
			for i := 0; i < op.NumOperands(); i++ {
				if def := op.Operand(i).DefiningOp(); def != nil {
					if v, err := calc.ConstantValue(def); err == nil {
						operands[i] = ir.GetIntegerAttr(c, op.Operand(i).Type(), v).Attribute
					}
				}
			}
			results, ok := op.Fold(operands)
			if !ok || len(results) != 1 || op.Name().ID() == calc.ConstantOpID {
				return ir.WalkAdvance
			}

			var replacement ir.Value
			if results[0].IsAttr() {
				value := ir.IntegerAttr{Attribute: results[0].Attr()}.Value()
				cst, err := calc.NewConstant(c, op.Loc(), value)
				if err != nil {
					return ir.WalkAdvance
				}
				cst.MoveBefore(op)
				replacement = cst.Result(0)
			} else {
				replacement = results[0].Value()
			}
			ir.ReplaceAllUsesWith(op.Result(0), replacement)
			op.Erase()
			changed = true
			return ir.WalkAdvance
		})
		pruneDeadConstants(module)
	}
}

// pruneDeadConstants erases constant-like operations whose results are
// unused.
func pruneDeadConstants(module *ir.Operation) {
	var dead []*ir.Operation
	module.Walk(func(op *ir.Operation) ir.WalkResult {
		if op.HasTrait(ir.TraitConstantLike) && op.NumResults() == 1 && ir.UseEmpty(op.Result(0)) {
			dead = append(dead, op)
		}
		return ir.WalkAdvance
	})
	// Keep the last surviving constant as the module's result.
	if len(dead) > 0 && moduleOpCount(module) == len(dead) {
		dead = dead[:len(dead)-1]
	}
	for _, op := range dead {
		op.Erase()
	}
}

func moduleOpCount(module *ir.Operation) int {
	count := 0
	module.Walk(func(op *ir.Operation) ir.WalkResult {
		if op != module {
			count++
		}
		return ir.WalkAdvance
	})
	return count
}
