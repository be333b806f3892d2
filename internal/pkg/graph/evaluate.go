package graph

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/anicoll/strom-graph/internal/pkg/model"
	"github.com/anicoll/strom-graph/internal/pkg/rpn"
)

// Evaluate binds the spec's DEF names to dataset channels and computes every
// CDEF row by row, in directive order. The result is keyed by variable name
// and holds both bound and computed series.
func Evaluate(spec *Spec, ds *model.Dataset) (map[string][]float64, error) {
	series := make(map[string][]float64)
	for _, d := range spec.Directives {
		switch d := d.(type) {
		case Def:
			values, ok := ds.Values[d.DS]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrMissingChannel, d.DS)
			}
			series[d.VName] = values
		case CDef:
			prog, err := rpn.Compile(d.RPN)
			if err != nil {
				return nil, fmt.Errorf("compiling %s: %w", d.VName, err)
			}
			if unbound := lo.Reject(prog.Vars(), func(name string, _ int) bool {
				_, ok := series[name]
				return ok
			}); len(unbound) > 0 {
				return nil, fmt.Errorf("evaluating %s: %w: %s", d.VName, rpn.ErrUnknownVar, strings.Join(unbound, ", "))
			}
			out := make([]float64, ds.Rows)
			for row := range out {
				v, err := prog.Eval(func(name string) (float64, bool) {
					values, ok := series[name]
					if !ok || row >= len(values) {
						return 0, false
					}
					return values[row], true
				})
				if err != nil {
					return nil, fmt.Errorf("evaluating %s: %w", d.VName, err)
				}
				out[row] = v
			}
			series[d.VName] = out
		}
	}
	return series, nil
}
