// Package filter evaluates user-supplied boolean expressions against
// memory regions, so snapshots can be trimmed to the mappings of interest
// (e.g. `type == "heap" || rss_kb > 1024`).
//
// Expressions use the expr language and are compiled once, at filter
// construction, against a fixed environment of region fields.
package filter

import (
	"fmt"
	"log"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"memc/internal/region"
)

// Filter holds one pre-compiled region expression.
type Filter struct {
	src  string
	prog *vm.Program
}

// regionEnv builds the expression environment for one region. Residency
// fields evaluate to zero when the region has no smaps detail; has_detail
// lets expressions tell the two cases apart.
func regionEnv(r *region.Region) map[string]any {
	return map[string]any{
		"type":       r.Type.String(),
		"path":       r.Pathname,
		"perm":       r.Permissions,
		"inode":      r.Inode,
		"size_kb":    r.SizeKB,
		"rss_kb":     r.RSSKB,
		"pss_kb":     r.PSSKB,
		"swap_kb":    r.SwapKB,
		"has_detail": r.HasDetail,
	}
}

// New compiles a filter expression. The expression must evaluate to a
// boolean.
func New(src string) (*Filter, error) {
	prog, err := expr.Compile(src, expr.Env(regionEnv(&region.Region{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("failed to compile filter expression %q: %w", src, err)
	}
	return &Filter{src: src, prog: prog}, nil
}

// Match evaluates the expression for one region.
func (f *Filter) Match(r *region.Region) (bool, error) {
	out, err := expr.Run(f.prog, regionEnv(r))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate filter expression %q: %w", f.src, err)
	}
	keep, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("filter expression %q did not yield a boolean", f.src)
	}
	return keep, nil
}

// Apply returns a shallow copy of snap keeping only matching regions, in
// their original order. A region whose evaluation errors is dropped with a
// warning rather than failing the snapshot.
func (f *Filter) Apply(snap *region.Snapshot) *region.Snapshot {
	out := *snap
	out.Regions = make([]region.Region, 0, len(snap.Regions))
	for i := range snap.Regions {
		keep, err := f.Match(&snap.Regions[i])
		if err != nil {
			log.Printf("Warning: %v", err)
			continue
		}
		if keep {
			out.Regions = append(out.Regions, snap.Regions[i])
		}
	}
	return &out
}
