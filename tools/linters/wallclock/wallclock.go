// Package wallclock provides a linter that forbids reading the wall clock.
//
// Schedule arithmetic and calendar rendering take the current instant as an
// argument so results depend only on their inputs. The analyzer reports every
// reference to time.Now, time.Since and time.Until, including uses as values
// such as `now := time.Now`.
//
// Run it on the packages that must stay clock-free:
//
//	wallclock ./internal/recurrence/... ./internal/calendar/... ./internal/domain/...
//
// Test files are skipped. A //nolint or //nolint:wallclock comment on the same
// line or the line before suppresses a report.
package wallclock

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
)

const name = "wallclock"

// Analyzer reports wall clock reads.
var Analyzer = &analysis.Analyzer{
	Name: name,
	Doc:  "forbids time.Now, time.Since and time.Until so callers pass the current instant explicitly",
	Run:  run,
}

var clockFuncs = map[string]bool{
	"Now":   true,
	"Since": true,
	"Until": true,
}

func run(pass *analysis.Pass) (any, error) {
	for _, file := range pass.Files {
		filename := pass.Fset.Position(file.Pos()).Filename
		if strings.HasSuffix(filename, "_test.go") {
			continue
		}

		ast.Inspect(file, func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			if !ok || !clockFuncs[sel.Sel.Name] {
				return true
			}
			if !isTimeFunc(pass, sel) {
				return true
			}
			if hasNolintComment(pass, file, sel) {
				return true
			}

			pass.Reportf(sel.Pos(), "time.%s reads the wall clock; take the current time as a parameter", sel.Sel.Name)
			return true
		})
	}
	return nil, nil
}

// isTimeFunc reports whether sel resolves to a function of package time,
// whatever name the import was given.
func isTimeFunc(pass *analysis.Pass, sel *ast.SelectorExpr) bool {
	fn, ok := pass.TypesInfo.Uses[sel.Sel].(*types.Func)
	if !ok || fn.Pkg() == nil {
		return false
	}
	return fn.Pkg().Path() == "time"
}

func hasNolintComment(pass *analysis.Pass, file *ast.File, node ast.Node) bool {
	line := pass.Fset.Position(node.Pos()).Line

	for _, cg := range file.Comments {
		for _, c := range cg.List {
			commentLine := pass.Fset.Position(c.Pos()).Line
			if commentLine != line && commentLine != line-1 {
				continue
			}
			text := strings.TrimPrefix(c.Text, "//")
			if !strings.HasPrefix(strings.TrimSpace(text), "nolint") {
				continue
			}
			// Bare //nolint, or a list naming this analyzer.
			if !strings.Contains(text, ":") || strings.Contains(text, name) {
				return true
			}
		}
	}
	return false
}
