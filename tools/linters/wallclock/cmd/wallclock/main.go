package main

import (
	"github.com/rezkam/hearth/tools/linters/wallclock"
	"golang.org/x/tools/go/analysis/singlechecker"
)

func main() {
	singlechecker.Main(wallclock.Analyzer)
}
