// Package main implements the jflow CLI. It interprets Java UI sources at
// design time: it walks their execution flow, tracks variables and values,
// evaluates expressions and builds the component model.
package main

import (
	"fmt"
	"os"

	"github.com/l3aro/go-java-flow/cmd/jflow/commands"
)

var (
	version   = "dev"
	buildTime = ""
)

func main() {
	root := commands.NewRootCmd()
	root.Version = version
	if buildTime != "" {
		root.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
	}
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
