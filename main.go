// main.go
//
// Entry point for the showcase CLI. Commands live in cmd/.

package main

import (
	"github.com/culturewave/showcase/cmd"
)

func main() {
	cmd.Execute()
}
