package main

import (
	"fmt"
	"os"

	"github.com/zeu5/reinforced/benchmarks"
)

// main entry point to all the benchmarks
func main() {
	rootCommand := benchmarks.GetRootCommand()
	if err := rootCommand.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
