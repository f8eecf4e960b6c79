package main

import (
	"github.com/consensys/go-dectab/pkg/cmd"
)

func main() {
	cmd.Execute()
}
