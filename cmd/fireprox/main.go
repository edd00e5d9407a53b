package main

import (
	"os"

	"github.com/viant/fireprox/gateway"
)

func main() {
	gateway.Run(os.Args[1:])
}
