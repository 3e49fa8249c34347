package main

import (
	"github.com/openarcade/roomhost/internal/cli"
)

func main() {
	cli.Execute()
}
