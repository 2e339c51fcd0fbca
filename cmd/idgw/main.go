package main

import "github.com/mcoot/idgateway/internal/cli"

func main() {
	cli.Execute()
}
