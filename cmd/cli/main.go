package main

import "github.com/hydroscan/wqctl/pkg/cli"

func main() {
	cli.Execute()
}
