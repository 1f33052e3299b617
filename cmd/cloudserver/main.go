package main

import "github.com/mcoot/cloudserver/internal/cli"

func main() {
	cli.Execute()
}
