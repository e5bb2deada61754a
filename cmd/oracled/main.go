package main

import "github.com/LeJamon/goOracled/internal/cli"

func main() {
	cli.Execute()
}
