package main

import "github.com/dyike/CortexReview/internal/cli"

func main() {
	cli.Run()
}
