package main

import "darkrift/internal/cli"

func main() {
	cli.Execute()
}
