package main

import "github.com/mcoot/osrsbingo/internal/cli"

func main() {
	cli.Execute()
}
