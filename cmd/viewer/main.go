package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/process"
)

func main() {
	matchID := flag.String("match", "", "match id to follow")
	flag.Parse()

	if *matchID == "" {
		fmt.Fprintln(os.Stderr, "usage: viewer -match <id>")
		os.Exit(2)
	}
	process.Run(process.ProcessConfig{Name: "viewer", FollowMatch: *matchID})
}
