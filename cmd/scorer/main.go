package main

import "github.com/mitchipooh/My-Cricket-Core-Pro/internal/process"

func main() {
	process.Run(process.ProcessConfig{Name: "scorer", Serve: true})
}
