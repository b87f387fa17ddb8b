package main

import "github.com/presidioforts/PR-Diff-Ingestion/cmd"

func main() {
	cmd.Run()
}
