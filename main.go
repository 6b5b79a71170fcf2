// Package main is the entry point for the courtvision CLI, which rebuilds
// basketball passes from player tracking logs and attributes pass chains to
// play-by-play outcomes.
package main

import "github.com/pable/courtvision/cmd"

func main() {
	cmd.Execute()
}
