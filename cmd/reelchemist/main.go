package main

import "github.com/forPelevin/reelchemist/internal/cli"

func main() { cli.Main() }
