package main

import "github.com/jobease/jobfill/cmd"

func main() {
	cmd.Execute()
}
