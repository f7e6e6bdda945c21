package main

import "github.com/jywlabs/skillhub/cmd"

func main() {
	cmd.Execute()
}
