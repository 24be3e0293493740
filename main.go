package main

import "chainpack/cmd"

func main() {
	cmd.Execute()
}
