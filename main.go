package main

import "github.com/jthornhill/popframe/cmd"

func main() {
	cmd.Execute()
}
