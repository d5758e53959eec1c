package main

import (
	"lukachat/cmd"
)

func main() {
	cmd.Execute()
}
