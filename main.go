package main

import "github.com/velkoja/bookscout/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
