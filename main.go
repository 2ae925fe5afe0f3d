package main

import "github.com/shaharia-lab/eventemitter/cmd"

func main() {
	cmd.Execute()
}
