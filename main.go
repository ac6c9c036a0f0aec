package main

import "github.com/findy-network/findy-agent-conn/cmd"

func main() {
	cmd.Execute()
}
