package main

import "github.com/smorady/msg-orchestrator/cmd"

func main() {
	cmd.Execute()
}
