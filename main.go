package main

import "github.com/KaramelBytes/talentflow-cli/cmd"

func main() {
	cmd.Execute()
}
