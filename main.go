package main

import "github.com/KaramelBytes/aistudio/cmd"

func main() {
	cmd.Execute()
}
