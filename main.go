package main

import "github.com/crystaldolphin/deepsearch/cmd"

func main() {
	cmd.Execute()
}
