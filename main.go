package main

import "usedcar-market/cmd"

func main() {
	cmd.Execute()
}
