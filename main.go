package main

import "reviewero/cmd"

func main() {
	cmd.Execute()
}
