package main

import "github.com/xvierd/zenpath/cmd"

func main() {
	cmd.Execute()
}
