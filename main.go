package main

import "github.com/klytics/conokit/cmd"

func main() {
	cmd.Execute()
}
