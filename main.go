package main

import "ics-egress/cmd"

func main() {
	cmd.Execute()
}
