package main

import "github.com/drivamotors/tidesync/cmd"

func main() {
	cmd.Execute()
}
