package main

import "github.com/minsu-lab/mstrack/cmd"

func main() {
	cmd.Execute()
}
