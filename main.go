package main

import "github.com/theirongolddev/wattwatch/cmd"

func main() {
	cmd.Execute()
}
