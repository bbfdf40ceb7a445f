package main

import "video-beeper/cmd"

func main() {
	cmd.Execute()
}
