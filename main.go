package main

import "github.com/wirdan1/Webchat/cmd"

func main() {
	cmd.Run()
}
