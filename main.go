package main

import "watermarker/cmd"

func main() {
	cmd.Execute()
}
