package main

import "os"

func main() {
	os.Exit(Cli(os.Args[1:], NewConfig()))
}
