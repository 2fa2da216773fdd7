package main

import "github.com/ValentinKolb/dMQ/cmd"

func main() {
	cmd.Execute()
}
