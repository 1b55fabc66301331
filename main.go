package main

import "github.com/mirachat/mira/cmd/server"

func main() {
	server.NewServer().Run()
}
