package main

import "github.com/musiccat/musiccat-rpc/internal/cli"

func main() {
	cli.Execute()
}
