package main

import "github.com/maskapp/mask/internal/cli"

func main() {
	cli.Execute()
}
