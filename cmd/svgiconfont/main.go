package main

import "github.com/ideamans/svgiconfont/cmd/svgiconfont/cmd"

func main() {
	cmd.Execute()
}
