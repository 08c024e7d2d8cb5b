package main

import "crowdfund_backend/internals/cli"

func main() {
	cli.Execute()
}
