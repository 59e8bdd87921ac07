package main

import "github.com/quotegate/quotegate/cmd"

func main() {
	cmd.Execute()
}
