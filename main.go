package main

import "github.com/iksnae/demystify/cmd"

func main() {
	cmd.Execute()
}
