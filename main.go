package main

import "github.com/Manu343726/atomicemu/cmd"

func main() {
	cmd.Execute()
}
