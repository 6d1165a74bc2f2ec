package main

import "github.com/structbio/foldmap/cmd"

func main() {
	cmd.Execute()
}
