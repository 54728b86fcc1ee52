package main

import "github.com/mvp-joe/javamodel/internal/cli"

func main() {
	cli.Execute()
}
