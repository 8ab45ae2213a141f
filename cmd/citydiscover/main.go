package main

import "github.com/samirrijal/citydiscover/cmd/citydiscover/cmd"

func main() {
	cmd.Execute()
}
