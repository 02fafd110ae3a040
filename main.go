// Package main is the entry point for the greenstripes command.
package main

import cmd "github.com/toozej/greenstripes/cmd/greenstripes"

func main() {
	cmd.Execute()
}
