/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/ilng/roster/cmd"

func main() {
	cmd.Execute()
}
