/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/ssargent/cerberus/cmd/cerberus/cmd"

func main() {
	cmd.Execute()
}
