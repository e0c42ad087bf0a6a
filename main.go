package main

import "policymetrics/cmd"

func main() {
	cmd.Execute()
}
