package main

import "os"

func main() {
	rootCmd := newRoot().Command()
	if cmd, err := rootCmd.ExecuteC(); err != nil {
		reportError(cmd, err)
		os.Exit(1)
	}
}
