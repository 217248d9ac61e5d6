package main

import "os"

func main() {
	// Commands report through printError; cobra's own error print is silenced.
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}
