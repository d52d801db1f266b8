// Command sessionctl signs in to the CourseHub API and makes authenticated
// requests with the stored session.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}
