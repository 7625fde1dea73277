// Command findsboard runs the Finds board API and its maintenance tasks.
//
//	findsboard serve              start the HTTP API (migrates first)
//	findsboard migrate            create or update the schema
//	findsboard grant-admin <id>   give a user the admin role
//	findsboard version            print version information
//
// Every command reads configuration from the environment, optionally seeded
// from a dotenv file named by --env-file.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
