// Command tubefit fits probabilistic trajectory models to tracks stored in
// a SQLite database and reports their mean, outline and tube statistics.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
