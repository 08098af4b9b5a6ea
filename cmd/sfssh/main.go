// Command sfssh formats and inspects sfs disk images and copies files in
// and out of them by inode number.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
