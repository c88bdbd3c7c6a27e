// Command petwheel resolves, fetches, builds and installs Python source
// distributions through user-curated petname registries.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
