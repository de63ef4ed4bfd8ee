// Command gyanguru-tools runs the response extraction and audio transcoding stages offline.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
