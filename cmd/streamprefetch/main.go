// Command streamprefetch replays an address trace against the
// enhanced/transformer stream prefetcher engines, dueling between them
// with the set-dueling selector, and optionally records and monitors
// the run.
package main

import "github.com/sarchlab/streamprefetch/cmd/streamprefetch/cmd"

func main() {
	cmd.Execute()
}
