// Command rocketship replays last-level cache traces through the rocketship
// replacement engine.
package main

import "github.com/sarchlab/rocketship/rocketship/cmd"

func main() {
	cmd.Execute()
}
