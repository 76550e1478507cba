package main

import (
	"github.com/timelinekit/timeline/cmd"
)

func main() {
	cmd.Execute()
}
