package main

import (
	"context"

	"homesweep/cmd"
)

func main() {
	cmd.ExecuteContext(context.Background())
}
