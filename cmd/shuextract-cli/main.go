package main

import (
	"context"

	"shuassist-backend/cmd/shuextract-cli/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
