package main

import (
	"context"

	"hkexwatch/cmd/diwatch-cli/commands"
	"hkexwatch/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "diwatch-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
