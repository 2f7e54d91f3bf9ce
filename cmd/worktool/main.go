package main

import (
	"worktool/cmd/worktool/commands"
	"worktool/lib/util/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
