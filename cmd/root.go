package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "packlint", SilenceUsage: true}

	root.AddCommand(validateCMD(), timelineCMD(), serveCMD(), migrateCMD())
	_ = root.Execute()
}
