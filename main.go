// cardchat is a pocket chat client with a bounded conversation window.
package main

import (
	"fmt"
	"os"

	"github.com/linanwx/cardchat/cmd"
	"github.com/linanwx/cardchat/config"
	"github.com/linanwx/cardchat/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	configDir, _ := config.ConfigDir()
	if err := logger.Init(cfg.BuildLoggerConfig(), configDir); err != nil {
		fmt.Fprintln(os.Stderr, "logger init error:", err)
	}
	cmd.Execute()
}
