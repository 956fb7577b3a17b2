package main

import (
	"os"

	"github.com/yigit/aiinfocenter/internal/pkg/logger"
)

// @title AI Info Center API
// @version 1.0
// @description Student AI assistant and support request desk.

// @contact.name API Support
// @contact.email support@aiinfocenter.local

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.basic BasicAuth

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
