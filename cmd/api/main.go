package main

import (
	"os"

	"github.com/changex/eduspace/internal/pkg/logger"
	"github.com/changex/eduspace/internal/server"
)

// @title Eduspace API
// @version 1.0
// @description Academic progression engine: enrollment, grading, risk and analytics
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed")
		os.Exit(1)
	}
}
