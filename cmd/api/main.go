package main

import (
	"flag"
	"log"

	"github.com/authcore-io/authcore/internal/api"
	"github.com/authcore-io/authcore/internal/auth"
	"github.com/authcore-io/authcore/internal/config"
	"github.com/authcore-io/authcore/internal/database"
	"github.com/authcore-io/authcore/internal/mail"
)

const version = "0.1.0"

func initializeAPI(configPath string) (*api.Api, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}

	var dispatcher mail.Dispatcher
	if cfg.Mail.Provider == "ses" {
		dispatcher, err = mail.NewSESDispatcher(cfg)
		if err != nil {
			return nil, err
		}
	} else {
		dispatcher = mail.NewLogDispatcher()
	}

	return api.NewApi(cfg, api.Deps{
		Users:    auth.NewSQLUserStore(db),
		Attempts: auth.NewSQLAttemptStore(db),
		Resets:   auth.NewSQLResetStore(db),
		Mailer:   dispatcher,
	})
}

func main() {
	configPath := flag.String("config", "app.yml", "Path to configuration file")
	flag.Parse()

	log.Printf("Starting authcore v%s with config: %s", version, *configPath)

	apiServer, err := initializeAPI(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	apiServer.Serve()
}
