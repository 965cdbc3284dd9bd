package log

import (
	"os"

	"github.com/framez-app/framez-go/utils/dotenv"
	"github.com/framez-app/framez-go/utils/flag"
	"github.com/sirupsen/logrus"
)

// global accessible logger
var (
	logger *logrus.Logger
	Log    *logrus.Entry
)

// This init function is only for testing cases, where the entry point is not
// main function. Unit test will fail with nil pointer dereference if we don't
// init here.
func init() {
	InitLogger()
}

func InitLogger() {
	logger = logrus.New()

	if os.Getenv("FRAMEZ_ENV") == dotenv.ProdEnv {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	// Send log to stderr, in development without json formatter for better
	// readability.
	logger.SetOutput(os.Stderr)

	Log = logger.WithFields(
		logrus.Fields{"service": *flag.ServiceName, "is_development": os.Getenv("FRAMEZ_ENV") != dotenv.ProdEnv},
	)
}
