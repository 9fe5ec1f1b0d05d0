package config

import (
	"fmt"
	"os"
)

const defaultDSN = "aquamind:aquamind123@tcp(localhost:3306)/aquamind?parseTime=true"

// GetDatabaseDSN returns the history store connection string. Environment
// variables win over the config file so deployments can inject credentials
// without editing config.yaml.
func GetDatabaseDSN() string {
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	database := os.Getenv("DB_NAME")

	if user != "" && password != "" && host != "" && port != "" && database != "" {
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", user, password, host, port, database)
	}

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		return dsn
	}

	if instance != nil && instance.Database.DSN != "" {
		return instance.Database.DSN
	}

	return defaultDSN
}
