package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-report-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "school_report", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=school_report sslmode=disable", dsn)
}

func TestDSNOptionalKeys(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:            "db",
		Port:            5432,
		User:            "u",
		Password:        "p",
		Name:            "school_report",
		SSLMode:         "require",
		ApplicationName: "reportctl",
		ConnectTimeout:  3 * time.Second,
	})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=school_report sslmode=require application_name=reportctl connect_timeout=3", dsn)
}

func TestDSNQuotesValues(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: `it's a \secret`, Name: "school_report", SSLMode: "disable"})
	assert.Contains(t, dsn, `password='it\'s a \\secret'`)

	dsn = DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Name: "school_report", SSLMode: "disable"})
	assert.Contains(t, dsn, "password='' dbname=")
}
