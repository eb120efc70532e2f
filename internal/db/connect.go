package db

import (
	"fmt"
	"net"
	"strconv"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/zulandar/incidentdesk/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds a MySQL DSN. An empty database name connects to the server
// without selecting a schema.
func DSN(user, password, host string, port int, database string) string {
	c := mysqldriver.NewConfig()
	c.User = user
	c.Passwd = password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	c.DBName = database
	c.ParseTime = true
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

// Open opens a GORM connection with the given dialector and a silent logger.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// Connect opens the record store described by cfg.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case "sqlite", "":
		db, err := Open(sqlite.Open(cfg.Path))
		if err != nil {
			return nil, fmt.Errorf("db: open sqlite %s: %w", cfg.Path, err)
		}
		return db, nil
	case "mysql":
		dsn := DSN(cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
		db, err := Open(mysql.Open(dsn))
		if err != nil {
			return nil, fmt.Errorf("db: connect to %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Name, err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", cfg.Driver)
	}
}

// CreateDatabase creates the configured MySQL schema if it doesn't already
// exist. It is a no-op for sqlite, which creates its file on open.
func CreateDatabase(cfg config.DatabaseConfig) error {
	if cfg.Driver != "mysql" {
		return nil
	}
	admin, err := Open(mysql.Open(DSN(cfg.User, cfg.Password, cfg.Host, cfg.Port, "")))
	if err != nil {
		return fmt.Errorf("db: admin connect to %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	sql := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", cfg.Name)
	if err := admin.Exec(sql).Error; err != nil {
		return fmt.Errorf("db: create database %s: %w", cfg.Name, err)
	}
	return nil
}
