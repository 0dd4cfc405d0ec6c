package datastore

import (
	"log"
	"os"
	"time"

	gormlogger "gorm.io/gorm/logger"
)

// createGormLogger builds the GORM logger used by both database backends.
// Debug mode logs every statement, otherwise only slow queries and errors.
func createGormLogger(debug bool) gormlogger.Interface {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}

	return gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
