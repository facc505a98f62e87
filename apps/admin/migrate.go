package main

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/tathmini/core"
	"github.com/trezcool/tathmini/storage/database"
)

var (
	gooseRunFunc = database.Migrate // mockable
	openDBFunc   = database.Open    // mockable

	errNoDatabase = errors.New("migrations require the postgres engine")
)

func (cli *commandLine) migrate(args []string) error {
	if cli.conf.Database.Engine != core.EnginePostgres {
		return errNoDatabase
	}
	db, err := openDBFunc(cli.conf)
	if err != nil {
		return err
	}
	defer func(db *sqlx.DB) {
		if db != nil {
			_ = db.Close()
		}
	}(db)

	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(db, args[0], arguments...)
}
