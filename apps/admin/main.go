package main

import (
	"context"
	"log"
	"os"

	"github.com/somahq/soma/core"
	mongodb "github.com/somahq/soma/storage/database/mongo"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	ctx := context.Background()

	// set up DB
	db, err := mongodb.Open(ctx, conf.Database)
	errAndDie(err)
	defer func() { errAndDie(mongodb.Close(ctx, db)) }()

	// start CLI
	cli := commandLine{
		usrRepo: mongodb.NewUserRepository(db),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
