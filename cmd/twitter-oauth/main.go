package main

import (
	"log"
	"os"

	"twitter-oauth/internal/build"
	"twitter-oauth/internal/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "Twitter OAuth Server"
	app.Version = build.Version
	app.Usage = "Twitter OAuth 2.0 (PKCE) login and API proxy"

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
