package main

import (
	"fmt"
	"os"

	"github.com/fulldump/goconfig"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/scorepane/bootstrap"
	"github.com/fulldump/scorepane/configuration"
)

var banner = `

  ___  ___ ___  _ __ ___ _ __   __ _ _ __   ___
 / __|/ __/ _ \| '__/ _ \ '_ \ / _' | '_ \ / _ \
 \__ \ (_| (_) | | |  __/ |_) | (_| | | | |  __/
 |___/\___\___/|_|  \___| .__/ \__,_|_| |_|\___|
                        |_|      version ` + bootstrap.VERSION + `
`

func main() {

	c := configuration.Default()
	goconfig.Read(&c)

	if c.Version {
		fmt.Println("Version:", bootstrap.VERSION)
		return
	}

	if c.ShowBanner {
		fmt.Println(banner)
	}

	if c.ShowConfig {
		json.MarshalWrite(os.Stdout, c, jsontext.WithIndent("    "))
		fmt.Println()
	}

	start, _, err := bootstrap.Bootstrap(&c)
	if err != nil {
		fmt.Println("ERROR:", err.Error())
		os.Exit(-1)
	}

	if err := start(); err != nil {
		fmt.Println("ERROR:", err.Error())
		os.Exit(-1)
	}
}
