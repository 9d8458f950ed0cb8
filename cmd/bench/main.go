package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/fulldump/goconfig"
)

type Config struct {
	Test     string `usage:"name of the test: ALL | RENDER | DRAG"`
	Base     string `usage:"base URL, empty starts an in-process server"`
	N        int64  `usage:"number of views (RENDER) or gestures (DRAG)"`
	Measures int    `usage:"measures per generated score"`
	Workers  int    `usage:"number of workers"`
}

func main() {

	c := Config{
		Test:     "render",
		Base:     "",
		N:        100,
		Measures: 48,
		Workers:  8,
	}
	goconfig.Read(&c)

	switch strings.ToUpper(c.Test) {
	case "ALL":
		TestRender(c)
		TestDrag(c)
	case "RENDER":
		TestRender(c)
	case "DRAG":
		TestDrag(c)
	default:
		log.Fatalf("Unknown test %s", c.Test)
	}

	fmt.Println("done")
}
