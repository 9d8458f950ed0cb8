package main

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/fulldump/scorepane/service"
	"github.com/fulldump/scorepane/view"
)

// TestRender creates N views, each loading a generated score, and waits
// until all of them are fully rendered.
func TestRender(c Config) {

	if c.Base == "" {
		start, stop := CreateServer(&c)
		defer stop()
		go start()
	}

	document := service.Score(c.Measures)

	views := c.N
	pages := int64(0)

	t0 := time.Now()
	Parallel(c.Workers, func() {
		for atomic.AddInt64(&views, -1) >= 0 {
			created := &view.Status{}
			_, err := Call(c.Base, "POST", "/v1/views", JSON{
				"document": document,
				"viewport": JSON{"width": 1024, "height": 768},
			}, created)
			if err != nil {
				fmt.Println("ERROR: create view:", err.Error())
				os.Exit(3)
			}

			status, err := WaitRendered(c.Base, created.Handle, 30*time.Second)
			if err != nil {
				fmt.Println("ERROR:", err.Error())
				os.Exit(4)
			}
			atomic.AddInt64(&pages, int64(status.PageCount))

			Call(c.Base, "POST", fmt.Sprintf("/v1/views/%d:destroy", created.Handle), nil, nil)
		}
	})

	took := time.Since(t0)
	fmt.Println("views:", c.N)
	fmt.Println("pages:", pages)
	fmt.Println("took:", took)
	fmt.Printf("Throughput: %.2f pages/sec\n", float64(pages)/took.Seconds())
}
