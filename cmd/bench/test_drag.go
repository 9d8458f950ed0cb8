package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fulldump/scorepane/service"
	"github.com/fulldump/scorepane/view"
)

// TestDrag runs N sequential drag gestures on the same note of a single
// view, waiting for the re-render after each one.
func TestDrag(c Config) {

	if c.Base == "" {
		start, stop := CreateServer(&c)
		defer stop()
		go start()
	}

	created := &view.Status{}
	_, err := Call(c.Base, "POST", "/v1/views", JSON{
		"document": service.Score(c.Measures),
		"viewport": JSON{"width": 1024, "height": 768},
	}, created)
	if err != nil {
		fmt.Println("ERROR: create view:", err.Error())
		os.Exit(3)
	}
	base := fmt.Sprintf("/v1/views/%d", created.Handle)

	if _, err := WaitRendered(c.Base, created.Handle, 30*time.Second); err != nil {
		fmt.Println("ERROR:", err.Error())
		os.Exit(4)
	}

	t0 := time.Now()
	for i := int64(0); i < c.N; i++ {
		y := 100 + float64(i%2)*10
		steps := []struct {
			action string
			body   JSON
		}{
			{"pointerDown", JSON{"target": "n1", "y": y}},
			{"pointerMove", JSON{"y": y + 5}},
			{"pointerUp", JSON{"y": y + 10}},
		}
		for _, step := range steps {
			if _, err := Call(c.Base, "POST", base+":"+step.action, step.body, nil); err != nil {
				fmt.Println("ERROR:", err.Error())
				os.Exit(5)
			}
		}
		if _, err := WaitRendered(c.Base, created.Handle, 10*time.Second); err != nil {
			fmt.Println("ERROR:", err.Error())
			os.Exit(6)
		}
	}

	took := time.Since(t0)
	fmt.Println("gestures:", c.N)
	fmt.Println("took:", took)
	fmt.Printf("Throughput: %.2f edits/sec\n", float64(c.N)/took.Seconds())
}
