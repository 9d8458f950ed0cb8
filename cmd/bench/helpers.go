package main

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-json-experiment/json"

	"github.com/fulldump/scorepane/bootstrap"
	"github.com/fulldump/scorepane/configuration"
	"github.com/fulldump/scorepane/view"
)

type JSON = map[string]any

func Parallel(workers int, f func()) {
	wg := &sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f()
		}()
	}
	wg.Wait()
}

// CreateServer boots scorepane on an ephemeral port and points c.Base at it.
func CreateServer(c *Config) (start, stop func() error) {

	conf := configuration.Default()
	conf.HttpAddr = "127.0.0.1:0"
	conf.LogLevel = "WARN"

	start, stop, addr, err := bootstrap.BootstrapAddr(&conf)
	if err != nil {
		panic(err)
	}
	c.Base = "http://" + addr

	return start, stop
}

func Call(base, method, path string, body any, out any) (int, error) {

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return 0, err
		}
	}

	req, err := http.NewRequest(method, base+path, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		err = json.UnmarshalRead(resp.Body, out)
	}
	return resp.StatusCode, err
}

// WaitRendered polls a view until every page has been rendered.
func WaitRendered(base string, handle int, timeout time.Duration) (*view.Status, error) {
	deadline := time.Now().Add(timeout)
	for {
		status := &view.Status{}
		_, err := Call(base, "GET", fmt.Sprintf("/v1/views/%d", handle), nil, status)
		if err != nil {
			return nil, err
		}
		if status.PageCount > 0 && status.Rendered == status.PageCount {
			return status, nil
		}
		if time.Now().After(deadline) {
			return status, fmt.Errorf("view %d: %d/%d pages after %s", handle, status.Rendered, status.PageCount, timeout)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
