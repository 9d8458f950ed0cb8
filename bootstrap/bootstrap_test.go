package bootstrap

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/fulldump/biff"

	"github.com/fulldump/scorepane/configuration"
)

func TestStartStop(t *testing.T) {

	c := configuration.Default()
	c.HttpAddr = "127.0.0.1:0"

	start, stop, err := Bootstrap(&c)
	biff.AssertNil(err)

	done := make(chan error, 1)
	go func() {
		done <- start()
	}()

	time.Sleep(50 * time.Millisecond)
	biff.AssertNil(stop())

	select {
	case err := <-done:
		biff.AssertNil(err)
	case <-time.After(5 * time.Second):
		t.Fatal("start did not return after stop")
	}
}

func TestServesRelease(t *testing.T) {

	c := configuration.Default()
	c.HttpAddr = "127.0.0.1:0"
	c.ShowBanner = false

	start, stop, addr, err := BootstrapAddr(&c)
	biff.AssertNil(err)
	go start()
	defer stop()

	var resp *http.Response
	for i := 0; i < 100; i++ {
		resp, err = http.Get("http://" + addr + "/release")
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	biff.AssertNil(err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	biff.AssertEqual(resp.StatusCode, http.StatusOK)
	biff.AssertEqual(strings.TrimSpace(string(body)), `"`+VERSION+`"`)
}
