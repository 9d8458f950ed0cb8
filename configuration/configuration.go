package configuration

import (
	"log/slog"
	"strings"
	"time"

	"github.com/fulldump/scorepane/protocol"
	"github.com/fulldump/scorepane/view"
)

type Configuration struct {
	HttpAddr          string  `usage:"HTTP address"`
	Statics           string  `usage:"statics directory"`
	EngineLocation    string  `usage:"notation engine every view loads, scheme:argument"`
	Scale             int     `usage:"initial zoom percentage, 10 to 100 in steps of 10"`
	Border            int     `usage:"page border in engine units"`
	ViewportWidth     float64 `usage:"viewport width in pixels until the client reports its own"`
	ViewportHeight    float64 `usage:"viewport height in pixels until the client reports its own"`
	ResizeSettleMs    int     `usage:"milliseconds without resizes before rendering again"`
	LogLevel          string  `usage:"debug, info, warn or error"`
	EnableCompression bool    `usage:"gzip responses"`
	Version           bool    `usage:"show version and exit"`
	ShowBanner        bool    `usage:"show big banner"`
	ShowConfig        bool    `usage:"print config"`
}

func Default() Configuration {
	options := protocol.DefaultRenderOptions()
	return Configuration{
		HttpAddr:          "127.0.0.1:8080",
		Statics:           "",
		EngineLocation:    "builtin:draft",
		Scale:             options.Scale,
		Border:            options.Border,
		ViewportWidth:     1024,
		ViewportHeight:    768,
		ResizeSettleMs:    int(view.DefaultResizeSettle / time.Millisecond),
		LogLevel:          "info",
		EnableCompression: true,
		ShowBanner:        true,
	}
}

// RenderOptions are the options every new view starts with.
func (c Configuration) RenderOptions() protocol.RenderOptions {
	options := protocol.DefaultRenderOptions()
	options.Scale = c.Scale
	options.Border = c.Border
	return options
}

func (c Configuration) Viewport() view.Viewport {
	return view.Viewport{Width: c.ViewportWidth, Height: c.ViewportHeight}
}

func (c Configuration) ResizeSettle() time.Duration {
	return time.Duration(c.ResizeSettleMs) * time.Millisecond
}

func (c Configuration) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
