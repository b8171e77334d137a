// Package di contains dependency injection tokens for the tracking context.
package di

import (
	"github.com/fd1az/sothis/business/tracker/app"
	"github.com/fd1az/sothis/internal/di"
)

// Public service tokens - exposed to main
var (
	Engine = di.NewToken[*app.Engine]("tracker.Engine")
)

// Private dependency tokens - internal to the tracker module
var (
	Probe    = di.NewToken[app.Probe]("tracker:probe")
	Sink     = di.NewToken[app.Sink]("tracker:sink")
	Reporter = di.NewToken[app.Reporter]("tracker:reporter")
)

func GetEngine(c di.ServiceRegistry) *app.Engine {
	return di.GetToken(c, Engine)
}

func GetProbe(c di.ServiceRegistry) app.Probe {
	return di.GetToken(c, Probe)
}

func GetSink(c di.ServiceRegistry) app.Sink {
	return di.GetToken(c, Sink)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}
