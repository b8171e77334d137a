// Package di contains dependency injection tokens for the replay context.
package di

import (
	"github.com/fd1az/sothis/business/replay/app"
	"github.com/fd1az/sothis/business/replay/infra/node"
	"github.com/fd1az/sothis/business/replay/infra/setup"
	"github.com/fd1az/sothis/internal/di"
)

// Public service tokens - exposed to main
var (
	Engine = di.NewToken[*app.Engine]("replay.Engine")
)

// Private dependency tokens - internal to the replay module
var (
	SourceNode = di.NewToken[*node.Source]("replay:sourceNode")
	ReplayNode = di.NewToken[*node.Replay]("replay:replayNode")
	Submitter  = di.NewToken[app.Submitter]("replay:submitter")
	Reporter   = di.NewToken[app.Reporter]("replay:reporter")
	Prompter   = di.NewToken[*setup.Prompter]("replay:prompter")
)

// Helper functions for type-safe access
func GetEngine(c di.ServiceRegistry) *app.Engine {
	return di.GetToken(c, Engine)
}

func GetSourceNode(c di.ServiceRegistry) *node.Source {
	return di.GetToken(c, SourceNode)
}

func GetReplayNode(c di.ServiceRegistry) *node.Replay {
	return di.GetToken(c, ReplayNode)
}

func GetSubmitter(c di.ServiceRegistry) app.Submitter {
	return di.GetToken(c, Submitter)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}

func GetPrompter(c di.ServiceRegistry) *setup.Prompter {
	return di.GetToken(c, Prompter)
}
