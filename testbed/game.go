package testbed

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/spaghettifunk/kanvas/engine"
	"github.com/spaghettifunk/kanvas/engine/core"
	"github.com/spaghettifunk/kanvas/engine/platform"
	"github.com/spaghettifunk/kanvas/engine/resources"
)

const (
	carID  = "car"
	carSrc = "https://images-na.ssl-images-amazon.com/images/I/21%2Bj-HRynIL.png"
	carW   = 100
	carH   = 100

	barRest = 2500
)

// TestGame is a small scene used to try the engine out by hand: an image
// swinging left and right, a caption following it and a bar that bounces
// in from the top every few seconds.
type TestGame struct {
	*engine.Application

	state *gameState
}

type gameState struct {
	barTween *gween.Tween
	barY     float32
	// Milliseconds the bar has rested since its last bounce.
	barIdle float64
	loaded  bool
}

func NewTestGame(host platform.Host, cfg engine.Config) *TestGame {
	tg := &TestGame{
		Application: engine.New("Kanvas Testbed", host, cfg),
		state:       &gameState{},
	}
	tg.OnInit = tg.Initialize
	tg.OnUpdate = tg.Update
	tg.OnDestroy = tg.Shutdown
	return tg
}

func (g *TestGame) Initialize() error {
	core.LogDebug("TestGame Initialize fn....")

	g.AddResource(resources.ResourceTypeImage, carID, carSrc, true)
	g.Events().Register(core.EVENT_CODE_RESOURCE_LOADED, g.onResourceLoaded)
	g.Events().Register(core.EVENT_CODE_RESOURCE_FAILED, func(ctx core.EventContext) bool {
		core.LogWarn("testbed resource failed: %v", ctx.Data)
		return false
	})

	g.state.barTween = gween.New(-40, 150, 1.5, ease.OutBounce)
	return nil
}

func (g *TestGame) onResourceLoaded(ctx core.EventContext) bool {
	if r, ok := ctx.Data.(*resources.Resource); ok && r.ID == carID {
		g.state.loaded = true
		core.LogInfo("car ready after %.0fms", r.LoadedAt)
	}
	return false
}

func (g *TestGame) Update(dt float64) error {
	s := g.state

	y, finished := s.barTween.Update(float32(dt / 1000))
	s.barY = y
	if finished {
		s.barIdle += dt
		if s.barIdle > barRest {
			s.barTween.Reset()
			s.barIdle = 0
		}
	}
	g.DrawGradient(0, float64(s.barY), 300, 20, "#ff6f00", "#7b1fa2")

	x := 200 + math.Cos(g.Time()/1000)*100
	g.DrawImage(carID, x, 0, carW, carH, "")
	g.DrawText("Hello World!", x, carH, "#fff")
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogInfo("shutting down testbed (car loaded: %t)", g.state.loaded)
	return nil
}
