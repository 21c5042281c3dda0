package export

import (
	"errors"
	"fmt"

	"github.com/san-kum/launchsim/internal/dynamo"
	"github.com/san-kum/launchsim/internal/sequence"
	"github.com/san-kum/launchsim/internal/viz"
)

// Snapshot ticks l until its elapsed time reaches at, or it freezes, and
// renders the active camera's view onto a w x h cell canvas. l must run on
// the virtual clock.
func Snapshot(l *sequence.Launch, at float64, w, h int) (*viz.Canvas, sequence.Frame, error) {
	if at < 0 {
		return nil, sequence.Frame{}, fmt.Errorf("snapshot time must be non-negative, got %v", at)
	}
	ctrl := l.Controller
	f := ctrl.Last()
	for ctrl.Ticks() == 0 || f.Elapsed < at {
		var err error
		f, err = ctrl.Tick(l.Clock.Elapsed())
		if errors.Is(err, dynamo.ErrFrozen) || ctrl.Frozen() {
			break
		}
		if err != nil {
			return nil, f, err
		}
	}

	c := viz.NewCanvas(w, h)
	l.SetAspect(float64(c.PixelWidth()) / float64(c.PixelHeight()))
	viz.NewRenderer().Render(c, l.Scene.Graph, l.View())
	return c, f, nil
}
