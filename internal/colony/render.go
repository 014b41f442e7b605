package colony

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/puppetbridge/server/internal/sim"
)

// Renders are produced one tick after they are first asked for, the way
// a real frame capture lands after the renderer has drawn it. The first
// request returns sim.ErrNotReady and parks a job; completeRenders fills
// it on the next Tick.
type renderJob struct {
	requested bool
	data      []byte
}

// RenderPortrait returns the actor's gzip-compressed PNG portrait, or
// sim.ErrNotReady while the frame is still pending.
func (c *Colony) RenderPortrait(actorID int64) ([]byte, error) {
	if _, ok := c.actors[actorID]; !ok {
		return nil, sim.ErrNotReady
	}
	return c.render(c.portraits, actorID)
}

// RenderCommandAtlas returns the actor's command strip image, or
// sim.ErrNotReady while pending.
func (c *Colony) RenderCommandAtlas(actorID int64) ([]byte, error) {
	if _, ok := c.actors[actorID]; !ok {
		return nil, sim.ErrNotReady
	}
	return c.render(c.atlases, actorID)
}

func (c *Colony) render(jobs map[int64]*renderJob, actorID int64) ([]byte, error) {
	job := jobs[actorID]
	if job != nil && job.data != nil {
		return job.data, nil
	}
	if job == nil {
		jobs[actorID] = &renderJob{requested: true}
	}
	return nil, sim.ErrNotReady
}

// RenderMapTile cuts a square of map around the actor. Tiles are cheap
// to draw, so they render synchronously rather than through a job.
func (c *Colony) RenderMapTile(actorID int64, scale int) ([]byte, error) {
	a, ok := c.actors[actorID]
	if !ok || !a.spawned {
		return nil, sim.ErrNotReady
	}
	if scale < 1 {
		scale = 1
	}
	side := 8 * scale
	if side > 256 {
		side = 256
	}
	return c.drawFrame(actorID, side, side), nil
}

func (c *Colony) completeRenders() {
	for id, job := range c.portraits {
		if job.requested && job.data == nil {
			job.data = c.drawFrame(id, 32, 32)
		}
	}
	for id, job := range c.atlases {
		if job.requested && job.data == nil {
			job.data = c.drawFrame(id, 128, 24)
		}
	}
}

func (c *Colony) invalidatePortrait(actorID int64) {
	delete(c.portraits, actorID)
}

func (c *Colony) invalidateAtlas(actorID int64) {
	delete(c.atlases, actorID)
}

// drawFrame produces a deterministic placeholder frame for an actor and
// gzips the PNG bytes for transit.
func (c *Colony) drawFrame(actorID int64, w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	base := color.RGBA{
		R: uint8(37 * actorID),
		G: uint8(91 * actorID),
		B: uint8(151 * actorID),
		A: 255,
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := base
			if (x+y)%8 < 4 {
				px.R ^= 0x20
				px.B ^= 0x20
			}
			img.SetRGBA(x, y, px)
		}
	}

	var raw bytes.Buffer
	if err := png.Encode(&raw, img); err != nil {
		c.log.Error("encode frame", zap.Int64("actor", actorID), zap.Error(err))
		return nil
	}
	var out bytes.Buffer
	zw := gzip.NewWriter(&out)
	if _, err := zw.Write(raw.Bytes()); err != nil {
		c.log.Error("compress frame", zap.Int64("actor", actorID), zap.Error(err))
		return nil
	}
	if err := zw.Close(); err != nil {
		c.log.Error("compress frame", zap.Int64("actor", actorID), zap.Error(err))
		return nil
	}
	return out.Bytes()
}
