package kcc

import (
	"errors"
	"fmt"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/gekko3d/kcc/character"
	"github.com/gekko3d/kcc/fsm"
	"github.com/gekko3d/kcc/movement"
	"github.com/gekko3d/kcc/parkour"
	"github.com/gekko3d/kcc/world"
)

// Characters is the resource holding every live actor, ticked in spawn order.
type Characters struct {
	log      Logger
	world    *world.World
	machine  *fsm.Machine[*character.Actor]
	cfg      character.Config
	reporter *Reporter
	metrics  *Metrics
	actors   *orderedmap.OrderedMap[uuid.UUID, *character.Actor]
}

func (c *Characters) Get(id uuid.UUID) (*character.Actor, bool) {
	return c.actors.Get(id)
}

func (c *Characters) Len() int { return c.actors.Len() }

// Each visits actors in spawn order until fn returns false.
func (c *Characters) Each(fn func(a *character.Actor) bool) {
	for el := c.actors.Front(); el != nil; el = el.Next() {
		if !fn(el.Value) {
			return
		}
	}
}

// Machine is the graph every actor runs.
func (c *Characters) Machine() *fsm.Machine[*character.Actor] { return c.machine }

func (c *Characters) spawn(id uuid.UUID, name string, at mgl32.Vec3, input character.Input) (*character.Actor, error) {
	if _, ok := c.actors.Get(id); ok {
		return nil, fmt.Errorf("character %s already exists", id)
	}
	a := character.New(name, c.world, at, c.cfg, c.log)
	a.ID = id
	if input != nil {
		a.Input = input
	}
	a.OnSwap = c.swapped
	a.Resolver.Hub = c.reporter.Hub()
	if c.metrics != nil {
		a.Resolver.OnContact = c.metrics.Contact
	}
	if err := a.Use(c.machine); err != nil {
		return nil, err
	}
	c.actors.Set(id, a)
	c.log.Infof("spawned %s (%s) at %v in %s", name, id, at, a.State())
	return a, nil
}

func (c *Characters) swapped(a *character.Actor, from, to string) {
	c.log.Debugf("character %s: %s -> %s", a.Name, from, to)
	c.metrics.Swap(from, to)
}

func (c *Characters) remove(id uuid.UUID) bool {
	a, ok := c.actors.Get(id)
	if !ok {
		return false
	}
	c.actors.Delete(id)
	c.log.Infof("despawned %s (%s)", a.Name, id)
	return true
}

// tick runs one actor. A panic is contained to that actor.
func (c *Characters) tick(a *character.Actor, dt float32) {
	defer func() {
		if v := recover(); v != nil {
			c.log.Errorf("character %s: tick panic: %v", a.Name, v)
			c.metrics.Panic(a.Name)
			c.reporter.Recover(v, c.tags(a))
		}
	}()

	err := a.Tick(dt)
	c.metrics.Move(a.LastMove, err)
	if err == nil {
		return
	}
	if errors.Is(err, movement.ErrUnresolvable) {
		// The resolver has already reported the abort.
		c.log.Debugf("character %s: %v", a.Name, err)
		return
	}
	c.log.Errorf("character %s: %v", a.Name, err)
	c.reporter.Capture(err, c.tags(a))
}

func (c *Characters) tags(a *character.Actor) map[string]string {
	return map[string]string{
		"character": a.Name,
		"state":     a.State(),
	}
}

// CharacterModule installs Characters and ticks them in Update. Parkour tunes the default
// graph, falling back to parkour.DefaultConfig when zero; Machine replaces the graph.
// Install after WorldModule, and after ReportingModule and MetricsModule when those are used.
type CharacterModule struct {
	Actor   character.Config
	Parkour parkour.Config
	Machine *fsm.Machine[*character.Actor]
}

func (mod CharacterModule) Install(app *App, cmd *Commands) {
	w, ok := Resource[world.World](app)
	if !ok {
		panic("CharacterModule requires WorldModule")
	}

	machine := mod.Machine
	if machine == nil {
		cfg := mod.Parkour
		if cfg == (parkour.Config{}) {
			cfg = parkour.DefaultConfig()
		}
		var err error
		machine, err = parkour.NewMachine(cfg, app.Logger())
		if err != nil {
			panic(fmt.Sprintf("character module: %v", err))
		}
	}

	chars := &Characters{
		log:     app.Logger(),
		world:   w,
		machine: machine,
		cfg:     mod.Actor,
		actors:  orderedmap.NewOrderedMap[uuid.UUID, *character.Actor](),
	}
	chars.reporter, _ = Resource[Reporter](app)
	chars.metrics, _ = Resource[Metrics](app)

	cmd.AddResources(chars)
	app.UseSystem(
		System(characterSystem).
			InStage(Update).
			RunAlways(),
	)
}

func characterSystem(chars *Characters, t *Time) {
	dt := t.Seconds()
	if dt <= 0 {
		return
	}
	chars.Each(func(a *character.Actor) bool {
		chars.tick(a, dt)
		return true
	})
}
