package command

import "fmt"

func unsupported(b Binding, capability string) error {
	return fmt.Errorf("%w: %s needs a %s", ErrUnsupported, b.Operation, capability)
}

func noop(Binding, Invocation, Target) error {
	return nil
}

func controllerFor(b Binding, target Target) (Controller, error) {
	c, ok := target.(Controller)
	if !ok {
		return nil, unsupported(b, "controller")
	}
	return c, nil
}

func controllerButton(b Binding, inv Invocation, target Target) error {
	c, err := controllerFor(b, target)
	if err != nil {
		return err
	}
	if b.Control == NoControl {
		return fmt.Errorf("%w: %s", ErrNoControl, b.Tag)
	}

	switch {
	case b.Flags.Turbo:
		c.SetTurbo(b.Control, inv.Pressed)
	case b.Flags.Toggle:
		if inv.Pressed {
			c.SetButton(b.Control, !c.Button(b.Control))
		}
	default:
		c.SetButton(b.Control, inv.Pressed)
	}

	if b.Flags.Autohold && inv.Pressed {
		c.LatchAutohold(b.Control)
	}
	return nil
}

// controllerTurbo forwards held and released edges; the oscillation itself
// is driven by the controller's own ticker.
func controllerTurbo(b Binding, inv Invocation, target Target) error {
	c, err := controllerFor(b, target)
	if err != nil {
		return err
	}
	if b.Control == NoControl {
		return fmt.Errorf("%w: %s", ErrNoControl, b.Tag)
	}
	c.SetTurbo(b.Control, inv.Pressed)
	return nil
}

func touch(b Binding, inv Invocation, target Target) error {
	c, err := controllerFor(b, target)
	if err != nil {
		return err
	}
	c.SetTouch(inv.X, inv.Y, inv.Pressed)
	return nil
}

func paddle(b Binding, inv Invocation, target Target) error {
	c, err := controllerFor(b, target)
	if err != nil {
		return err
	}
	c.SetPaddle(inv.Value)
	return nil
}

func autoholdSet(b Binding, inv Invocation, target Target) error {
	c, err := controllerFor(b, target)
	if err != nil {
		return err
	}
	if b.Control != NoControl {
		if inv.Pressed {
			c.LatchAutohold(b.Control)
		}
		return nil
	}
	// Without a control the command is a mode: buttons pressed while it is
	// held become latched.
	c.SetAutoholdMode(inv.Pressed)
	return nil
}

func autoholdClear(b Binding, inv Invocation, target Target) error {
	if !inv.Pressed {
		return nil
	}
	c, err := controllerFor(b, target)
	if err != nil {
		return err
	}
	c.ClearAutohold()
	return nil
}

func microphone(b Binding, inv Invocation, target Target) error {
	m, ok := target.(Microphone)
	if !ok {
		return unsupported(b, "microphone")
	}
	if !inv.Pressed {
		m.StopMicrophone()
		return nil
	}
	if inv.Generator == nil {
		// sample missing or failed to load
		return nil
	}
	m.StartMicrophone(inv.Generator)
	return nil
}

func rumble(b Binding, inv Invocation, target Target) error {
	r, ok := target.(Rumbler)
	if !ok {
		return unsupported(b, "force feedback target")
	}
	if !inv.Pressed {
		return r.StopRumble()
	}
	iterations := b.IntValue
	if iterations < 1 {
		iterations = 1
	}
	return r.StartRumble(iterations)
}

func holdToggleSpeed(b Binding, inv Invocation, target Target) error {
	c, ok := target.(Console)
	if !ok {
		return unsupported(b, "console")
	}
	if inv.Pressed {
		return c.SetSpeedScalar(b.FloatValue)
	}
	return c.SetSpeedScalar(1.0)
}

// oneShot adapts a console call into an operation that fires on the press
// edge only.
func oneShot(call func(c Console, b Binding) error) Func {
	return func(b Binding, inv Invocation, target Target) error {
		if !inv.Pressed {
			return nil
		}
		c, ok := target.(Console)
		if !ok {
			return unsupported(b, "console")
		}
		return call(c, b)
	}
}
