package command

func button(tag string, control ControlID) Binding {
	return Binding{Tag: tag, Operation: OpControllerButton, Control: control}
}

func turbo(tag string, control ControlID) Binding {
	return Binding{Tag: tag, Operation: OpControllerTurbo, Control: control, Flags: Flags{Turbo: true}}
}

func action(tag string, op Operation) Binding {
	return Binding{Tag: tag, Operation: op, Control: NoControl}
}

// DefaultCatalog returns the built-in default binding for every known
// command tag.
func DefaultCatalog() []Binding {
	catalog := []Binding{
		button("Up", ControlUp),
		button("Down", ControlDown),
		button("Left", ControlLeft),
		button("Right", ControlRight),
		button("A", ControlA),
		button("B", ControlB),
		button("X", ControlX),
		button("Y", ControlY),
		button("L", ControlL),
		button("R", ControlR),
		button("Start", ControlStart),
		button("Select", ControlSelect),
		button("Debug", ControlDebug),
		button("Lid", ControlLid),

		turbo("A - Turbo", ControlA),
		turbo("B - Turbo", ControlB),
		turbo("X - Turbo", ControlX),
		turbo("Y - Turbo", ControlY),
		turbo("L - Turbo", ControlL),
		turbo("R - Turbo", ControlR),

		{Tag: "Touch", Operation: OpTouch, Control: ControlTouch},
		{Tag: "Microphone", Operation: OpMicrophone, Control: ControlMicrophone},
		{Tag: "Paddle", Operation: OpPaddle, Control: ControlPaddle, Flags: Flags{AllowAnalog: true}},

		action("Autohold - Set", OpAutoholdSet),
		action("Autohold - Clear", OpAutoholdClear),
		action("Rumble", OpRumble),

		action("Load State Slot", OpLoadStateSlot),
		action("Save State Slot", OpSaveStateSlot),
		action("Copy Screen", OpCopyScreen),
		action("Toggle All Displays", OpToggleAllDisplays),
		action("Toggle Speed Limiter", OpToggleSpeedLimiter),
		action("Toggle Auto Frame Skip", OpToggleAutoFrameSkip),
		action("Toggle Cheats", OpToggleCheats),
		action("Toggle Execute/Pause", OpToggleExecutePause),
		action("Execute", OpCoreExecute),
		action("Pause", OpCorePause),
		action("Frame Advance", OpFrameAdvance),
		action("Frame Jump", OpFrameJump),
		action("Reset", OpReset),
		action("Toggle Mute", OpToggleMute),
		action("Toggle GPU State", OpToggleGPUState),
	}

	rotateLeft := action("Rotate Display Left", OpRotateDisplay)
	rotateLeft.IntValue = -90
	rotateRight := action("Rotate Display Right", OpRotateDisplay)
	rotateRight.IntValue = 90
	speed := action("Hold Toggle Speed", OpHoldToggleSpeed)
	speed.FloatValue = 2.0

	return append(catalog, rotateLeft, rotateRight, speed)
}
