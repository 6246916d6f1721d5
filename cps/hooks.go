package cps

// Hooks are optional callbacks invoked at fixed points of the machine
// lifecycle. All of them are cleared by Exit.
type Hooks struct {
	// PostInit runs after every subsystem is initialized, before the first reset.
	PostInit func()
	// PostReset runs at the end of every reset.
	PostReset func()
	// PreExit runs once the subsystems are released, before the hooks are cleared.
	PreExit func()

	// FrameStart runs after the interrupt state of a frame is set up.
	FrameStart func()
	// FrameMiddle runs after the second third of active display.
	FrameMiddle func()
	// FrameEnd runs after the audio frame is closed.
	FrameEnd func()
}

func call(hook func()) {
	if hook != nil {
		hook()
	}
}
