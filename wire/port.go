package wire

import "fmt"

// Output drives one or more Inputs. It memoizes its value for the current
// cycle: the first read forces its producing unit to evaluate (if it
// hasn't already this cycle), and every subsequent read this cycle returns
// the cached value. Reading an Output whose producer is mid-evaluation
// (a combinational cycle) is a fatal wiring error.
type Output struct {
	name    string
	trigger func()
	val     Value
	set     bool
	fanout  int
}

func newOutput(name string, trigger func()) *Output {
	return &Output{name: name, trigger: trigger}
}

// Name returns the fully qualified port name (unit name + port name).
func (o *Output) Name() string { return o.name }

// Set assigns this cycle's value. Calling Set twice in the same cycle
// without an intervening ResetCycle is a fatal wiring error — it means two
// writers are driving the same wire, or a unit's compute function set the
// same output twice.
func (o *Output) Set(v Value) {
	if o.set {
		panic(fmt.Sprintf("wire: output %s set twice in the same cycle", o.name))
	}
	o.val = v
	o.set = true
}

// Get forces the producing unit to evaluate if it has not already this
// cycle, then returns the cached value.
func (o *Output) Get() Value {
	if !o.set {
		o.trigger()
	}
	if !o.set {
		panic(fmt.Sprintf("wire: %s produced no value (dangling compute or combinational cycle)", o.name))
	}
	return o.val
}

func (o *Output) resetCycle() {
	o.val = nil
	o.set = false
}

// Connected reports whether at least one Input has been wired to this
// Output. Outputs may fan out to any number of Inputs.
func (o *Output) Connected() bool { return o.fanout > 0 }

// Input reads exactly one upstream Output.
type Input struct {
	name string
	src  *Output
}

func newInput(name string) *Input {
	return &Input{name: name}
}

// Name returns the fully qualified port name.
func (i *Input) Name() string { return i.name }

// Get reads the connected Output, forcing its evaluation if necessary. A
// dangling (unconnected) Input is a fatal wiring error.
func (i *Input) Get() Value {
	if i.src == nil {
		panic(fmt.Sprintf("wire: input %s is not connected", i.name))
	}
	return i.src.Get()
}

// Connected reports whether this Input has a producing Output.
func (i *Input) Connected() bool { return i.src != nil }

// Connect links an Output to an Input. Each Input may be connected exactly
// once; each Output may fan out to any number of Inputs.
func Connect(o *Output, i *Input) {
	if i.src != nil {
		panic(fmt.Sprintf("wire: input %s already connected to %s", i.name, i.src.name))
	}
	i.src = o
	o.fanout++
}
