package microbian

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProcessSpec describes one process entry in a scenario manifest: enough
// to Spawn it, plus which IRQ (if any) it should Connect to once running.
type ProcessSpec struct {
	Name      string `yaml:"name"`
	Role      string `yaml:"role"` // selects a body from the demo registry (demo.go)
	Priority  string `yaml:"priority"`
	StackSize uint   `yaml:"stack_size"`
	IRQ       int    `yaml:"irq"` // passed as the body's arg; the interrupt-counter role connects to it
}

// Scenario is the demo's process/IRQ-wiring manifest: a declarative list
// of what cmd/microbiand should Spawn before calling Run, the ambient
// configuration surface left to whatever embeds the kernel.
type Scenario struct {
	ArenaSize     int           `yaml:"arena_size"`
	IdleStackSize uint          `yaml:"idle_stack_size"`
	Processes     []ProcessSpec `yaml:"processes"`
}

// priorityByName maps a manifest's priority string onto the scheduling
// constants in process.go.
var priorityByName = map[string]int{
	"handler": P_HANDLER,
	"high":    P_HIGH,
	"low":     P_LOW,
}

// ResolvePriority looks up a manifest priority name against the three
// scheduled levels.
func ResolvePriority(name string) (int, error) {
	p, ok := priorityByName[name]
	if !ok {
		return 0, fmt.Errorf("microbian: unknown priority %q (want handler, high, or low)", name)
	}
	return p, nil
}

// LoadScenario reads and parses a YAML scenario manifest.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("microbian: reading scenario %q: %w", path, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("microbian: parsing scenario %q: %w", path, err)
	}
	if s.ArenaSize <= 0 {
		s.ArenaSize = DefaultConfig().ArenaSize
	}
	if s.IdleStackSize == 0 {
		s.IdleStackSize = DefaultConfig().IdleStackSize
	}
	return &s, nil
}
