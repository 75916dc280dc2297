// loader.go - firmware image loading: the one place the emulator reads
// an external file

package main

import "fmt"

// LoadFirmware reads path and installs it into the simulator's Flash,
// truncated to the Flash container's capacity with no error, per the
// external firmware image format.
func LoadFirmware(sim *Simulator, path string) error {
	st := sim.Memory.LoadBinary(path)
	if st != StatusOk {
		return fmt.Errorf("load %s: %v", path, st)
	}
	sim.Core.Reset()
	return nil
}
