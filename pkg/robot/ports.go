package robot

import (
	"fmt"
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"
)

// PortInfo describes a serial port that may lead to the microcontroller.
type PortInfo struct {
	Name    string
	Product string
	VID     string
	PID     string
	IsUSB   bool
}

// Label is a one-line description for pickers.
func (p PortInfo) Label() string {
	if !p.IsUSB {
		return p.Name
	}
	desc := p.Product
	if desc == "" {
		desc = "USB " + p.VID + ":" + p.PID
	}
	return fmt.Sprintf("%s (%s)", p.Name, desc)
}

// Arduino-compatible USB vendors.
var preferredVIDs = map[string]bool{
	"2341": true, // Arduino
	"2A03": true, // Arduino.org
	"1A86": true, // QinHeng CH340
	"0403": true, // FTDI
	"10C4": true, // Silicon Labs CP210x
}

// FindPorts lists serial ports, microcontroller candidates first.
func FindPorts() ([]PortInfo, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate ports: %w", err)
	}
	infos := make([]PortInfo, 0, len(ports))
	for _, p := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(p.Name, "Bluetooth") {
			continue
		}
		infos = append(infos, PortInfo{
			Name:    p.Name,
			Product: p.Product,
			VID:     p.VID,
			PID:     p.PID,
			IsUSB:   p.IsUSB,
		})
	}
	SortPorts(infos)
	return infos, nil
}

// SortPorts orders ports by how likely they are the microcontroller:
// known vendors, then other USB ports, then the rest, each by name.
func SortPorts(ports []PortInfo) {
	rank := func(p PortInfo) int {
		switch {
		case p.IsUSB && preferredVIDs[strings.ToUpper(p.VID)]:
			return 0
		case p.IsUSB:
			return 1
		}
		return 2
	}
	sort.SliceStable(ports, func(i, j int) bool {
		ri, rj := rank(ports[i]), rank(ports[j])
		if ri != rj {
			return ri < rj
		}
		return ports[i].Name < ports[j].Name
	})
}
