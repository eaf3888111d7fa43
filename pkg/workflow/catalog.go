package workflow

import (
	"fmt"
)

// PortGroup is one semantic port group declared by a module.
type PortGroup struct {
	PortType  string   `json:"port_type" bson:"port_type"`
	Variables []string `json:"variables" bson:"variables"`
	MultiPort string   `json:"multi_port,omitempty" bson:"multi_port,omitempty"`
}

// Module is a reusable component definition.
type Module struct {
	ComponentName string      `json:"componentName" bson:"component_name"`
	SourceFile    string      `json:"sourceFile" bson:"source_file"`
	GeneralPorts  []PortGroup `json:"general_ports,omitempty" bson:"general_ports,omitempty"`
	EntrancePorts []PortGroup `json:"entrance_ports,omitempty" bson:"entrance_ports,omitempty"`
	ExitPorts     []PortGroup `json:"exit_ports,omitempty" bson:"exit_ports,omitempty"`
}

// CatalogFile groups the modules parsed from one module file.
type CatalogFile struct {
	Filename string   `json:"filename" bson:"filename"`
	Modules  []Module `json:"modules" bson:"modules"`
}

// Catalog is the list of available module files.
type Catalog []CatalogFile

// ConfigEntry maps a vessel type to a module.
type ConfigEntry struct {
	VesselType string `json:"vessel_type" bson:"vessel_type"`
	ModuleFile string `json:"module_file" bson:"module_file"`
	ModuleType string `json:"module_type" bson:"module_type"`

	// Port groups declared on the config entry take precedence over the
	// module's own groups.
	GeneralPorts  []PortGroup `json:"general_ports,omitempty" bson:"general_ports,omitempty"`
	EntrancePorts []PortGroup `json:"entrance_ports,omitempty" bson:"entrance_ports,omitempty"`
	ExitPorts     []PortGroup `json:"exit_ports,omitempty" bson:"exit_ports,omitempty"`
}

// Key returns the composite module key of the entry.
func (c ConfigEntry) Key() string { return ModuleKey(c.ModuleFile, c.ModuleType) }

// Config is the vessel type to module mapping.
type Config []ConfigEntry

// Lookup returns the first entry for vesselType.
func (c Config) Lookup(vesselType string) (ConfigEntry, bool) {
	for _, e := range c {
		if e.VesselType == vesselType {
			return e, true
		}
	}
	return ConfigEntry{}, false
}

// Vessel is one row of the vessel table.
type Vessel struct {
	Name       string `json:"name" bson:"name"`
	BCType     string `json:"BC_type,omitempty" bson:"bc_type,omitempty"`
	VesselType string `json:"vessel_type" bson:"vessel_type"`
	Inputs     string `json:"inp_vessels" bson:"inp_vessels"`
	Outputs    string `json:"out_vessels" bson:"out_vessels"`
}

// Input bundles the three tables an import consumes.
type Input struct {
	Catalog Catalog  `json:"catalog" bson:"catalog"`
	Config  Config   `json:"config" bson:"config"`
	Vessels []Vessel `json:"vessels" bson:"vessels"`
}

// ModuleKey builds the "<file>::<componentName>" lookup key.
func ModuleKey(file, componentName string) string {
	return fmt.Sprintf("%s::%s", file, componentName)
}

// Index returns the catalog's modules by composite key. When a file
// declares the same component twice, the first declaration wins.
func (c Catalog) Index() map[string]Module {
	idx := make(map[string]Module)
	for _, f := range c {
		for _, m := range f.Modules {
			key := ModuleKey(f.Filename, m.ComponentName)
			if _, ok := idx[key]; !ok {
				idx[key] = m
			}
		}
	}
	return idx
}
