package injector

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Description is a snapshot of a Container's modules and services.
type Description struct {
	Modules  []string             `yaml:"modules"`
	Services []ServiceDescription `yaml:"services"`
}

// ServiceDescription describes one registered service.
type ServiceDescription struct {
	Name       string `yaml:"name"`
	Kind       string `yaml:"kind"`
	Built      bool   `yaml:"built"`
	Decorators int    `yaml:"decorators,omitempty"`
}

// YAML renders the description as a YAML document.
func (d Description) YAML() ([]byte, error) {
	return yaml.Marshal(d)
}

// Describe returns a snapshot of the loaded modules and every registered service,
// sorted by name.
func (c *Container) Describe() Description {
	desc := Description{Modules: c.Modules()}

	for key, v := range c.definitions.cache {
		def, ok := v.(*Definition)
		if !ok || key != def.Name+DefinitionSuffix {
			continue
		}
		_, built := c.runtime.cache[def.Name]
		desc.Services = append(desc.Services, ServiceDescription{
			Name:       def.Name,
			Kind:       def.Kind.String(),
			Built:      built,
			Decorators: len(def.decorators),
		})
	}
	for _, name := range c.registrar.constants {
		desc.Services = append(desc.Services, ServiceDescription{
			Name:  name,
			Kind:  KindConstant.String(),
			Built: true,
		})
	}

	sort.Slice(desc.Services, func(i, j int) bool {
		return desc.Services[i].Name < desc.Services[j].Name
	})
	return desc
}

// Status is a diagnostic tool that returns a string describing the state of the
// container: one line per registered service with its kind, whether it has been built,
// and how many decorators apply to it, followed by the loaded modules in load order.
func (c *Container) Status() string {
	desc := c.Describe()

	result := strings.Builder{}
	for _, s := range desc.Services {
		if result.Len() > 0 {
			result.WriteString("\n")
		}
		result.WriteString(fmt.Sprintf("%s - %s - built: %t", s.Name, s.Kind, s.Built))
		if s.Decorators > 0 {
			result.WriteString(fmt.Sprintf(" - decorators: %d", s.Decorators))
		}
	}

	if len(desc.Modules) > 0 {
		result.WriteString("\n----\nmodules: ")
		result.WriteString(strings.Join(desc.Modules, ", "))
	}
	return result.String()
}
