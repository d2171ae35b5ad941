package router

import "strings"

// SoftwareEntry describes one supported application in the catalog.
type SoftwareEntry struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	InstallerURL string   `json:"installer_url"`
	Aliases      []string `json:"aliases,omitempty"`
}

// Catalog answers software-version lookups.
type Catalog []SoftwareEntry

// DefaultCatalog is the built-in supported-software list. Deployments
// override it through configuration.
func DefaultCatalog() Catalog {
	return Catalog{
		{Name: "Microsoft Outlook", Version: "2024.1", InstallerURL: "https://software.company.com/outlook", Aliases: []string{"outlook"}},
		{Name: "Zoom", Version: "6.5", InstallerURL: "https://software.company.com/zoom", Aliases: []string{"zoom"}},
		{Name: "Visual Studio Code", Version: "1.92", InstallerURL: "https://software.company.com/vscode", Aliases: []string{"vscode", "vs code", "visual studio code"}},
	}
}

// Lookup finds the catalog entry mentioned in the text, or nil.
func (c Catalog) Lookup(text string) *SoftwareEntry {
	lower := strings.ToLower(text)
	for i := range c {
		if strings.Contains(lower, strings.ToLower(c[i].Name)) {
			return &c[i]
		}
		for _, alias := range c[i].Aliases {
			if strings.Contains(lower, alias) {
				return &c[i]
			}
		}
	}
	return nil
}
