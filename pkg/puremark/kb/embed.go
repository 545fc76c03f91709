package kb

import (
	"embed"
	"io/fs"
)

//go:embed data/*.yaml
var data embed.FS

// DefaultName is the config name of the embedded registries.
const DefaultName = "default"

// Files lists the registry files in the order they are hashed into a
// version.
var Files = []string{
	"enumbers.yaml",
	"alcohol.yaml",
	"animal.yaml",
	"certifiers.yaml",
	"plants.yaml",
	"kosher.yaml",
	"diets.yaml",
	"allergens.yaml",
	"zones.yaml",
	"sources.yaml",
}

// Embedded returns the registries compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(data, "data")
	if err != nil {
		panic(err)
	}
	return sub
}
