// Command diagrams renders the greenstripes architecture diagrams as
// graphviz dot files under docs/diagrams.
package main

import (
	"log"
	"os"

	"github.com/blushft/go-diagrams/diagram"
	"github.com/blushft/go-diagrams/nodes/generic"
	"github.com/blushft/go-diagrams/nodes/programming"
)

const outputDir = "docs/diagrams"

func main() {
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		log.Fatal(err)
	}
	if err := os.Chdir(outputDir); err != nil {
		log.Fatal(err)
	}

	generateArchitectureDiagram()
	generateComponentDiagram()
}

// generateArchitectureDiagram shows how a CLI run reaches a catalog backend.
func generateArchitectureDiagram() {
	d, err := diagram.New(diagram.Filename("architecture"), diagram.Label("greenstripes Architecture"), diagram.Direction("LR"))
	if err != nil {
		log.Fatal(err)
	}

	user := generic.Blank.Blank(diagram.NodeLabel("User"))
	cli := programming.Language.Go(diagram.NodeLabel("greenstripes CLI"))
	session := programming.Language.Go(diagram.NodeLabel("Session"))
	cache := generic.Storage.Storage(diagram.NodeLabel("SQLite metadata cache"))
	spotifyAPI := generic.Blank.Blank(diagram.NodeLabel("Spotify Web API"))
	demo := generic.Blank.Blank(diagram.NodeLabel("Embedded demo catalog"))
	prom := generic.Blank.Blank(diagram.NodeLabel("Prometheus"))

	d.Connect(user, cli, diagram.Forward()).
		Connect(cli, session, diagram.Forward()).
		Connect(session, cache, diagram.Forward()).
		Connect(cache, spotifyAPI, diagram.Forward()).
		Connect(cache, demo, diagram.Forward()).
		Connect(prom, cli, diagram.Forward())

	if err := d.Render(); err != nil {
		log.Fatal(err)
	}
}

// generateComponentDiagram shows the packages and their dependencies.
func generateComponentDiagram() {
	d, err := diagram.New(diagram.Filename("components"), diagram.Label("greenstripes Components"), diagram.Direction("TB"))
	if err != nil {
		log.Fatal(err)
	}

	cmd := programming.Language.Go(diagram.NodeLabel("cmd/greenstripes"))
	config := programming.Language.Go(diagram.NodeLabel("pkg/config"))
	link := programming.Language.Go(diagram.NodeLabel("pkg/link"))
	sdk := programming.Language.Go(diagram.NodeLabel("internal/greenstripes"))
	search := programming.Language.Go(diagram.NodeLabel("internal/search"))
	metrics := programming.Language.Go(diagram.NodeLabel("internal/metrics"))
	cache := programming.Language.Go(diagram.NodeLabel("internal/cache"))
	spotify := programming.Language.Go(diagram.NodeLabel("internal/spotify"))
	catalog := programming.Language.Go(diagram.NodeLabel("internal/catalog"))

	backends := diagram.NewGroup("backends").Label("Backends").Add(cache, spotify, catalog)
	d.Group(backends)

	d.Connect(cmd, config, diagram.Forward()).
		Connect(cmd, sdk, diagram.Forward()).
		Connect(cmd, metrics, diagram.Forward()).
		Connect(sdk, link, diagram.Forward()).
		Connect(sdk, search, diagram.Forward()).
		Connect(sdk, cache, diagram.Forward()).
		Connect(cache, spotify, diagram.Forward()).
		Connect(cache, catalog, diagram.Forward())

	if err := d.Render(); err != nil {
		log.Fatal(err)
	}
}
