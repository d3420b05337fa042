// havenimport is a CLI for importing exported game areas into a scene
// description and inspecting their terrain materials.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/haven-area/internal/areaimport"
	"github.com/Faultbox/haven-area/internal/config"
	"github.com/Faultbox/haven-area/internal/logger"
	"github.com/Faultbox/haven-area/internal/scene"
	"github.com/Faultbox/haven-area/internal/shader"
	"github.com/Faultbox/haven-area/internal/texture"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "import", "i":
		cmdImport(args)
	case "graph":
		cmdGraph(args)
	case "bake":
		cmdBake(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`havenimport - game area importer

Usage:
  havenimport <command> [options]

Commands:
  info <file.havenarea>                       Show manifest contents
  import <file.havenarea> [-o scene.yaml]     Import the area and dump the scene
  graph <file.havenarea> <material>           Dump the terrain shader graph of a material
  bake <file.havenarea> <material> -o <file>  Render a material preview (png, webp)

Common options:
  -config <file>   Config file (default ./havenimport.yaml or user config dir)
  -host <version>  Host application version the graphs target
  -debug           Enable debug logging
  -no-terrain, -no-props, -no-trees

Examples:
  havenimport info levels/m01aa.havenarea
  havenimport import -no-trees -o m01aa.yaml levels/m01aa.havenarea
  havenimport bake -size 256 -o ground.webp levels/m01aa.havenarea Ground`)
}

// env is the state every command starts from.
type env struct {
	cfg     *config.Config
	profile shader.Profile
	log     *zap.Logger
}

// setup parses args on fs, loads the configuration and starts logging.
// It exits when fewer than minArgs positional arguments remain.
func setup(fs *flag.FlagSet, args []string, minArgs int, usage string) *env {
	var flags config.Flags
	flags.Register(fs)
	fs.Parse(args)

	if fs.NArg() < minArgs {
		fmt.Fprintln(os.Stderr, "Usage: havenimport "+usage)
		os.Exit(1)
	}

	cfg, err := config.Load(&flags)
	if err != nil {
		fail(err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fail(err)
	}

	profile, err := shader.ResolveProfile(cfg.Host.Version)
	if err != nil {
		profile = shader.LatestProfile()
		logger.Warn("host version not understood, using latest profile",
			zap.String("version", cfg.Host.Version),
			zap.String("profile", profile.Name),
			zap.Error(err))
	}
	logger.Log.Debug("host profile", zap.String("version", cfg.Host.Version), zap.String("profile", profile.Name))

	return &env{cfg: cfg, profile: profile, log: logger.Log}
}

func (e *env) newScene() *scene.Scene {
	return scene.New(e.profile, texture.NewRegistry(logger.Named("texture")), logger.Named("scene"))
}

func (e *env) options() areaimport.Options {
	return areaimport.Options{
		Terrain: e.cfg.Import.Terrain,
		Props:   e.cfg.Import.Props,
		Trees:   e.cfg.Import.Trees,
	}
}

func fail(err error) {
	logger.Sync()
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
