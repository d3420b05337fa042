package config

import "flag"

// Flags holds command-line overrides. Zero values leave the loaded
// configuration untouched.
type Flags struct {
	Config    string
	Debug     bool
	Host      string
	NoTerrain bool
	NoProps   bool
	NoTrees   bool
	Size      int
	Format    string
}

// Register binds the override flags to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.Host, "host", "", "Host application version (e.g. 4.2)")
	fs.BoolVar(&f.NoTerrain, "no-terrain", false, "Skip terrain patches and materials")
	fs.BoolVar(&f.NoProps, "no-props", false, "Skip static props")
	fs.BoolVar(&f.NoTrees, "no-trees", false, "Skip trees")
	fs.IntVar(&f.Size, "size", 0, "Bake output size in pixels")
	fs.StringVar(&f.Format, "format", "", "Bake output format (png, webp)")
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Host != "" {
		cfg.Host.Version = f.Host
	}
	if f.NoTerrain {
		cfg.Import.Terrain = false
	}
	if f.NoProps {
		cfg.Import.Props = false
	}
	if f.NoTrees {
		cfg.Import.Trees = false
	}
	if f.Size > 0 {
		cfg.Bake.Size = f.Size
	}
	if f.Format != "" {
		cfg.Bake.Format = f.Format
	}
}
