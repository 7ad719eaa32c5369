// Command pcdtool inspects and rewrites PCD point cloud files.
//
// Usage:
//
//	pcdtool info [-cache dir] file.pcd...
//	pcdtool convert -format ascii|binary|binary_compressed file.pcd...
//	pcdtool relabel -value N file.pcd...
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sddavis14/semantic-segmentation-cloud-labeler/cloudcache"
	"github.com/sddavis14/semantic-segmentation-cloud-labeler/pcd"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	verbose := false
	args := os.Args[2:]
	level := slog.LevelWarn
	for _, a := range args {
		if a == "-v" {
			verbose = true
		}
	}
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var err error
	switch os.Args[1] {
	case "info":
		err = runInfo(args, logger)
	case "convert":
		err = runConvert(args, logger)
	case "relabel":
		err = runRelabel(args, logger)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "pcdtool:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  pcdtool info [-cache dir] [-v] file.pcd...
  pcdtool convert -format ascii|binary|binary_compressed [-v] file.pcd...
  pcdtool relabel -value N [-v] file.pcd...`)
}

func runInfo(args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	cacheDir := fs.String("cache", "", "decoded-cloud cache directory")
	fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	parser := pcd.NewParser(pcd.WithLogger(logger))

	var cache *cloudcache.Store
	if *cacheDir != "" {
		var err error
		cache, err = cloudcache.New(*cacheDir, cloudcache.WithLogger(logger))
		if err != nil {
			return err
		}
	}

	for _, path := range fs.Args() {
		cloud, err := loadCloud(parser, cache, logger, path)
		if err != nil {
			return err
		}
		printInfo(path, cloud)
	}
	return nil
}

func loadCloud(parser *pcd.Parser, cache *cloudcache.Store, logger *slog.Logger, path string) (*pcd.Cloud, error) {
	if cache != nil {
		c, ok, err := cache.Get(path)
		if err != nil {
			// A broken entry is not fatal, the source file is still
			// there; fall through to a fresh parse.
			logger.Warn("cache read failed", "path", path, "error", err)
		} else if ok {
			return c, nil
		}
	}
	c, err := parser.Parse(path)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		if err := cache.Put(path, c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func printInfo(path string, c *pcd.Cloud) {
	fields := make([]string, 0, len(c.Header.Fields))
	for _, f := range c.Header.Fields {
		fields = append(fields, fmt.Sprintf("%s(%s%d)", f.Name, f.Kind, f.Size))
	}
	fmt.Printf("%s: %d points, %s, fields: %s\n",
		path, c.NumPoints(), c.Header.Format, strings.Join(fields, " "))
	if c.HasRGB() {
		fmt.Printf("%s: has color\n", path)
	}
}

func runConvert(args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	format := fs.String("format", "", "target encoding")
	fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	target := pcd.Format(*format)
	if !target.Valid() {
		return fmt.Errorf("unsupported target format %q", *format)
	}

	parser := pcd.NewParser(pcd.WithLogger(logger))

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, path := range fs.Args() {
		g.Go(func() error {
			return parser.Convert(path, target)
		})
	}
	return g.Wait()
}

func runRelabel(args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("relabel", flag.ExitOnError)
	value := fs.Uint("value", 0, "label value to assign to every point")
	fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	parser := pcd.NewParser(pcd.WithLogger(logger))

	for _, path := range fs.Args() {
		c, err := parser.Parse(path)
		if err != nil {
			return err
		}
		labels := make([]uint32, c.NumPoints())
		for i := range labels {
			labels[i] = uint32(*value)
		}
		c.SetLabels(labels)
		if err := parser.Write(path, c, c.Header.Format); err != nil {
			return err
		}
	}
	return nil
}
