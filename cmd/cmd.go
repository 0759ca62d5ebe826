// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/tidalx/internal/catalog"
	"github.com/desertthunder/tidalx/internal/formatter"
	"github.com/desertthunder/tidalx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// listingFlags returns fresh flags for commands that print items.
func listingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: " + strings.Join(formatter.Formats(), ", "),
			Value:   string(formatter.Table),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to a file instead of stdout",
		},
		&cli.BoolFlag{
			Name:  "refresh",
			Usage: "Start again from the first page",
		},
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create a config file and initialize session storage",
		Action: r.Setup,
	}
}

func connectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "connect",
		Usage: "Link your TIDAL account with a device code",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Do not open the verification page",
			},
		},
		Action: r.Connect,
	}
}

func disconnectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "disconnect",
		Usage:  "Forget the stored session",
		Action: r.Disconnect,
	}
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the session state",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Status,
	}
}

func listCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List a category: " + strings.Join(catalog.Categories(), ", "),
		Flags:     listingFlags(),
		Arguments: []cli.Argument{&cli.StringArg{Name: "category"}},
		Action:    r.List,
	}
}

func childrenCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "children",
		Usage: "List the tracks under an artist, album, playlist or mix",
		Flags: listingFlags(),
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "category"},
			&cli.StringArg{Name: "path"},
		},
		Action: r.Children,
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the catalog for tracks",
		Flags:     listingFlags(),
		Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
		Action:    r.Search,
	}
}

func streamCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stream",
		Usage: "Print the stream URL of a track",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "quality",
				Aliases: []string{"q"},
				Usage:   "Audio quality: LOW, HIGH or LOSSLESS",
			},
		},
		Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
		Action:    r.Stream,
	}
}

func likeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "like",
		Usage:     "Add a track to favorites, or remove it if already liked",
		Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
		Action:    r.Like,
	}
}

func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "browse",
		Usage:  "Browse the catalog interactively",
		Action: r.Browse,
	}
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Back up categories to files in a directory",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "category",
				Aliases: []string{"c"},
				Usage:   "Category to export, repeatable (default: all)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "File format: json, csv, markdown or text",
				Value:   string(formatter.JSON),
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Output directory (default: tidal_export_{timestamp})",
			},
			&cli.BoolFlag{
				Name:  "children",
				Usage: "Also export the tracks under each artist, album, playlist and mix",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent workers (max 10)",
				Value: tasks.DefaultWorkers,
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Page requests per second",
				Value: tasks.DefaultRateLimit,
			},
			&cli.IntFlag{
				Name:  "max-pages",
				Usage: "Page cap per collection",
				Value: tasks.DefaultMaxPages,
			},
		},
		Action: r.Export,
	}
}
