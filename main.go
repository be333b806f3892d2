package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/anicoll/strom-graph/cmd"
)

func main() {
	app := &cli.App{
		Name:  "strom-graph",
		Usage: "render the meter's round-robin database as a PNG chart",
		Description: "Runs once and exits. Schedule it externally (cron, systemd timer); " +
			"a failed run is simply retried on the next tick. " +
			"Labels and the timestamp default to German; --language en prints them as the C locale does.",
		Action: cmd.GraphCommand,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				EnvVars: []string{"STROMGRAPH_CONFIG"},
				Usage:   "optional YAML configuration file",
			},
			&cli.StringFlag{
				Name:  "rrd-path",
				Usage: "round-robin database to read",
			},
			&cli.StringFlag{
				Name:  "backup-path",
				Usage: "where the backup command copies the database",
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "PNG file to write",
			},
			&cli.StringFlag{
				Name:  "renderer",
				Usage: "rrdtool or chart",
			},
			&cli.StringSliceFlag{
				Name:  "period",
				Usage: "hour, day or week; repeatable",
			},
			&cli.StringSliceFlag{
				Name:  "language",
				Usage: "de or en (C locale timestamp); repeatable",
			},
			&cli.BoolFlag{
				Name:  "power-area",
				Usage: "fill the area under the power line",
			},
			&cli.BoolFlag{
				Name:  "zero-line",
				Usage: "draw a rule at 0 W on the power axis",
			},
			&cli.DurationFlag{
				Name:  "render-timeout",
				Usage: "abandon rendering after this long, 0 waits forever",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "zap log level",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "graph",
				Usage:  "render the configured graphs (default)",
				Action: cmd.GraphCommand,
			},
			{
				Name:   "backup",
				Usage:  "copy the database to the backup path",
				Action: cmd.BackupCommand,
			},
			{
				Name:   "inspect",
				Usage:  "log the database's data sources and metadata",
				Action: cmd.InspectCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
