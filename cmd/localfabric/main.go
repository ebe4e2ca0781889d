package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/exp/maps"

	"github.com/eagraf/localfabric/internal/config"
	"github.com/eagraf/localfabric/internal/docker"
	"github.com/eagraf/localfabric/internal/logging"
	"github.com/eagraf/localfabric/internal/output"
	"github.com/eagraf/localfabric/internal/runtime"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

var (
	configDir string
	logLevel  string

	rt   *runtime.Runtime
	sink = output.NewConsoleAdapter(os.Stdout)
)

// setup loads the config and connects to docker before any command runs.
func setup(c *cli.Context) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	logging.NewLoggerWithLevel(os.Stderr, logging.ParseLevel(logLevel))

	api, err := docker.NewClient()
	if err != nil {
		return err
	}
	rt = runtime.NewFromConfig(cfg, api)
	log.Debug().Str("directory", cfg.Directory).Str("scripts", cfg.ScriptsDir).Msg("runtime configured")
	return nil
}

func printJSON(v interface{}) error {
	marshalled, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(marshalled))
	return nil
}

type lifecycleOp func(r *runtime.Runtime, c *cli.Context) error

func lifecycleCommand(name, usage string, op lifecycleOp) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Action: func(c *cli.Context) error {
			return op(rt, c)
		},
	}
}

func start() *cli.Command {
	return lifecycleCommand("start", "Start the local network.", func(r *runtime.Runtime, c *cli.Context) error {
		return r.Start(c.Context, sink)
	})
}

func stop() *cli.Command {
	return lifecycleCommand("stop", "Stop the local network, keeping its data.", func(r *runtime.Runtime, c *cli.Context) error {
		return r.Stop(c.Context, sink)
	})
}

func restart() *cli.Command {
	return lifecycleCommand("restart", "Stop and start the local network.", func(r *runtime.Runtime, c *cli.Context) error {
		return r.Restart(c.Context, sink)
	})
}

func teardown() *cli.Command {
	return lifecycleCommand("teardown", "Remove the local network's containers and volumes.", func(r *runtime.Runtime, c *cli.Context) error {
		return r.Teardown(c.Context, sink)
	})
}

func status() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show whether the local network exists and is running.",
		Action: func(c *cli.Context) error {
			return printJSON(map[string]interface{}{
				"name":              rt.Name(),
				"created":           rt.IsCreated(c.Context),
				"running":           rt.IsRunning(c.Context),
				"development_mode":  rt.IsDevelopmentMode(),
				"peer_container":    rt.PeerContainerName(),
				"chaincode_address": rt.ChaincodeAddress(),
				"logs_address":      rt.LogsAddress(),
			})
		},
	}
}

func exportProfile() *cli.Command {
	var dir string
	return &cli.Command{
		Name:  "export-profile",
		Usage: "Write the connection profile of the running network.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "dir",
				Usage:       "Directory to export into. Defaults to the configured directory.",
				Destination: &dir,
			},
		},
		Action: func(c *cli.Context) error {
			return rt.ExportConnectionProfile(c.Context, sink, dir)
		},
	}
}

func deleteConnectionDetails() *cli.Command {
	return &cli.Command{
		Name:  "delete-connection-details",
		Usage: "Remove the exported connection profile and wallets.",
		Action: func(c *cli.Context) error {
			rt.DeleteConnectionDetails(sink)
			return nil
		},
	}
}

func followLogs() *cli.Command {
	return &cli.Command{
		Name:  "logs",
		Usage: "Follow the network's logs until interrupted.",
		Action: func(c *cli.Context) error {
			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := rt.StartLogs(ctx, sink); err != nil {
				return err
			}
			defer rt.StopLogs()
			<-ctx.Done()
			return nil
		},
	}
}

func nodes() *cli.Command {
	return &cli.Command{
		Name:  "nodes",
		Usage: "List the network's nodes.",
		Action: func(c *cli.Context) error {
			return printJSON(rt.Nodes())
		},
	}
}

func gateways() *cli.Command {
	return &cli.Command{
		Name:  "gateways",
		Usage: "Show the gateway of the running network.",
		Action: func(c *cli.Context) error {
			gws, err := rt.Gateways(c.Context)
			if err != nil {
				return err
			}
			return printJSON(gws)
		},
	}
}

func identities() *cli.Command {
	var walletName string
	return &cli.Command{
		Name:  "identities",
		Usage: "List the identities held in a wallet.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "wallet",
				Usage:       "Wallet to list.",
				Destination: &walletName,
			},
		},
		Action: func(c *cli.Context) error {
			if walletName == "" {
				return printJSON(rt.WalletNames())
			}
			ids, err := rt.Identities(walletName)
			if err != nil {
				return err
			}
			return printJSON(ids)
		},
	}
}

func importIdentity() *cli.Command {
	var walletName, mspDir string
	return &cli.Command{
		Name:  "import-identity",
		Usage: "Import the admin identity from an MSP directory into a wallet.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "wallet",
				Usage:       "Wallet to import into.",
				Destination: &walletName,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "msp-dir",
				Usage:       "MSP directory containing signcerts and keystore.",
				Destination: &mspDir,
				Required:    true,
			},
		},
		Action: func(c *cli.Context) error {
			return rt.ImportAdminIdentity(walletName, mspDir)
		},
	}
}

func devMode() *cli.Command {
	return &cli.Command{
		Name:      "dev-mode",
		Usage:     "Show or set chaincode development mode.",
		ArgsUsage: "[on|off]",
		Action: func(c *cli.Context) error {
			switch c.Args().First() {
			case "":
				fmt.Println(rt.IsDevelopmentMode())
				return nil
			case "on":
				return rt.SetDevelopmentMode(true)
			case "off":
				return rt.SetDevelopmentMode(false)
			default:
				return fmt.Errorf("expected on or off, got %s", c.Args().First())
			}
		},
	}
}

func main() {
	commands := map[string]*cli.Command{
		"start":                     start(),
		"stop":                      stop(),
		"restart":                   restart(),
		"teardown":                  teardown(),
		"status":                    status(),
		"export-profile":            exportProfile(),
		"delete-connection-details": deleteConnectionDetails(),
		"logs":                      followLogs(),
		"nodes":                     nodes(),
		"gateways":                  gateways(),
		"identities":                identities(),
		"import-identity":           importIdentity(),
		"dev-mode":                  devMode(),
	}

	for name, command := range commands {
		if command.Name != name {
			panic(fmt.Sprintf("command %s's name didn't match", name))
		}
	}

	app := &cli.App{
		Name:  "localfabric",
		Usage: "Manage a local Hyperledger Fabric development network",
		CommandNotFound: func(ctx *cli.Context, s string) {
			fmt.Println("command not found: ", s)
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config-dir",
				Aliases:     []string{"c"},
				Usage:       "Directory containing localfabric.yml",
				Destination: &configDir,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "One of debug, info, warn, error",
				Destination: &logLevel,
			},
		},
		Before:   setup,
		Commands: maps.Values(commands),
	}

	err := app.Run(os.Args)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
