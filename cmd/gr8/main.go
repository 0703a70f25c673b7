package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/valerio/go-gr8/gr8"
	"github.com/valerio/go-gr8/gr8/monitor"
	"github.com/valerio/go-gr8/gr8/program"
	"github.com/valerio/go-gr8/gr8/render"
	"github.com/valerio/go-gr8/gr8/timing"
	"github.com/valerio/go-gr8/gr8/tty"
)

const logBufferSize = 200

func main() {
	app := cli.NewApp()
	app.Name = "gr8"
	app.Description = "Terminal front-end and debugger for the GR8CPU emulator"
	app.Usage = "gr8 [options] [program file]"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "exec, x",
			Usage: "Start running immediately instead of stopped",
		},
		cli.IntFlag{
			Name:  "freq",
			Usage: "Initial frequency preset, 0 (100 MHz) to 13 (0.5 Hz)",
			Value: timing.DefaultPreset,
		},
		cli.StringFlag{
			Name:  "monitor",
			Usage: "Serve a websocket status stream on this address, e.g. localhost:8642",
		},
		cli.StringFlag{
			Name:  "log",
			Usage: "Write logs to this file instead of showing them on exit",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Log at debug level",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run without the dashboard, printing program output to stdout",
		},
		cli.Uint64Flag{
			Name:  "max-cycles",
			Usage: "Cycle limit in headless mode (required for headless)",
		},
	}
	app.Action = runEmulator

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func runEmulator(c *cli.Context) error {
	level := new(slog.LevelVar)
	if c.Bool("debug") {
		level.Set(slog.LevelDebug)
	}

	image, err := loadProgram(c.Args().First())
	if err != nil {
		return err
	}

	if c.Bool("headless") {
		maxCycles := c.Uint64("max-cycles")
		if maxCycles == 0 {
			return errors.New("headless mode requires --max-cycles option with a positive value")
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		s, err := gr8.RunHeadless(image, os.Stdout, maxCycles)
		if err != nil {
			return err
		}
		slog.Info("Headless execution completed",
			"cycles", s.CPU.Cycles, "instructions", s.CPU.Insns, "halted", s.CPU.Halted)
		return nil
	}

	flushLogs, err := setupLogging(c.String("log"), level)
	if err != nil {
		return err
	}
	defer flushLogs()

	cfg := gr8.Config{
		Program:        image,
		Frequency:      c.Int("freq"),
		RunImmediately: c.Bool("exec"),
	}

	if addr := c.String("monitor"); addr != "" {
		mon := monitor.New()
		defer mon.Close()
		go func() {
			if err := mon.ListenAndServe(addr); err != nil {
				slog.Error("Monitor stopped", "error", err)
			}
		}()
		cfg.Monitor = mon
	}

	term, err := tty.Open()
	if err != nil {
		return err
	}
	defer term.Close()
	stop := term.RestoreOnSignal()
	defer stop()

	emu, err := gr8.New(term, timing.SystemClock{}, cfg)
	if err != nil {
		return err
	}
	return emu.Run()
}

// loadProgram reads path, or returns nil for the built-in program when path
// is empty or the image does not fit.
func loadProgram(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	image, err := program.Load(path)
	if errors.Is(err, program.ErrTooLarge) {
		slog.Warn("Program does not fit below the I/O page, running the built-in one", "error", err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	slog.Info("Loaded program", "path", path, "bytes", len(image))
	return image, nil
}

// setupLogging routes logs away from the terminal while the dashboard owns
// it. Without a log file, records are kept in memory and printed to stderr
// by the returned function once the terminal is restored.
func setupLogging(path string, level slog.Leveler) (func(), error) {
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})))
		return func() { f.Close() }, nil
	}

	buffer := render.NewLogBuffer(logBufferSize)
	previous := slog.Default()
	slog.SetDefault(slog.New(render.NewLogBufferHandler(buffer, level)))
	return func() {
		slog.SetDefault(previous)
		buffer.WriteTo(os.Stderr)
	}, nil
}
