package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"
	"github.com/soulaudio/soul-player-sub002/dsp/dither"
	"github.com/soulaudio/soul-player-sub002/dsp/effectchain"
	"github.com/soulaudio/soul-player-sub002/dsp/resample"
	"github.com/soulaudio/soul-player-sub002/internal/cli"
	"github.com/soulaudio/soul-player-sub002/internal/render"
	"github.com/soulaudio/soul-player-sub002/internal/wavio"
)

var version = "0.1.0"

// Globals are shared by every command.
type Globals struct {
	LogLevel string `help:"Log level (debug, info, warn, error)" default:"warn" enum:"trace,debug,info,warn,error"`
}

// CLI defines the command-line interface
type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version information"`
	Render   RenderCmd        `cmd:"" help:"Run a WAV file through an effect chain, resampler and quantizer"`
	Effects  EffectsCmd       `cmd:"" help:"List available effects"`
	Backends BackendsCmd      `cmd:"" help:"List resampler backends"`
	DoP      DoPCmd           `cmd:"" name:"dop" help:"Frame raw DSD as DoP words, or unframe them"`
}

type RenderCmd struct {
	Input   string `arg:"" type:"existingfile" help:"Input WAV file"`
	Output  string `arg:"" type:"path" help:"Output WAV file"`
	Chain   string `short:"c" type:"existingfile" help:"Effect chain JSON"`
	Rate    uint32 `short:"r" help:"Output sample rate (0 keeps the input rate)"`
	Bits    int    `short:"b" default:"24" help:"Output bit depth"`
	Quality string `short:"q" default:"high" enum:"fast,balanced,high,maximum" help:"Resampling quality"`
	Backend string `default:"auto" enum:"auto,high-quality,polyphase" help:"Resampler backend"`
	Dither  string `default:"triangular" enum:"none,rectangular,triangular,gaussian" help:"Dither type"`
	Shaping int    `short:"s" default:"0" help:"Noise shaper order (0, 1, 2, 3 or 5)"`
	Block   int    `default:"1024" help:"Frames per processing block"`
}

func (c *RenderCmd) Run(log *logrus.Logger) error {
	quality, err := resample.ParseQuality(c.Quality)
	if err != nil {
		return err
	}

	backend, err := resample.ParseBackend(c.Backend)
	if err != nil {
		return err
	}

	dt, err := dither.ParseDitherType(c.Dither)
	if err != nil {
		return err
	}

	clip, err := wavio.ReadFile(c.Input)
	if err != nil {
		return err
	}

	clip, err = clip.Stereo()
	if err != nil {
		return err
	}

	var chain *effectchain.Chain

	if c.Chain != "" {
		f, err := os.Open(c.Chain)
		if err != nil {
			return err
		}

		chain, err = effectchain.LoadConfig(f, effectchain.Context{
			SampleRate: clip.SampleRate,
			IRs:        effectchain.WAVFiles,
			Log:        log,
		}, nil)
		f.Close()

		if err != nil {
			return err
		}
	}

	words, rep, err := render.Render(clip, chain, render.Options{
		OutputRate:  c.Rate,
		Bits:        c.Bits,
		Quality:     quality,
		Backend:     backend,
		Dither:      dt,
		ShaperOrder: c.Shaping,
		BlockFrames: c.Block,
		Log:         log,
	})
	if err != nil {
		return err
	}

	if err := wavio.WriteFile(c.Output, words, rep.OutputRate, 2, c.Bits); err != nil {
		return err
	}

	fmt.Println(cli.TitleStyle.Render("Rendered " + c.Output))
	cli.PrintKV(os.Stdout, "Effects:", rep.Effects)
	cli.PrintKV(os.Stdout, "Rate:", fmt.Sprintf("%d Hz -> %d Hz", rep.InputRate, rep.OutputRate))
	cli.PrintKV(os.Stdout, "Frames:", fmt.Sprintf("%d -> %d", rep.InputFrames, rep.OutputFrames))
	cli.PrintKV(os.Stdout, "Backend:", rep.Backend)
	cli.PrintKV(os.Stdout, "Peak:", fmt.Sprintf("%.2f dBFS", rep.PeakDB))

	return nil
}

type EffectsCmd struct{}

func (c *EffectsCmd) Run() error {
	return cli.WriteEffects(os.Stdout, nil)
}

type BackendsCmd struct{}

func (c *BackendsCmd) Run() error {
	return cli.WriteBackends(os.Stdout)
}

type DoPCmd struct {
	Input    string `arg:"" type:"existingfile" help:"Input file"`
	Output   string `arg:"" type:"path" help:"Output file"`
	Channels int    `short:"n" default:"2" help:"Channel count"`
	Decode   bool   `short:"d" help:"Unframe DoP words back to DSD bytes"`
}

func (c *DoPCmd) Run(log *logrus.Logger) error {
	n, err := cli.ConvertDoPFile(c.Input, c.Output, c.Channels, c.Decode)

	if c.Decode {
		if n > 0 {
			log.WithField("resyncs", n).Warn("dop marker phase resynchronised")
		}

		return err
	}

	if err != nil {
		return err
	}

	cli.PrintKV(os.Stdout, "Frames:", n)

	return nil
}

func main() {
	var c CLI

	ctx := kong.Parse(&c,
		kong.Name("souldsp"),
		kong.Description("Offline runner for the Soul Player DSP chain"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	log, err := cli.NewLogger(os.Stderr, c.LogLevel)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	if err := ctx.Run(log); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}
