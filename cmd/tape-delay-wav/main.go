// Command tape-delay-wav runs a WAV file through the variable-speed tape
// delay and writes the result, including the delay tail, to a new file.
//
// Usage:
//
//	tape-delay-wav input.wav output.wav
//	tape-delay-wav -delay 0.75 -speed 2 -at 1 -hold 1 input.wav output.wav
//	tape-delay-wav -strategy deferred -quality high input.wav output.wav
//
// The transport starts at unity speed, ramps to -speed at -at seconds,
// holds it for -hold seconds, then ramps back. With -mix below 1 the dry
// signal is blended back in, turning the effect into a conventional
// wet/dry delay send.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	tapedelay "github.com/tphakala/go-tape-delay"
)

const (
	// Processing block in frames. A multiple of the engine chunk size so
	// only the final short read needs padding.
	blockFrames = 4096

	chunkFrames = 256

	// CLI defaults
	defaultDelaySeconds = 0.5
	defaultTargetSpeed  = 2.0
	defaultRampAt       = 1.0
	defaultRampHold     = 1.0
	defaultRampMs       = 500.0
	defaultMix          = 1.0
	minRequiredArgs     = 2

	percentScale = 100
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() (err error) {
	delay := flag.Float64("delay", defaultDelaySeconds, "Delay time in seconds")
	speed := flag.Float64("speed", defaultTargetSpeed, "Target tape speed for the automation ramp (1 = unity)")
	rampAt := flag.Float64("at", defaultRampAt, "Seconds into the file to start the speed ramp")
	rampHold := flag.Float64("hold", defaultRampHold, "Seconds to hold the target speed before ramping back")
	rampMs := flag.Float64("ramp", defaultRampMs, "Speed ramp time in milliseconds")
	quality := flag.String("quality", "medium", "Quality preset: quick, low, medium, high, veryhigh")
	strategy := flag.String("strategy", "dual", "Speed strategy: dual or deferred")
	mix := flag.Float64("mix", defaultMix, "Wet mix (0 = dry only, 1 = delay only)")
	tail := flag.Float64("tail", -1, "Seconds of tail to render after the input ends (default: the delay time)")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	args := flag.Args()
	if len(args) < minRequiredArgs {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.wav output.wav\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -delay 0.75 guitar.wav guitar_echo.wav\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -speed 0.5 -at 2 -hold 2 voice.wav voice_tape.wav\n", os.Args[0])
		return errors.New("insufficient arguments")
	}
	inputPath := args[0]
	outputPath := args[1]

	if *mix < 0 || *mix > 1 {
		return fmt.Errorf("mix %g outside [0, 1]", *mix)
	}
	strat, err := parseStrategy(*strategy)
	if err != nil {
		return err
	}
	if *tail < 0 {
		*tail = *delay
	}

	input, err := openWAVInput(inputPath, *verbose)
	if err != nil {
		return err
	}
	defer func() { _ = input.Close() }()

	cfg := tapedelay.DefaultConfig(input.rate, input.channels)
	cfg.ChunkSize = chunkFrames
	cfg.MaxBlockSize = blockFrames
	cfg.DelaySeconds = *delay
	cfg.Quality = parseQuality(*quality)
	cfg.Strategy = strat
	cfg.UpdateGranularity = tapedelay.GranularityChunk
	cfg.MinSpeed, cfg.MaxSpeed = speedBounds(cfg.MinSpeed, cfg.MaxSpeed, *speed)

	engine, err := tapedelay.New[float64](cfg)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	plan, err := newSpeedPlan(float64(input.rate), *rampMs, *speed, *rampAt, *rampHold)
	if err != nil {
		return err
	}

	if *verbose {
		log.Printf("Input: %s (%d Hz, %d channels, %d-bit)", inputPath, input.rate, input.channels, input.bitDepth)
		log.Printf("Delay: %.3f s (%d samples), quality %s, strategy %s",
			*delay, engine.Latency(), cfg.Quality, cfg.Strategy)
		log.Printf("Speed ramp: 1 -> %.3g at %.2fs, hold %.2fs, ramp %.0f ms", *speed, *rampAt, *rampHold, *rampMs)
	}

	output, err := createWAVOutput(outputPath, input.rate, input.bitDepth, input.channels)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := output.Close(); err == nil {
			err = closeErr
		}
	}()

	start := time.Now()
	stats, err := processFile(engine, input, output, plan, *mix, *tail, *verbose)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("Processed %s -> %s\n", filepath.Base(inputPath), filepath.Base(outputPath))
	fmt.Printf("  %d frames in, %d frames out (%.2f s tail)\n", stats.inputFrames, stats.outputFrames, *tail)
	fmt.Printf("  Duration: %.2fs, Speed: %.1fx realtime\n",
		elapsed.Seconds(),
		float64(stats.inputFrames)/float64(input.rate)/elapsed.Seconds())
	if stats.degradedBlocks > 0 {
		d := engine.Diagnostics()
		fmt.Printf("  Degraded blocks: %d (%d underrun, %d overrun samples)\n",
			stats.degradedBlocks, d.UnderrunSamples, d.OverrunSamples)
	}

	return nil
}

type processStats struct {
	inputFrames    int64
	outputFrames   int64
	degradedBlocks int64
}

// processFile streams the input through the engine block by block, then
// renders the tail from silence so the last echoes are not cut off.
func processFile(
	engine *tapedelay.Engine[float64],
	input *wavInputInfo,
	output *wavOutputWriter,
	plan *speedPlan,
	mix, tailSeconds float64,
	verbose bool,
) (*processStats, error) {
	stats := &processStats{}
	bufs := newBlockBuffers(input.channels, input.bitDepth)
	progress := newProgressTracker(input.totalFrames, verbose)

	for {
		n, err := input.decoder.PCMBuffer(bufs.intBuffer)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read audio data: %w", err)
		}
		if n == 0 {
			break
		}
		frames := n / input.channels
		stats.inputFrames += int64(frames)

		if err := runBlock(engine, bufs, plan, mix, frames, stats); err != nil {
			return nil, err
		}
		if err := output.WriteFrames(bufs, frames); err != nil {
			return nil, err
		}
		stats.outputFrames += int64(frames)
		progress.reportIfNeeded(stats.inputFrames)
	}

	// Tail: keep the transport running on silence.
	tailFrames := int64(tailSeconds * float64(input.rate))
	for tailFrames > 0 {
		frames := blockFrames
		if int64(frames) > tailFrames {
			frames = int(tailFrames)
		}
		bufs.zeroInput(frames)
		if err := runBlock(engine, bufs, plan, mix, frames, stats); err != nil {
			return nil, err
		}
		if err := output.WriteFrames(bufs, frames); err != nil {
			return nil, err
		}
		stats.outputFrames += int64(frames)
		tailFrames -= int64(frames)
	}

	return stats, nil
}

// runBlock deinterleaves frames into the channel buffers, pads to a chunk
// multiple, processes in place, and blends the dry signal back in.
func runBlock(
	engine *tapedelay.Engine[float64],
	bufs *blockBuffers,
	plan *speedPlan,
	mix float64,
	frames int,
	stats *processStats,
) error {
	padded := padToChunk(frames, chunkFrames)
	bufs.deinterleave(frames, padded)

	status, err := engine.Process(bufs.wet, plan.next(frames))
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}
	if status == tapedelay.StatusDegraded {
		stats.degradedBlocks++
	}

	bufs.blend(mix, frames)
	bufs.interleave(frames)
	return nil
}
