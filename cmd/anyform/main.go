// Command anyform converts data files between JSON, XML, YAML, and binary
// Protobuf.
//
// Usage:
//
//	anyform --from json --to yaml -i in.json -o out.yaml
//	anyform --from protobuf --to json --stream -i messages.bin
//
// A TOML profile (--profile) supplies defaults; explicit flags win.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/yukimura/anyform"
	_ "github.com/yukimura/anyform/format/json"
	"github.com/yukimura/anyform/format/protobuf"
	_ "github.com/yukimura/anyform/format/xml"
	_ "github.com/yukimura/anyform/format/yaml"
)

type profile struct {
	From          string `toml:"from"`
	To            string `toml:"to"`
	MaxDepth      int    `toml:"max_depth"`
	IgnoreErrors  bool   `toml:"ignore_errors"`
	SortKeys      bool   `toml:"sort_keys"`
	StripMetadata bool   `toml:"strip_metadata"`
	Rendering     string `toml:"rendering"`
	Indent        string `toml:"indent"`
}

func main() {
	var (
		from, to        string
		inPath, outPath string
		profilePath     string
		stream          bool
		maxDepth        int
		ignoreErrors    bool
		sortKeys        bool
		stripMetadata   bool
		minify          bool
		pretty          bool
		rendering       string
		numberFormat    string
		dateFormat      string
		dateLayout      string
		chunkSize       int
		verbose         bool
		indent          string
	)
	flag.StringVarP(&from, "from", "f", "", "input format (json|xml|yaml|protobuf)")
	flag.StringVarP(&to, "to", "t", "", "output format (json|xml|yaml|protobuf)")
	flag.StringVarP(&inPath, "in", "i", "-", "input file, - for stdin")
	flag.StringVarP(&outPath, "out", "o", "-", "output file, - for stdout")
	flag.StringVar(&profilePath, "profile", "", "TOML profile with default options")
	flag.BoolVar(&stream, "stream", false, "treat Protobuf input as a multi-message stream")
	flag.IntVar(&maxDepth, "max-depth", 0, "maximum nesting depth, 0 for unlimited")
	flag.BoolVar(&ignoreErrors, "ignore-errors", false, "substitute placeholders for failed units")
	flag.BoolVar(&sortKeys, "sort-keys", false, "sort object keys")
	flag.BoolVar(&stripMetadata, "strip-metadata", false, "drop @/# metadata keys")
	flag.BoolVar(&minify, "minify", false, "minified text output")
	flag.BoolVar(&pretty, "pretty", false, "pretty byte rendering (grouped hex/binary)")
	flag.StringVar(&rendering, "rendering", "base64", "protobuf byte rendering (base64|hex|binary)")
	flag.StringVar(&numberFormat, "number-format", "", "number rendering (scientific|hex)")
	flag.StringVar(&dateFormat, "date-format", "", "date rendering (iso8601|unix|custom)")
	flag.StringVar(&dateLayout, "date-layout", "", "Go layout for --date-format=custom")
	flag.IntVar(&chunkSize, "chunk-size", 0, "stream read size in bytes")
	flag.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if !verbose {
		log = log.Level(zerolog.InfoLevel)
	}

	if profilePath != "" {
		var p profile
		if _, err := toml.DecodeFile(profilePath, &p); err != nil {
			log.Fatal().Err(err).Str("profile", profilePath).Msg("cannot read profile")
		}
		if !flag.CommandLine.Changed("from") && p.From != "" {
			from = p.From
		}
		if !flag.CommandLine.Changed("to") && p.To != "" {
			to = p.To
		}
		if !flag.CommandLine.Changed("max-depth") && p.MaxDepth != 0 {
			maxDepth = p.MaxDepth
		}
		if !flag.CommandLine.Changed("ignore-errors") {
			ignoreErrors = p.IgnoreErrors
		}
		if !flag.CommandLine.Changed("sort-keys") {
			sortKeys = p.SortKeys
		}
		if !flag.CommandLine.Changed("strip-metadata") {
			stripMetadata = p.StripMetadata
		}
		if !flag.CommandLine.Changed("rendering") && p.Rendering != "" {
			rendering = p.Rendering
		}
		if p.Indent != "" {
			indent = p.Indent
		}
	}
	if from == "" || to == "" {
		fmt.Fprintln(os.Stderr, "anyform: --from and --to are required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := &anyform.Config{
		MaxDepth:      maxDepth,
		IgnoreErrors:  ignoreErrors,
		SortKeys:      sortKeys,
		StripMetadata: stripMetadata,
		Pretty:        pretty,
		Minified:      minify,
		ChunkSize:     chunkSize,
		DateLayout:    dateLayout,
		Indent:        indent,
	}
	switch rendering {
	case "hex":
		cfg.Rendering = anyform.RenderHex
	case "binary":
		cfg.Rendering = anyform.RenderBinary
	case "", "base64":
		cfg.Rendering = anyform.RenderBase64
	default:
		log.Fatal().Str("rendering", rendering).Msg("unknown rendering")
	}
	switch numberFormat {
	case "scientific":
		cfg.NumberFormat = anyform.NumberScientific
	case "hex":
		cfg.NumberFormat = anyform.NumberHexString
	case "":
	default:
		log.Fatal().Str("number-format", numberFormat).Msg("unknown number format")
	}
	switch dateFormat {
	case "unix":
		cfg.DateFormat = anyform.DateUnixSeconds
	case "custom":
		cfg.DateFormat = anyform.DateCustom
	case "", "iso8601":
		cfg.DateFormat = anyform.DateISO8601
	default:
		log.Fatal().Str("date-format", dateFormat).Msg("unknown date format")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in, err := openInput(inPath)
	if err != nil {
		log.Fatal().Err(err).Str("in", inPath).Msg("cannot open input")
	}
	defer in.Close()
	out, err := openOutput(outPath)
	if err != nil {
		log.Fatal().Err(err).Str("out", outPath).Msg("cannot open output")
	}
	defer out.Close()

	if stream {
		if anyform.Format(from) != anyform.FormatProtobuf {
			log.Fatal().Str("from", from).Msg("--stream requires --from protobuf")
		}
		if err := runStream(ctx, in, out, anyform.Format(to), cfg, log); err != nil {
			log.Fatal().Err(err).Msg("stream conversion failed")
		}
		return
	}

	data, err := io.ReadAll(in)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot read input")
	}
	v, err := anyform.Decode(anyform.Format(from), data, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("format", from).Msg("decode failed")
	}
	encoded, err := anyform.Encode(anyform.Format(to), v, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("format", to).Msg("encode failed")
	}
	if _, err := out.Write(append(encoded, '\n')); err != nil {
		log.Fatal().Err(err).Msg("cannot write output")
	}
	log.Debug().Str("from", from).Str("to", to).Int("bytes", len(encoded)).Msg("converted")
}

// runStream decodes a multi-message Protobuf stream and emits one encoded
// document per message.
func runStream(ctx context.Context, in io.Reader, out io.Writer, to anyform.Format, cfg *anyform.Config, log zerolog.Logger) error {
	dec := protobuf.NewStreamDecoder(ctx, in, cfg)
	n := 0
	for {
		v, err := dec.Next()
		if err == io.EOF {
			log.Debug().Int("messages", n).Msg("stream done")
			return nil
		}
		if err != nil {
			return err
		}
		encoded, err := anyform.Encode(to, v, cfg)
		if err != nil {
			return err
		}
		if _, err := out.Write(append(encoded, '\n')); err != nil {
			return err
		}
		n++
		if n%1000 == 0 {
			log.Info().Int("messages", n).Msg("progress")
		}
	}
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
