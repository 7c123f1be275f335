// wirebus converts typed values to and from the binary codec and moves them
// over NATS.
//
//	wirebus encode --type 'list<int>' '[1,2,3]'
//	wirebus decode --type 'list<int>' 03010000000200000003000000
//	wirebus pub --to inventory --subject stock --type 'list<string>' '["apple"]'
//	wirebus pub --to inventory --subject count --type 'list<string>' --request --reply-type 'map<string,int>' '["apple"]'
//	wirebus sub --subject stock --type 'list<string>'
//
// Values are given and printed as JSON. The --type expression decides the
// wire shape, so a JSON number becomes an int, a long or a double depending
// on the type named there.
package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/RobertWHurst/wirebus"
	"github.com/RobertWHurst/wirebus/codec"
	"github.com/RobertWHurst/wirebus/encoders"
	"github.com/RobertWHurst/wirebus/encoders/codecencoder"
	"github.com/RobertWHurst/wirebus/internal/config"
	"github.com/RobertWHurst/wirebus/transports/natstransport"
	"github.com/RobertWHurst/wirebus/typetag"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(os.Stderr)
		return nil
	}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "encode":
		return runEncode(args, out)
	case "decode":
		return runDecode(args, out)
	case "pub":
		return runPub(ctx, args, out)
	case "sub":
		return runSub(ctx, args, out)
	}
	printUsage(os.Stderr)
	return fmt.Errorf("unknown command %q", cmd)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: wirebus <command> [flags] [value]

Commands:
  encode   print the hex payload of a JSON value
  decode   print a hex payload as JSON
  pub      send a JSON value to a service over NATS
  sub      print the messages a service receives on a subject

Run "wirebus <command> --help" for the flags of a command.
`)
}

type common struct {
	flagSet    *pflag.FlagSet
	typeExpr   string
	configPath string
	natsURL    string
	service    string
	encoder    string
	logLevel   string
}

func newCommon(name string, withBus bool) *common {
	c := &common{flagSet: pflag.NewFlagSet(name, pflag.ContinueOnError)}
	c.flagSet.StringVarP(&c.typeExpr, "type", "t", "", "type expression, e.g. map<string,list<int>>")
	if withBus {
		c.flagSet.StringVarP(&c.configPath, "config", "c", "", "path to a YAML config file (default $"+config.EnvVar+")")
		c.flagSet.StringVar(&c.natsURL, "nats-url", "", "NATS server URL")
		c.flagSet.StringVar(&c.service, "service", "", "service name to send or receive as")
		c.flagSet.StringVar(&c.encoder, "encoder", "", "payload encoder: "+strings.Join(encoders.Names(), ", "))
		c.flagSet.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	}
	return c
}

func (c *common) parse(args []string) error {
	if err := c.flagSet.Parse(args); err != nil {
		return err
	}
	if c.typeExpr == "" {
		return errors.New("--type is required")
	}
	return nil
}

func (c *common) tag() (*typetag.Tag, error) {
	return typetag.ParseExpr(c.typeExpr)
}

// config loads the config file and applies the flags that were set.
func (c *common) config() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.flagSet.Changed("nats-url") {
		cfg.NatsURL = c.natsURL
	}
	if c.flagSet.Changed("service") {
		cfg.ServiceName = c.service
	}
	if c.flagSet.Changed("encoder") {
		cfg.Encoder = c.encoder
	}
	if c.flagSet.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runEncode(args []string, out io.Writer) error {
	c := newCommon("encode", false)
	if err := c.parse(args); err != nil {
		return err
	}
	tag, err := c.tag()
	if err != nil {
		return err
	}
	value, err := argValue(c.flagSet.Args())
	if err != nil {
		return err
	}

	encoded, err := encodeJSON(tag, value)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, encoded)
	return nil
}

func runDecode(args []string, out io.Writer) error {
	c := newCommon("decode", false)
	if err := c.parse(args); err != nil {
		return err
	}
	tag, err := c.tag()
	if err != nil {
		return err
	}
	value, err := argValue(c.flagSet.Args())
	if err != nil {
		return err
	}

	decoded, err := decodeHex(tag, value)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, decoded)
	return nil
}

func argValue(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected exactly one value argument, got %d", len(args))
	}
	return args[0], nil
}

// fromJSON decodes text into a fresh value of the Go type tag describes.
func fromJSON(tag *typetag.Tag, text string) (any, error) {
	goType, err := tag.GoType()
	if err != nil {
		return nil, err
	}
	ptr := reflect.New(goType)
	if err := json.Unmarshal([]byte(text), ptr.Interface()); err != nil {
		return nil, fmt.Errorf("value is not a valid %s: %w", tag, err)
	}
	return ptr.Elem().Interface(), nil
}

func encodeJSON(tag *typetag.Tag, text string) (string, error) {
	v, err := fromJSON(tag, text)
	if err != nil {
		return "", err
	}
	payload, err := codec.SerializeTag(v, tag)
	if err != nil {
		return "", err
	}
	return payload.String(), nil
}

func decodeHex(tag *typetag.Tag, text string) (string, error) {
	data, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(text), "0x"))
	if err != nil {
		return "", fmt.Errorf("payload is not hex: %w", err)
	}
	v, err := codec.DeserializeTag(codec.NewPayload(data), tag)
	if err != nil {
		return "", err
	}
	return toJSON(v)
}

func toJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// connect builds the logger, transport and client the bus commands share.
func connect(cfg *config.Config, tag *typetag.Tag) (*wirebus.Client, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	zapConfig := zap.NewDevelopmentConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	wirebus.SetLogger(logger)
	wirebus.MaxDecodeSize = cfg.MaxDecodeSize

	var encoder wirebus.Encoder
	if cfg.Encoder == "codec" {
		encoder = codecencoder.NewWithTag(tag)
	} else if encoder, err = encoders.ByName(cfg.Encoder); err != nil {
		return nil, err
	}

	transport, err := natstransport.Connect(cfg.NatsURL)
	if err != nil {
		return nil, err
	}
	logger.Debug("connected", zap.String("url", cfg.NatsURL), zap.String("service", cfg.ServiceName))
	return wirebus.NewClient(cfg.ServiceName, transport, encoder), nil
}

func runPub(ctx context.Context, args []string, out io.Writer) error {
	c := newCommon("pub", true)
	var to, subject, replyTypeExpr string
	var request bool
	c.flagSet.StringVar(&to, "to", "", "service to send to")
	c.flagSet.StringVarP(&subject, "subject", "s", "", "subject to send on")
	c.flagSet.BoolVarP(&request, "request", "r", false, "wait for a reply and print it")
	c.flagSet.StringVar(&replyTypeExpr, "reply-type", "", "type expression of the reply (default --type)")
	if err := c.parse(args); err != nil {
		return err
	}
	if to == "" || subject == "" {
		return errors.New("--to and --subject are required")
	}
	if replyTypeExpr != "" && !request {
		return errors.New("--reply-type needs --request")
	}

	tag, err := c.tag()
	if err != nil {
		return err
	}
	replyTag := tag
	if replyTypeExpr != "" {
		if replyTag, err = typetag.ParseExpr(replyTypeExpr); err != nil {
			return fmt.Errorf("--reply-type: %w", err)
		}
	}
	text, err := argValue(c.flagSet.Args())
	if err != nil {
		return err
	}
	value, err := fromJSON(tag, text)
	if err != nil {
		return err
	}
	cfg, err := c.config()
	if err != nil {
		return err
	}

	client, err := connect(cfg, tag)
	if err != nil {
		return err
	}
	defer client.Close()

	service := client.Service(to)
	if !request {
		return service.Send(subject, value)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()
	reply := service.RequestWithCtx(ctx, subject, value)
	if err := reply.Err(); err != nil {
		return err
	}

	// The client's codec encoder is fixed to the request tag, so a codec
	// reply is decoded here with its own tag.
	var v any
	if cfg.Encoder == "codec" {
		v, err = readReply(reply, replyTag)
	} else {
		err = reply.Into(&v)
	}
	if err != nil {
		return err
	}
	text, err = toJSON(v)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, text)
	return nil
}

// readReply decodes a codec payload of at most MaxDecodeSize bytes as tag.
func readReply(r io.Reader, tag *typetag.Tag) (any, error) {
	data, err := io.ReadAll(io.LimitReader(r, wirebus.MaxDecodeSize))
	if err != nil {
		return nil, err
	}
	return codec.DeserializeTag(codec.NewPayload(data), tag)
}

func runSub(ctx context.Context, args []string, out io.Writer) error {
	c := newCommon("sub", true)
	var subject string
	var queue bool
	c.flagSet.StringVarP(&subject, "subject", "s", "", "subject to listen on")
	c.flagSet.BoolVarP(&queue, "queue", "q", false, "share messages with other queue subscribers")
	if err := c.parse(args); err != nil {
		return err
	}
	if subject == "" {
		return errors.New("--subject is required")
	}

	tag, err := c.tag()
	if err != nil {
		return err
	}
	cfg, err := c.config()
	if err != nil {
		return err
	}

	client, err := connect(cfg, tag)
	if err != nil {
		return err
	}
	defer client.Close()

	bind := client.Bind
	if queue {
		bind = client.BindQueue
	}
	binding := bind(subject)
	defer binding.Unbind()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	binding.To(func(msg *wirebus.Message) {
		var v any
		if err := msg.Into(&v); err != nil {
			wirebus.Logger().Warn("undecodable message",
				zap.String("subject", msg.Subject()),
				zap.String("source", msg.Source()),
				zap.Error(err))
			return
		}
		text, err := toJSON(v)
		if err != nil {
			wirebus.Logger().Warn("cannot print message", zap.Error(err))
			return
		}
		fmt.Fprintf(out, "%s %s\n", msg.Source(), text)
	})

	<-ctx.Done()
	return nil
}
