package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baccuslab/bldsctl/internal/client"
	"github.com/baccuslab/bldsctl/internal/observability"
	"github.com/baccuslab/bldsctl/internal/protocol/params"
)

const usage = `usage: bldsctl [flags] <command> [args]

commands:
  get <param>                  read a server/recording parameter
  get-source <param>           read a data source parameter
  set <param> <value>          write a server/recording parameter
  set-source <param> <value>   write a data source parameter
  create-source <type> [loc]   create a source (mcs | hidens | file)
  delete-source                delete the managed source
  start-recording              start recording at the current save location
  stop-recording               stop a running recording
  stream [nframes]             request all data and print frames as they arrive
  params                       list the known parameter names

flags:
  -host string      BLDS hostname (default localhost)
  -port int         BLDS port (default 12345)
  -config string    TOML config file
  -timeout duration connect timeout (default 5s)
`

func main() {
	host := flag.String("host", "", "BLDS hostname")
	port := flag.Int("port", 0, "BLDS port")
	configPath := flag.String("config", "", "TOML config file")
	timeout := flag.Duration("timeout", 0, "connect timeout")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	logger := observability.InitLogger("bldsctl")

	cfg := client.DefaultConfig()
	if *configPath != "" {
		loaded, err := loadClientConfig(*configPath, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bldsctl: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *timeout != 0 {
		cfg.ConnectTimeout = *timeout
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if args[0] == "params" {
		listParams()
		return
	}

	c := client.New(cfg, logger)
	if err := c.Connect(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "bldsctl: connect %s: %v\n", cfg.Addr(), err)
		os.Exit(1)
	}
	defer c.Disconnect()

	if err := run(c, args); err != nil {
		fmt.Fprintf(os.Stderr, "bldsctl: %v\n", err)
		os.Exit(1)
	}
}

func run(c *client.Client, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "get":
		if len(rest) != 1 {
			return fmt.Errorf("get wants one parameter name")
		}
		value, err := c.Get(rest[0])
		if err != nil {
			return err
		}
		fmt.Println(value.Format())
		return nil
	case "get-source":
		if len(rest) != 1 {
			return fmt.Errorf("get-source wants one parameter name")
		}
		value, err := c.GetSource(rest[0])
		if err != nil {
			return err
		}
		fmt.Println(value.Format())
		return nil
	case "set":
		if len(rest) != 2 {
			return fmt.Errorf("set wants a parameter name and a value")
		}
		value, err := parseValue(params.Server, rest[0], rest[1])
		if err != nil {
			return err
		}
		return c.Set(rest[0], value)
	case "set-source":
		if len(rest) != 2 {
			return fmt.Errorf("set-source wants a parameter name and a value")
		}
		value, err := parseValue(params.Source, rest[0], rest[1])
		if err != nil {
			return err
		}
		return c.SetSource(rest[0], value)
	case "create-source":
		if len(rest) < 1 || len(rest) > 2 {
			return fmt.Errorf("create-source wants a type and an optional location")
		}
		location := ""
		if len(rest) == 2 {
			location = rest[1]
		}
		return c.CreateSource(rest[0], location)
	case "delete-source":
		return c.DeleteSource()
	case "start-recording":
		return c.StartRecording()
	case "stop-recording":
		return c.StopRecording()
	case "stream":
		limit := 0
		if len(rest) == 1 {
			if _, err := fmt.Sscanf(rest[0], "%d", &limit); err != nil || limit < 0 {
				return fmt.Errorf("stream wants a non-negative frame count, got %q", rest[0])
			}
		}
		return stream(c, limit)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// stream switches the server into push mode and prints frames until the
// count is reached or the user interrupts. Interrupt closes the socket,
// which is the only way to abort the blocking receive.
func stream(c *client.Client, limit int) error {
	if err := c.RequestAllData(true); err != nil {
		return err
	}

	interrupted := make(chan struct{})
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupts)
	go func() {
		<-interrupts
		close(interrupted)
		_ = c.Disconnect()
	}()

	began := time.Now()
	for n := 0; limit == 0 || n < limit; n++ {
		chunk, err := c.GetData(0, 0)
		if err != nil {
			select {
			case <-interrupted:
				fmt.Printf("interrupted after %d frames\n", n)
				return nil
			default:
				return err
			}
		}
		fmt.Printf("frame %d: [%.3f, %.3f) %d channels x %d samples\n",
			n, chunk.Start, chunk.Stop, chunk.NumChannels(), chunk.NumSamples())
	}
	fmt.Printf("done in %s\n", time.Since(began).Round(time.Millisecond))
	return nil
}

func listParams() {
	fmt.Println("server parameters:")
	for _, name := range params.Names(params.Server) {
		kind, _ := params.KindOf(params.Server, name)
		fmt.Printf("  %-20s %s\n", name, kind)
	}
	fmt.Println("source parameters:")
	for _, name := range params.Names(params.Source) {
		kind, _ := params.KindOf(params.Source, name)
		fmt.Printf("  %-20s %s\n", name, kind)
	}
}
