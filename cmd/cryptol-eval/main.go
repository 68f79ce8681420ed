// Command cryptol-eval is a command-line front end for the evaluation
// protocol: it connects to a server (launching one over stdio, or dialing
// tcp/ws), loads a module, and evaluates expressions or calls functions.
// It can also run the reference server itself with the serve subcommand.
package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pnwamk/cryptol/pkg/bitvector"
	"github.com/pnwamk/cryptol/pkg/client"
	"github.com/pnwamk/cryptol/pkg/config"
	"github.com/pnwamk/cryptol/pkg/interceptor"
	"github.com/pnwamk/cryptol/pkg/server"
	"github.com/pnwamk/cryptol/pkg/transport/tcp"
	"github.com/pnwamk/cryptol/pkg/transport/ws"
)

var (
	flagConfig    string
	flagTransport string
	flagLaunch    string
	flagAddress   string
	flagDir       string
	flagModule    string
	flagTimeout   time.Duration
	flagVerbose   bool
)

var rootCmd = &cobra.Command{
	Use:           "cryptol-eval",
	Short:         "Evaluate expressions against a remote evaluation server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var evalCmd = &cobra.Command{
	Use:   "eval EXPRESSION",
	Short: "Evaluate a textual expression against the loaded module",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConnection(cmd.Context(), func(ctx context.Context, conn *client.Connection) error {
			v, err := conn.EvaluateExpression(ctx, strings.Join(args, " ")).ResultContext(ctx)
			if err != nil {
				return err
			}
			fmt.Println(v)
			return nil
		})
	},
}

var callCmd = &cobra.Command{
	Use:   "call FUNCTION [ARG...]",
	Short: "Call a function with bit-vector or boolean arguments",
	Long: `Call a function positionally. Arguments are hex bit vectors
("0xf00d", four bits per digit), width-annotated values ("3:4" is the
4-bit vector 3), or the booleans true and false.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		callArgs := make([]any, 0, len(args)-1)
		for _, raw := range args[1:] {
			arg, err := parseArg(raw)
			if err != nil {
				return err
			}
			callArgs = append(callArgs, arg)
		}

		return withConnection(cmd.Context(), func(ctx context.Context, conn *client.Connection) error {
			v, err := conn.Call(ctx, args[0], callArgs...).ResultContext(ctx)
			if err != nil {
				return err
			}
			fmt.Println(v)
			return nil
		})
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reference evaluation server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		srv := server.NewServer(server.WithLogger(interceptor.NewZapLogger(logger)))

		kind := flagTransport
		if kind == "" {
			kind = cfg.Server.Transport
		}
		addr := flagAddress
		if addr == "" {
			addr = cfg.Server.Address
		}

		switch kind {
		case config.TransportTCP:
			return srv.Serve(cmd.Context(), tcp.NewServer(), addr)
		case config.TransportWS:
			return srv.Serve(cmd.Context(), ws.NewServer(), addr)
		case "", config.TransportStdio:
			// Speak netstrings on our own stdin/stdout, the shape a
			// client.Connect subprocess expects.
			return srv.ServeConn(cmd.Context(), stdioConn{})
		default:
			return fmt.Errorf("unknown transport %q", kind)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&flagTransport, "transport", "t", "", "transport: stdio, tcp, or ws")
	rootCmd.PersistentFlags().StringVar(&flagLaunch, "launch", "", "command launching the server (stdio transport)")
	rootCmd.PersistentFlags().StringVarP(&flagAddress, "address", "a", "", "server address or websocket URL")
	rootCmd.PersistentFlags().StringVarP(&flagDir, "dir", "d", "", "directory to change to before loading")
	rootCmd.PersistentFlags().StringVarP(&flagModule, "module", "m", "", "module file to load")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "per-call timeout (0 means none)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log every call")

	rootCmd.AddCommand(evalCmd, callCmd, serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "cryptol-eval:", err)
		os.Exit(1)
	}
}

// stdioConn joins the process's stdin and stdout into the single
// connection ServeConn expects.
type stdioConn struct{}

func (stdioConn) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioConn) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdioConn) Close() error                { return os.Stdin.Close() }

func loadConfig() (*config.Config, error) {
	if flagConfig == "" {
		return &config.Config{}, nil
	}
	return config.Load(flagConfig)
}

func newLogger() (*zap.Logger, error) {
	if flagVerbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// withConnection builds a connection from flags and config, runs the
// preamble (change directory, load module), and hands off to fn.
func withConnection(ctx context.Context, fn func(context.Context, *client.Connection) error) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cc := cfg.Client
	if flagTransport != "" {
		cc.Transport = flagTransport
	}
	if flagLaunch != "" {
		cc.Launch = flagLaunch
	}
	if flagAddress != "" {
		cc.Address = flagAddress
	}
	if flagDir != "" {
		cc.Directory = flagDir
	}
	if flagModule != "" {
		cc.Module = flagModule
	}
	timeout := cc.CallTimeout.Duration
	if flagTimeout > 0 {
		timeout = flagTimeout
	}

	opts := []client.Option{
		client.WithInterceptors(interceptor.Metrics()),
		client.WithCallTimeout(timeout),
	}
	if flagVerbose {
		opts = append(opts, client.WithInterceptors(
			interceptor.Logging(interceptor.NewZapLogger(logger))))
	}

	var conn *client.Connection
	switch cc.Transport {
	case config.TransportTCP:
		conn, err = client.Dial(ctx, cc.Address, opts...)
	case config.TransportWS:
		conn, err = client.DialWS(ctx, cc.Address, opts...)
	case "", config.TransportStdio:
		if cc.Launch == "" {
			return fmt.Errorf("no server to talk to: set --launch or --address")
		}
		conn, err = client.Connect(ctx, cc.Launch, opts...)
	default:
		return fmt.Errorf("unknown transport %q", cc.Transport)
	}
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	if cc.Directory != "" {
		if _, err := conn.ChangeDirectory(ctx, cc.Directory).ResultContext(ctx); err != nil {
			return fmt.Errorf("change directory: %w", err)
		}
	}
	if cc.Module != "" {
		if _, err := conn.LoadFile(ctx, cc.Module).ResultContext(ctx); err != nil {
			return fmt.Errorf("load %s: %w", cc.Module, err)
		}
	}

	return fn(ctx, conn)
}

// parseArg turns a command-line token into a call argument: "true"/"false",
// a hex literal ("0xff", width from digit count), or "value:width" with the
// value in any base strconv understands ("3:4", "0b101:5").
func parseArg(s string) (any, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	if before, after, ok := strings.Cut(s, ":"); ok {
		width, err := strconv.Atoi(after)
		if err != nil {
			return nil, fmt.Errorf("argument %q: bad width %q", s, after)
		}

		n, ok := new(big.Int).SetString(before, 0)
		if !ok {
			return nil, fmt.Errorf("argument %q: bad value %q", s, before)
		}
		return bitvector.NewBig(width, n)
	}

	if strings.HasPrefix(s, "0x") {
		return bitvector.FromHex(s)
	}

	return nil, fmt.Errorf("argument %q: expected true, false, a 0x literal, or value:width", s)
}
