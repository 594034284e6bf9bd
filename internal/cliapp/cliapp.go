// Package cliapp builds ubilog's command-line surface with
// github.com/urfave/cli/v2, the CLI framework 420Integrated-go-420coin,
// CustosLigni-Olivetum-PoW, IGSON2-berith_log, NethermindEth-rollup-geth,
// and SpaceDogeChain-sdk-core-sdc all standardize on in this corpus. The
// teacher's cmd/chrd/main.go hand-rolls subcommand dispatch over the
// stdlib flag package; spec.md's single `run` surface plus the wider
// corpus's preference for urfave/cli make that replacement worth making
// even though it means leaving the teacher's flag-parsing code behind
// (see DESIGN.md).
package cliapp

import (
	"fmt"
	"net"
	"strconv"

	"github.com/holiman/uint256"
	"github.com/urfave/cli/v2"
	"github.com/ubilog/ubilog/pkg/ubilog"
	"github.com/ubilog/ubilog/pkg/wire"
)

// Config is the fully-resolved configuration spec.md §6 describes:
// port, display, mine, secret_key, peers, plus the ambient flags
// (base-dir, log-level, metrics-addr) the distilled spec leaves
// implicit but a real node needs.
type Config struct {
	Port        int
	Display     bool
	Mine        bool
	SecretKey   *uint256.Int
	Peers       []wire.Address
	BaseDir     string
	LogLevel    string
	MetricsAddr string
}

// Flags, matching spec.md §6's configuration table plus the ambient
// additions.
var (
	portFlag = &cli.IntFlag{
		Name:  "port",
		Value: ubilog.DefaultPort,
		Usage: "UDP port to listen on",
	}
	displayFlag = &cli.BoolFlag{
		Name:  "display",
		Value: false,
		Usage: "print a periodic terminal status line",
	}
	mineFlag = &cli.BoolFlag{
		Name:  "mine",
		Value: false,
		Usage: "run the mining loop",
	}
	secretKeyFlag = &cli.StringFlag{
		Name:  "secret-key",
		Value: "0",
		Usage: "256-bit secret key mixed into mined nonces, as 0x-prefixed hex or decimal",
	}
	peerFlag = &cli.StringSliceFlag{
		Name:  "peer",
		Usage: "peer address (host or host:port), repeatable",
	}
	baseDirFlag = &cli.StringFlag{
		Name:  "base-dir",
		Value: "./ubilog-data",
		Usage: "directory holding the blocks/ and mined/ persistence trees",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Value: "info",
		Usage: "zerolog level: debug, info, warn, error",
	}
	metricsAddrFlag = &cli.StringFlag{
		Name:  "metrics-addr",
		Value: "",
		Usage: "if set, serve Prometheus metrics on this address (e.g. :9731)",
	}
)

// New builds the *cli.App that runs action with the parsed Config.
func New(action func(*cli.Context, *Config) error) *cli.App {
	return &cli.App{
		Name:  "ubilog",
		Usage: "a peer-to-peer proof-of-work blockchain node",
		Flags: []cli.Flag{
			portFlag, displayFlag, mineFlag, secretKeyFlag, peerFlag,
			baseDirFlag, logLevelFlag, metricsAddrFlag,
		},
		Action: func(c *cli.Context) error {
			cfg, err := fromContext(c)
			if err != nil {
				return err
			}
			return action(c, cfg)
		},
	}
}

func fromContext(c *cli.Context) (*Config, error) {
	secretKey, err := parseSecretKey(c.String("secret-key"))
	if err != nil {
		return nil, fmt.Errorf("cliapp: --secret-key: %w", err)
	}

	peers, err := parsePeers(c.StringSlice("peer"), ubilog.DefaultPort)
	if err != nil {
		return nil, fmt.Errorf("cliapp: --peer: %w", err)
	}

	return &Config{
		Port:        c.Int("port"),
		Display:     c.Bool("display"),
		Mine:        c.Bool("mine"),
		SecretKey:   secretKey,
		Peers:       peers,
		BaseDir:     c.String("base-dir"),
		LogLevel:    c.String("log-level"),
		MetricsAddr: c.String("metrics-addr"),
	}, nil
}

func parseSecretKey(s string) (*uint256.Int, error) {
	if s == "" || s == "0" {
		return new(uint256.Int), nil
	}
	v, err := uint256.FromHex(s)
	if err != nil {
		return uint256.FromDecimal(s)
	}
	return v, nil
}

// parsePeers resolves each --peer flag value into an address, defaulting
// its port to defaultPort when omitted, per spec.md §6: "Each peer is
// (address, optional port defaulting to DEFAULT_PORT)".
func parsePeers(raw []string, defaultPort int) ([]wire.Address, error) {
	addrs := make([]wire.Address, 0, len(raw))
	for _, r := range raw {
		addr, err := parsePeerAddress(r, defaultPort)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

func parsePeerAddress(raw string, defaultPort int) (wire.Address, error) {
	host, portStr, err := net.SplitHostPort(raw)
	if err != nil {
		host, portStr = raw, ""
	}

	port := defaultPort
	if portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return wire.Address{}, fmt.Errorf("invalid port in %q: %w", raw, err)
		}
		port = p
	}

	ipAddr, err := net.ResolveIPAddr("ip", host)
	if err != nil {
		return wire.Address{}, fmt.Errorf("resolving %q: %w", host, err)
	}
	return wire.Address{IP: ipAddr.IP, Port: uint16(port)}, nil
}
