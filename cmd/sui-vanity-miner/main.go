// Command sui-vanity-miner mines the gas_budget nonce of a Sui
// transaction template so the object it creates (a published package, a
// split coin, or a Move call's output) has an object ID beginning with a
// chosen hex prefix. See spec.md §6 for the full CLI surface.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/suivanity/miner/internal/config"
	"github.com/suivanity/miner/internal/driver"
	"github.com/suivanity/miner/internal/logger"
	"github.com/suivanity/miner/internal/sui"
	"github.com/suivanity/miner/pkg/types"
)

// common holds the flags shared by every subcommand — spec.md §6.
type commonFlags struct {
	threads    int
	gasBudget  uint64
	gasPrice   uint64
	rpcURL     string
	startNonce uint64
	verbose    bool
	logFile    string
	configFile string
}

var common commonFlags

// serverFlag and serverPort back the mutually-exclusive --server mode.
var (
	serverFlag bool
	serverPort int
)

// exitCode is set by whichever RunE actually ran mining, then applied by
// main after cobra returns — cobra's own Execute() error path only ever
// yields exit 1, which can't express spec.md §6's 0/1/2/130 taxonomy.
var exitCode int

// configStore is non-nil once --config names a file that loaded
// successfully; runServer hands it to the driver so the server's
// fsnotify watcher keeps hot-reloading defaults for new jobs.
var configStore *config.Store

func main() {
	rootCmd := &cobra.Command{
		Use:   "sui-vanity-miner",
		Short: "Vanity object-ID miner for Sui transactions",
		Long: `sui-vanity-miner searches gas_budget values so that a published
package, a split coin, or a Move call's result object has an on-chain ID
beginning with a chosen hex prefix.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return applyConfigDefaults(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if serverFlag {
				return runServer()
			}
			// no subcommand: backward-compat default to package mode.
			return runPackageCmd(cmd, args)
		},
	}
	registerCommonFlags(rootCmd)
	rootCmd.PersistentFlags().BoolVar(&serverFlag, "server", false, "run as a long-lived server instead of a one-shot CLI job")
	rootCmd.PersistentFlags().IntVar(&serverPort, "port", config.DefaultServerPort, "TCP port for --server mode (binds to 127.0.0.1 only)")

	packageCmd := newPackageCmd()
	// the root command accepts package mode's flags too, so it can run
	// package mode when no subcommand is given.
	rootCmd.Flags().AddFlagSet(packageCmd.Flags())
	rootCmd.AddCommand(packageCmd, newGasCmd(), newMoveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if exitCode == 0 {
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func registerCommonFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().IntVar(&common.threads, "threads", 0, "worker goroutines (default: number of CPUs)")
	cmd.PersistentFlags().Uint64Var(&common.gasBudget, "gas-budget", config.DefaultGasBudget, "gas budget written into the template; mining overwrites this field with each nonce")
	cmd.PersistentFlags().Uint64Var(&common.gasPrice, "gas-price", config.DefaultGasPrice, "gas price")
	cmd.PersistentFlags().StringVar(&common.rpcURL, "rpc-url", "", "RPC endpoint used only to autofetch gas object version/digest")
	cmd.PersistentFlags().Uint64Var(&common.startNonce, "start-nonce", 0, "resume mining from this nonce")
	cmd.PersistentFlags().BoolVarP(&common.verbose, "verbose", "v", false, "enable debug-level logging")
	cmd.PersistentFlags().StringVar(&common.logFile, "log-file", "", "write logs to this file instead of stdout")
	cmd.PersistentFlags().StringVar(&common.configFile, "config", "", "optional config file for defaults")
}

// applyConfigDefaults loads --config's file (if given) into configStore
// and seeds any common flag the user did not explicitly set from its
// Defaults snapshot; per SPEC_FULL.md §2.3, flags the user did pass on
// the command line always win over the file.
func applyConfigDefaults(cmd *cobra.Command) error {
	if common.configFile == "" {
		return nil
	}

	store, err := config.NewStore(common.configFile)
	if err != nil {
		return err
	}
	configStore = store

	d := store.Snapshot()
	flags := cmd.Flags()
	if !flags.Changed("gas-budget") && d.GasBudget != 0 {
		common.gasBudget = d.GasBudget
	}
	if !flags.Changed("gas-price") && d.GasPrice != 0 {
		common.gasPrice = d.GasPrice
	}
	if !flags.Changed("threads") && d.Threads != 0 {
		common.threads = d.Threads
	}
	if !flags.Changed("rpc-url") && d.RPCURL != "" {
		common.rpcURL = d.RPCURL
	}
	return nil
}

func newLogger() *logger.Logger {
	if common.logFile != "" {
		f, err := os.OpenFile(common.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
			os.Exit(2)
		}
		if common.verbose {
			return logger.NewVerboseWriter(f)
		}
		return logger.NewWriter(f)
	}
	if common.verbose {
		return logger.NewVerbose()
	}
	return logger.New()
}

// --- package subcommand ---

var publishFlags struct {
	prefix           string
	modulePath       string
	sender           string
	gasObjectID      string
	gasObjectVersion uint64
	gasObjectDigest  string
}

func newPackageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "package",
		Short: "mine a vanity object ID for a published package",
		RunE:  runPackageCmd,
	}
	cmd.Flags().StringVar(&publishFlags.prefix, "prefix", "", "hex prefix to match (required)")
	cmd.Flags().StringVar(&publishFlags.modulePath, "module", "", "path to a compiled Move module (.mv) or a directory of them (required)")
	cmd.Flags().StringVar(&publishFlags.sender, "sender", "", "publishing address (required)")
	cmd.Flags().StringVar(&publishFlags.gasObjectID, "gas-object", "", "gas coin object id (required)")
	cmd.Flags().Uint64Var(&publishFlags.gasObjectVersion, "gas-object-version", 0, "gas coin object version")
	cmd.Flags().StringVar(&publishFlags.gasObjectDigest, "gas-object-digest", "", "gas coin object digest (base58)")
	return cmd
}

func runPackageCmd(cmd *cobra.Command, args []string) error {
	if publishFlags.prefix == "" || publishFlags.modulePath == "" || publishFlags.sender == "" || publishFlags.gasObjectID == "" {
		exitCode = 1
		return fmt.Errorf("package mode requires --prefix, --module, --sender, --gas-object")
	}

	sender, err := sui.ParseAddress(publishFlags.sender)
	if err != nil {
		exitCode = 1
		return err
	}
	gasObject, err := parseGasObject(publishFlags.gasObjectID, publishFlags.gasObjectVersion, publishFlags.gasObjectDigest)
	if err != nil {
		exitCode = 1
		return err
	}
	modules, err := config.LoadModules(publishFlags.modulePath)
	if err != nil {
		exitCode = 1
		return err
	}

	job := types.MiningJob{
		Mode:       types.ModePackagePublish,
		Prefix:     publishFlags.prefix,
		Workers:    common.threads,
		StartNonce: common.startNonce,
		GasPrice:   common.gasPrice,
		GasBudget:  common.gasBudget,
		Publish: &types.PublishInput{
			Sender:    sender,
			Modules:   modules,
			GasObject: gasObject,
		},
	}

	exitCode = driver.RunCLI(job, newLogger())
	return nil
}

// --- gas subcommand ---

var gasFlags struct {
	prefix           string
	splitAmounts     string
	sender           string
	gasObjectID      string
	gasObjectVersion uint64
	gasObjectDigest  string
}

func newGasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gas",
		Short: "mine a vanity object ID for a split coin",
		RunE:  runGasCmd,
	}
	cmd.Flags().StringVar(&gasFlags.prefix, "prefix", "", "hex prefix to match (required)")
	cmd.Flags().StringVar(&gasFlags.splitAmounts, "split-amounts", "", "comma-separated u64 split amounts (required)")
	cmd.Flags().StringVar(&gasFlags.sender, "sender", "", "owning address (required)")
	cmd.Flags().StringVar(&gasFlags.gasObjectID, "gas-object", "", "gas coin object id (required)")
	cmd.Flags().Uint64Var(&gasFlags.gasObjectVersion, "gas-object-version", 0, "gas coin object version")
	cmd.Flags().StringVar(&gasFlags.gasObjectDigest, "gas-object-digest", "", "gas coin object digest (base58)")
	return cmd
}

func runGasCmd(cmd *cobra.Command, args []string) error {
	if gasFlags.prefix == "" || gasFlags.splitAmounts == "" || gasFlags.sender == "" || gasFlags.gasObjectID == "" {
		exitCode = 1
		return fmt.Errorf("gas mode requires --prefix, --split-amounts, --sender, --gas-object")
	}

	amounts, err := parseCSVUint64(gasFlags.splitAmounts)
	if err != nil {
		exitCode = 1
		return err
	}
	sender, err := sui.ParseAddress(gasFlags.sender)
	if err != nil {
		exitCode = 1
		return err
	}
	gasObject, err := parseGasObject(gasFlags.gasObjectID, gasFlags.gasObjectVersion, gasFlags.gasObjectDigest)
	if err != nil {
		exitCode = 1
		return err
	}

	job := types.MiningJob{
		Mode:       types.ModeSplitCoin,
		Prefix:     gasFlags.prefix,
		Workers:    common.threads,
		StartNonce: common.startNonce,
		GasPrice:   common.gasPrice,
		GasBudget:  common.gasBudget,
		SplitCoin: &types.SplitCoinInput{
			Sender:       sender,
			GasObject:    gasObject,
			SplitAmounts: amounts,
		},
	}

	exitCode = driver.RunCLI(job, newLogger())
	return nil
}

// --- move subcommand ---

var moveFlags struct {
	prefix           string
	sender           string
	gasObjectID      string
	gasObjectVersion uint64
	gasObjectDigest  string
	objectIndex      uint64
	txBase64         string
	pkg              string
	module           string
	function         string
	typeArgs         string
	args             []string
}

func newMoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move",
		Short: "mine a vanity object ID for a Move call's result",
		RunE:  runMoveCmd,
	}
	cmd.Flags().StringVar(&moveFlags.prefix, "prefix", "", "hex prefix to match (required)")
	cmd.Flags().StringVar(&moveFlags.sender, "sender", "", "calling address (required)")
	cmd.Flags().StringVar(&moveFlags.gasObjectID, "gas-object", "", "gas coin object id (required)")
	cmd.Flags().Uint64Var(&moveFlags.gasObjectVersion, "gas-object-version", 0, "gas coin object version")
	cmd.Flags().StringVar(&moveFlags.gasObjectDigest, "gas-object-digest", "", "gas coin object digest (base58)")
	cmd.Flags().Uint64Var(&moveFlags.objectIndex, "object-index", 0, "index of the created object to match against (required)")
	cmd.Flags().StringVar(&moveFlags.txBase64, "tx-base64", "", "a full pre-built transaction, base64-encoded (alternative to the call-builder flags below)")
	cmd.Flags().StringVar(&moveFlags.pkg, "package", "", "Move package address")
	cmd.Flags().StringVar(&moveFlags.module, "module", "", "Move module name")
	cmd.Flags().StringVar(&moveFlags.function, "function", "", "Move function name")
	cmd.Flags().StringVar(&moveFlags.typeArgs, "type-args", "", "comma-separated type arguments")
	cmd.Flags().StringArrayVar(&moveFlags.args, "arg", nil, "a call argument as kind:value (kind one of string,address,bool,number,object); repeatable")
	return cmd
}

func runMoveCmd(cmd *cobra.Command, args []string) error {
	if moveFlags.prefix == "" {
		exitCode = 1
		return fmt.Errorf("move mode requires --prefix")
	}
	if moveFlags.txBase64 == "" && (moveFlags.pkg == "" || moveFlags.module == "" || moveFlags.function == "") {
		exitCode = 1
		return fmt.Errorf("move mode requires --tx-base64, or --package/--module/--function plus --object-index")
	}

	in := &types.GenericCallInput{TargetIndex: moveFlags.objectIndex}

	if moveFlags.txBase64 != "" {
		in.RawTxBase64 = moveFlags.txBase64
	} else {
		sender, err := sui.ParseAddress(moveFlags.sender)
		if err != nil {
			exitCode = 1
			return err
		}
		gasObject, err := parseGasObject(moveFlags.gasObjectID, moveFlags.gasObjectVersion, moveFlags.gasObjectDigest)
		if err != nil {
			exitCode = 1
			return err
		}
		pkg, err := sui.ParseAddress(moveFlags.pkg)
		if err != nil {
			exitCode = 1
			return err
		}
		callArgs, err := parseCallArgs(moveFlags.args)
		if err != nil {
			exitCode = 1
			return err
		}

		in.Sender = sender
		in.GasObject = gasObject
		in.Target = types.CallTarget{Package: pkg, Module: moveFlags.module, Function: moveFlags.function}
		if moveFlags.typeArgs != "" {
			in.TypeArgs = strings.Split(moveFlags.typeArgs, ",")
		}
		in.Args = callArgs
	}

	job := types.MiningJob{
		Mode:        types.ModeGenericCall,
		Prefix:      moveFlags.prefix,
		Workers:     common.threads,
		StartNonce:  common.startNonce,
		GasPrice:    common.gasPrice,
		GasBudget:   common.gasBudget,
		GenericCall: in,
	}

	exitCode = driver.RunCLI(job, newLogger())
	return nil
}

// --- server mode ---

func runServer() error {
	log := newLogger()
	addr := fmt.Sprintf("127.0.0.1:%d", serverPort)
	srv := driver.NewServer(addr, log)
	if configStore != nil {
		srv.UseConfigStore(configStore)
	}
	if err := srv.ListenAndServe(); err != nil {
		exitCode = 2
		return err
	}
	exitCode = 0
	return nil
}

// --- shared flag parsing helpers ---

func parseGasObject(id string, version uint64, digest string) (sui.GasObjectRef, error) {
	objID, err := sui.ParseObjectID(id)
	if err != nil {
		return sui.GasObjectRef{}, err
	}
	var objDigest sui.ObjectDigest
	if digest != "" {
		objDigest, err = sui.ParseObjectDigestBase58(digest)
		if err != nil {
			return sui.GasObjectRef{}, err
		}
	}
	return sui.GasObjectRef{ID: objID, Version: version, Digest: objDigest}, nil
}

func parseCSVUint64(csv string) ([]uint64, error) {
	parts := strings.Split(csv, ",")
	out := make([]uint64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%v: malformed split amount %q", err, p)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseCallArgs(raw []string) ([]types.CallArg, error) {
	out := make([]types.CallArg, 0, len(raw))
	for _, r := range raw {
		parts := strings.SplitN(r, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed --arg %q, want kind:value", r)
		}
		kind, value := parts[0], parts[1]
		switch kind {
		case "string":
			out = append(out, types.CallArg{Kind: types.CallArgString, Str: value})
		case "address":
			addr, err := sui.ParseAddress(value)
			if err != nil {
				return nil, err
			}
			out = append(out, types.CallArg{Kind: types.CallArgAddress, Addr: addr})
		case "bool":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("%v: malformed bool arg %q", err, value)
			}
			out = append(out, types.CallArg{Kind: types.CallArgBool, Bool: b})
		case "number":
			n, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%v: malformed number arg %q", err, value)
			}
			out = append(out, types.CallArg{Kind: types.CallArgNumber, Number: n})
		case "object":
			objID, err := sui.ParseObjectID(value)
			if err != nil {
				return nil, err
			}
			out = append(out, types.CallArg{Kind: types.CallArgObject, Object: sui.GasObjectRef{ID: objID}})
		default:
			return nil, fmt.Errorf("unknown --arg kind %q", kind)
		}
	}
	return out, nil
}
