// (c) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ava-labs/starkexec/core"
	"github.com/ava-labs/starkexec/executor"
	"github.com/ava-labs/starkexec/felt"
	"github.com/ava-labs/starkexec/genesis"
	"github.com/ava-labs/starkexec/vm"
)

const (
	versionKey           = "version"
	configFileKey        = "config-file"
	logLevelKey          = "log-level"
	genesisFileKey       = "genesis-file"
	blockFileKey         = "block-file"
	outputFileKey        = "output-file"
	metricsFileKey       = "metrics-file"
	chainIDKey           = "chain-id"
	ethFeeTokenKey       = "eth-fee-token"
	strkFeeTokenKey      = "strk-fee-token"
	maxRecursionDepthKey = "max-recursion-depth"
	validateMaxStepsKey  = "validate-max-steps"
	invokeMaxStepsKey    = "invoke-max-steps"
	stepGasCostKey       = "step-gas-cost"
	pedersenGasCostKey   = "pedersen-gas-cost"
	skipValidateKey      = "skip-validate"
	skipFeeTransferKey   = "skip-fee-transfer"

	envPrefix = "starkexec"
)

// Config is everything the binary needs to replay a block.
type Config struct {
	LogLevel    string
	GenesisFile string
	BlockFile   string
	OutputFile  string
	MetricsFile string
	Cfg         core.CfgEnv
	Flags       executor.SimulationFlags
}

func buildFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("starkexec", flag.ContinueOnError)

	fs.Bool(versionKey, false, "If true, prints the version and quits")
	fs.String(configFileKey, "", "Path to a config file whose keys match the flags")
	fs.String(logLevelKey, "info", "Log level (crit, error, warn, info, debug)")
	fs.String(genesisFileKey, "", "Path to a JSON genesis. The dev genesis is used when empty")
	fs.String(blockFileKey, "", "Path to the JSON block to execute")
	fs.String(outputFileKey, "", "Path the execution output is written to. Stdout when empty")
	fs.String(metricsFileKey, "", "Path the metrics are written to after execution")
	fs.String(chainIDKey, "SN_GOERLI", "Chain id, as a short string")
	fs.String(ethFeeTokenKey, genesis.DefaultFeeTokenAddress.String(), "Address of the ETH fee token")
	fs.String(strkFeeTokenKey, genesis.DefaultFeeTokenAddress.String(), "Address of the STRK fee token")
	fs.Uint64(maxRecursionDepthKey, 50, "Maximum depth of nested calls")
	fs.Uint(validateMaxStepsKey, 1_000_000, "Maximum number of steps of account validation")
	fs.Uint(invokeMaxStepsKey, 3_000_000, "Maximum number of steps of a transaction or call")
	fs.Float64(stepGasCostKey, 0.01, "L1 gas charged per step")
	fs.Float64(pedersenGasCostKey, 0.32, "L1 gas charged per pedersen builtin instance")
	fs.Bool(skipValidateKey, false, "If true, account validation is skipped")
	fs.Bool(skipFeeTransferKey, false, "If true, fees are neither checked nor transferred")

	return fs
}

// getViper returns the viper environment for the binary, parsing [args]
// as command line flags
func getViper(args []string) (*viper.Viper, error) {
	v := viper.New()

	fs := pflag.NewFlagSet("starkexec", pflag.ContinueOnError)
	fs.AddGoFlagSet(buildFlagSet())
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile := v.GetString(configFileKey); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("couldn't read config file %q: %w", configFile, err)
		}
	}
	return v, nil
}

func parseConfig(v *viper.Viper) (Config, error) {
	chainID, err := felt.FromShortString(v.GetString(chainIDKey))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", chainIDKey, err)
	}
	ethFeeToken, err := felt.FromHex(v.GetString(ethFeeTokenKey))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", ethFeeTokenKey, err)
	}
	strkFeeToken, err := felt.FromHex(v.GetString(strkFeeTokenKey))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", strkFeeTokenKey, err)
	}

	return Config{
		LogLevel:    v.GetString(logLevelKey),
		GenesisFile: v.GetString(genesisFileKey),
		BlockFile:   v.GetString(blockFileKey),
		OutputFile:  v.GetString(outputFileKey),
		MetricsFile: v.GetString(metricsFileKey),
		Cfg: core.CfgEnv{
			ChainID:           chainID,
			FeeTokenAddresses: core.FeeTokenAddresses{ETH: ethFeeToken, STRK: strkFeeToken},
			MaxRecursionDepth: v.GetUint64(maxRecursionDepthKey),
			ValidateMaxNSteps: v.GetUint32(validateMaxStepsKey),
			InvokeTxMaxNSteps: v.GetUint32(invokeMaxStepsKey),
			VMResourceFeeCost: map[string]float64{
				vm.NStepsResource:  v.GetFloat64(stepGasCostKey),
				vm.PedersenBuiltin: v.GetFloat64(pedersenGasCostKey),
			},
		},
		Flags: executor.SimulationFlags{
			SkipValidate:    v.GetBool(skipValidateKey),
			SkipFeeTransfer: v.GetBool(skipFeeTransferKey),
		},
	}, nil
}
