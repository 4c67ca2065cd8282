// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/avalanchego/database/memdb"

	"github.com/ava-labs/starkexec/executor/native"
	"github.com/ava-labs/starkexec/genesis"
	"github.com/ava-labs/starkexec/metrics"
	"github.com/ava-labs/starkexec/provider"
)

const (
	Name    = "starkexec"
	Version = "v0.1.0"
)

func main() {
	v, err := getViper(os.Args[1:])
	if err != nil {
		fmt.Printf("couldn't get config: %s\n", err)
		os.Exit(1)
	}
	if v.GetBool(versionKey) {
		fmt.Printf("%s@%s\n", Name, Version)
		os.Exit(0)
	}

	config, err := parseConfig(v)
	if err != nil {
		fmt.Printf("couldn't parse config: %s\n", err)
		os.Exit(1)
	}
	level, err := log.LvlFromString(config.LogLevel)
	if err != nil {
		fmt.Printf("couldn't parse log level: %s\n", err)
		os.Exit(1)
	}
	log.Root().SetHandler(log.LvlFilterHandler(level, log.StreamHandler(os.Stderr, log.TerminalFormat())))

	if err := run(config); err != nil {
		log.Error("replay failed", "err", err)
		os.Exit(1)
	}
}

// run executes the block of [config] over the genesis state and writes the
// execution output.
func run(config Config) error {
	if config.BlockFile == "" {
		return fmt.Errorf("missing %s", blockFileKey)
	}

	g := genesis.Default()
	if config.GenesisFile != "" {
		bytes, err := os.ReadFile(config.GenesisFile)
		if err != nil {
			return err
		}
		if g, err = genesis.Parse(bytes); err != nil {
			return err
		}
	}

	bytes, err := os.ReadFile(config.BlockFile)
	if err != nil {
		return err
	}
	block, err := parseBlock(bytes)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	store, err := provider.NewStore(memdb.New(), registry)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := genesis.Initialize(store, g); err != nil {
		return err
	}

	collector, err := metrics.NewCollector(registry)
	if err != nil {
		return err
	}
	factory, err := native.NewExecutorFactory(config.Cfg, config.Flags, collector)
	if err != nil {
		return err
	}

	blockExecutor := factory.WithState(store)
	if err := blockExecutor.ExecuteBlock(block); err != nil {
		return err
	}
	output, err := blockExecutor.TakeExecutionOutput()
	if err != nil {
		return err
	}
	if err := store.ApplyStateUpdates(output.States); err != nil {
		return fmt.Errorf("failed to apply state updates: %w", err)
	}

	if config.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(config.MetricsFile, registry); err != nil {
			return err
		}
	}
	return writeOutput(config.OutputFile, newOutputFile(output))
}

func writeOutput(path string, file outputFile) error {
	bytes, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	if path == "" {
		_, err = fmt.Println(string(bytes))
		return err
	}
	return os.WriteFile(path, bytes, 0o644)
}
