// Command dpqac compiles a staged circuit onto a trap grid and prints
// the resulting instruction schedule.
//
// Usage:
//
//	dpqac -config compiler.yaml -circuit circuit.yaml [-verbose]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/atomarray/dpqa/pkg/dpqa"
)

func main() {
	configPath := flag.String("config", "", "compiler configuration YAML")
	circuitPath := flag.String("circuit", "", "circuit YAML")
	verbose := flag.Bool("verbose", false, "log solver progress")
	flag.Parse()

	if *configPath == "" || *circuitPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(*configPath, *circuitPath, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "dpqac:", err)
		os.Exit(1)
	}
}

func run(configPath, circuitPath string, verbose bool) error {
	cfg, err := dpqa.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()
		cfg.Logger = logger
	}

	seq, err := dpqa.LoadSequence(circuitPath)
	if err != nil {
		return err
	}
	compiler, err := dpqa.NewCompiler(cfg)
	if err != nil {
		return err
	}

	res, err := compiler.Compile(context.Background(), seq)
	if err != nil {
		return err
	}
	switch res.Status {
	case dpqa.Solved:
		fmt.Printf("solved: %d stages, %d moves (attempted %v)\n",
			res.StageCount, res.Moves, res.AttemptedStages)
		for _, in := range res.Instructions {
			fmt.Println(" ", in)
		}
		return nil
	case dpqa.Infeasible:
		return fmt.Errorf("infeasible at every attempted stage count %v", res.AttemptedStages)
	default:
		return fmt.Errorf("time budget exhausted without a result (attempted %v)", res.AttemptedStages)
	}
}
