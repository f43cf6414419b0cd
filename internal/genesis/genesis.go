// Package genesis bootstraps a fresh deployment from a YAML file: it
// instantiates the platform and seeds the operator registry. Applied only
// when the platform record does not exist yet, so reboots are no-ops.
package genesis

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"

	"airdrop-engine/internal/engine"
)

type File struct {
	Platform struct {
		Admin        string `yaml:"admin"`
		MaxBatchSize uint64 `yaml:"max_batch_size"`
		FeePerBatch  string `yaml:"fee_per_batch"`
	} `yaml:"platform"`
	Operators []string `yaml:"operators"`
}

func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode genesis file %s: %w", path, err)
	}
	return &f, nil
}

// Apply instantiates the platform from f and registers its operators.
// Returns false without touching state when the platform already exists.
func Apply(ctx context.Context, eng *engine.Engine, f *File) (bool, error) {
	fee := uint256.NewInt(0)
	if f.Platform.FeePerBatch != "" {
		v, err := uint256.FromDecimal(f.Platform.FeePerBatch)
		if err != nil {
			return false, fmt.Errorf("decode fee_per_batch: %w", err)
		}
		fee = v
	}
	admin := engine.Info{Sender: f.Platform.Admin}
	_, err := eng.Instantiate(ctx, admin, engine.InstantiateMsg{
		MaxBatchSize: f.Platform.MaxBatchSize,
		FeePerBatch:  fee,
	})
	if errors.Is(err, engine.ErrAlreadyInstantiated) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(f.Operators) > 0 {
		flags := make([]bool, len(f.Operators))
		for i := range flags {
			flags[i] = true
		}
		if _, err := eng.SetOperators(ctx, admin, engine.SetOperatorsMsg{
			Accounts: f.Operators,
			Flags:    flags,
		}); err != nil {
			return false, fmt.Errorf("seed operators: %w", err)
		}
	}
	return true, nil
}
