package service

import (
	"encoding/binary"

	"github.com/google/uuid"

	"github.com/okian/smear/internal/config"
)

// EntropySeed derives a non-negative seed from a random UUID.
func EntropySeed() int64 {
	id := uuid.New()
	return int64(binary.BigEndian.Uint64(id[:8]) &^ (1 << 63))
}

// seedFor returns the configured seed, or draws one from entropy.
func seedFor(cfg *config.Config, entropy func() int64) int64 {
	if cfg.SeedPolicy == config.SeedFixed {
		return cfg.Seed
	}
	return entropy()
}
