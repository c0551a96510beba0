package service

import (
	"math"
	"strconv"

	"github.com/okian/smear/internal/domain/detector"
	"github.com/okian/smear/internal/domain/smearing"
)

// OutputLabel names a run the way downstream analyses file its output:
// "<level>_percent" for constant-fraction smearing, e.g. "10_percent", and
// the lowercase detector name for parametric smearing, e.g. "orca6".
func OutputLabel(cfg smearing.Config) string {
	if cfg.Strategy == detector.ConstantFraction {
		pct := math.Round(cfg.SmearLevel*100*1e6) / 1e6
		return strconv.FormatFloat(pct, 'f', -1, 64) + "_percent"
	}
	return cfg.Profile.Label()
}
