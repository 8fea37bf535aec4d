package main

import "go.uber.org/zap"

// NewLogger builds the process-wide zap logger, injected into each
// component rather than used as a package-level global (spec §9:
// "route through a thin logging abstraction injected into each
// component"). Grounded on arejula27-p2pool-go's use of zap across its
// p2p and stratum packages, the only zap-based node in the retrieved
// examples.
func NewLogger(debug bool) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
