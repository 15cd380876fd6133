//go:build !linux

package main

import (
	"fmt"

	"synthpanel/board"
	"synthpanel/config"
)

func openPi(cfg *config.Config) (board.Hardware, func(), error) {
	return board.Hardware{}, nil, fmt.Errorf("hardware %q needs Linux, use -simulate", cfg.Hardware)
}
