//go:build tinygo

package main

import (
	"picoheld/app"
	"picoheld/hal"
)

func main() {
	app.Run(hal.New(), app.Config{MainVolume: 1, MusicVolume: 1, Demo: true}, nil)
}
