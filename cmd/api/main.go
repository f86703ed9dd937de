package main

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/furni4/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
