package globals

import (
	"context"

	"invtracker/internal/telemetry"
)

type key struct{}

type Value struct {
	ConfigPath string
	Verbose    bool
	Tel        telemetry.API
}

func Set(ctx context.Context, value *Value) context.Context {
	return context.WithValue(ctx, key{}, value)
}

func Get(ctx context.Context) *Value {
	return ctx.Value(key{}).(*Value)
}
