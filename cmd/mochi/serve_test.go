// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"testing"
)

func TestAwaitServer(t *testing.T) {
	t.Parallel()

	closed := func() <-chan error {
		ch := make(chan error)
		close(ch)
		return ch
	}
	failing := func(err error) <-chan error {
		ch := make(chan error, 1)
		ch <- err
		return ch
	}
	cancelled := func() context.Context {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}

	serveErr := errors.New("accept: too many open files")

	tests := []struct {
		name    string
		ctx     context.Context
		errs    <-chan error
		wantErr error
	}{
		{name: "closed while watching", ctx: context.Background(), errs: closed(), wantErr: errServerStopped},
		{name: "serve error", ctx: context.Background(), errs: failing(serveErr), wantErr: serveErr},
		{name: "nil error while watching", ctx: context.Background(), errs: failing(nil), wantErr: errServerStopped},
		{name: "interrupted", ctx: cancelled(), errs: make(chan error)},
		{name: "closed after interrupt", ctx: cancelled(), errs: closed()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := awaitServer(tt.ctx, tt.errs)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("awaitServer() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("awaitServer() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
